package builtin

import (
	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/facade"
	"github.com/zjrosen/capwire/internal/flags"
	"github.com/zjrosen/capwire/internal/log"
)

// Kit is the field set of the builtin facade.
type Kit struct {
	Cloner    BytesCloner
	Clearer   MapClearer
	Strings   StringBytes
	Snapshots Snapshotter
}

// KitOption configures NewKit.
type KitOption func(*kitOptions)

type kitOptions struct {
	privileged bool
}

// WithPrivileged switches StringBytes to its privileged family.
func WithPrivileged(on bool) KitOption {
	return func(o *kitOptions) {
		o.privileged = on
	}
}

// WithFlags reads FlagPrivilegedStrategies from f.
func WithFlags(f *flags.Registry) KitOption {
	return func(o *kitOptions) {
		o.privileged = f.Enabled(flags.FlagPrivilegedStrategies)
	}
}

// NewKit returns a facade resolving the builtin capabilities through r.
func NewKit(r *capability.Registry, opts ...KitOption) *facade.Facade[Kit] {
	var o kitOptions
	for _, opt := range opts {
		opt(&o)
	}

	newContext := func() *capability.Context {
		return capability.NewContext()
	}
	if o.privileged {
		log.Debug(log.CatFacade, "kit uses privileged strategies")
		newContext = func() *capability.Context {
			h := capability.NewRedirectHandler(PrivilegedRoutes())
			return capability.NewContext(h.Deferrer())
		}
	}

	return facade.New(func(cc *capability.Context) (*Kit, error) {
		return buildKit(r, cc)
	}, facade.WithName("kit"), facade.WithContextFactory(newContext))
}

func buildKit(r *capability.Registry, cc *capability.Context) (*Kit, error) {
	var (
		k   Kit
		err error
	)
	// Snapshots first: it pulls in Cloner and Clearer, which are then memo hits.
	if k.Snapshots, err = capability.Resolve(r, cc, CapSnapshotter); err != nil {
		return nil, err
	}
	if k.Cloner, err = capability.Resolve(r, cc, CapBytesCloner); err != nil {
		return nil, err
	}
	if k.Clearer, err = capability.Resolve(r, cc, CapMapClearer); err != nil {
		return nil, err
	}
	if k.Strings, err = capability.Resolve(r, cc, CapStringBytes); err != nil {
		return nil, err
	}
	return &k, nil
}
