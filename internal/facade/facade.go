// Package facade caches a set of interdependent capabilities behind a single
// lazily rebuilt pointer.
package facade

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/capwire/internal/capability"
	"github.com/zjrosen/capwire/internal/log"
)

// ErrEmptyBuild is returned when a BuildFunc reports success without fields.
var ErrEmptyBuild = errors.New("facade build returned no fields")

// BuildFunc resolves every field of S from one fresh Context.
type BuildFunc[S any] func(cc *capability.Context) (*S, error)

// Option configures a Facade.
type Option func(*options)

type options struct {
	name       string
	newContext func() *capability.Context
}

// WithName labels the facade in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithContextFactory supplies the Context for each rebuild, e.g. one with a
// substitution handler installed.
func WithContextFactory(f func() *capability.Context) Option {
	return func(o *options) {
		if f != nil {
			o.newContext = f
		}
	}
}

// Facade owns a field set of type S. Reads are a single atomic load. A nil
// field set (first use, or after Close) is rebuilt as a whole under the
// facade's lock, so concurrent first users trigger one build and never see
// a partially populated set.
type Facade[S any] struct {
	name       string
	build      BuildFunc[S]
	newContext func() *capability.Context

	mu         sync.Mutex
	fields     atomic.Pointer[S]
	rebuilds   atomic.Int64
	lastReport []capability.Resolution
}

// New returns an empty facade; nothing is resolved until the first Get.
func New[S any](build BuildFunc[S], opts ...Option) *Facade[S] {
	o := options{
		name:       fmt.Sprintf("%T", *new(S)),
		newContext: func() *capability.Context { return capability.NewContext() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Facade[S]{
		name:       o.name,
		build:      build,
		newContext: o.newContext,
	}
}

// Get returns the field set, building it if needed. A build error is
// returned unchanged and leaves the facade empty.
func (f *Facade[S]) Get() (*S, error) {
	if s := f.fields.Load(); s != nil {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s := f.fields.Load(); s != nil {
		return s, nil
	}

	cc := f.newContext()
	start := time.Now()
	s, err := f.build(cc)
	f.lastReport = cc.Report()
	if err != nil {
		log.ErrorErr(log.CatFacade, "rebuild failed", err, "facade", f.name, "session", cc.ID())
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBuild, f.name)
	}

	f.fields.Store(s)
	n := f.rebuilds.Add(1)
	log.Info(log.CatFacade, "rebuilt", "facade", f.name, "session", cc.ID(),
		"rebuild", n, "duration", time.Since(start))
	return s, nil
}

// Close drops the field set. The facade stays usable; the next Get rebuilds.
func (f *Facade[S]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fields.Swap(nil) != nil {
		log.Debug(log.CatFacade, "closed", "facade", f.name)
	}
}

// Loaded reports whether a field set is currently cached.
func (f *Facade[S]) Loaded() bool {
	return f.fields.Load() != nil
}

// Rebuilds returns the number of successful builds.
func (f *Facade[S]) Rebuilds() int64 {
	return f.rebuilds.Load()
}

// LastReport returns the resolutions recorded by the most recent build,
// successful or not.
func (f *Facade[S]) LastReport() []capability.Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capability.Resolution(nil), f.lastReport...)
}
