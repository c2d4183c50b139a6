package capability

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/capwire/internal/profile"
)

type greeter interface {
	Greet() string
}

type loudGreeter interface {
	greeter
	Shout() string
}

type plainGreeter struct{ id string }

func (g *plainGreeter) Greet() string { return g.id }

type shoutingGreeter struct{ plainGreeter }

func (g *shoutingGreeter) Shout() string { return g.id + "!" }

type pair struct {
	left, right greeter
}

// Tokens are process-wide, so every test in the package shares these.
var (
	tGreeter    = NewType[greeter]("Greeter")
	tLoud       = NewType[loudGreeter]("LoudGreeter", Extends(tGreeter))
	tOrphan     = NewType[loudGreeter]("OrphanGreeter")
	tQuiet      = NewType[greeter]("QuietGreeter", Extends(tGreeter))
	tMuffled    = NewType[greeter]("MuffledGreeter", Extends(tQuiet))
	tPair       = NewType[*pair]("Pair")
	tCycleA     = NewType[greeter]("CycleA")
	tCycleB     = NewType[greeter]("CycleB")
	tPlain      = NewType[greeter]("PlainFamily")
	tPrivileged = NewType[greeter]("PrivilegedFamily")
	tProperty   = NewType[greeter]("PropertyGreeter")
)

var gccgo22 = profile.Profile{VersionTier: 22, VendorTag: "gccgo", Is64Bit: true}

var errBoom = errors.New("boom")

// greeterAt returns a factory that builds a greeter tagged with id.
func greeterAt(id string) Factory {
	return func(*Context) (any, error) {
		return &plainGreeter{id: id}, nil
	}
}

// counted wraps f and counts its invocations.
func counted(n *atomic.Int32, f Factory) Factory {
	return func(cc *Context) (any, error) {
		n.Add(1)
		return f(cc)
	}
}

func catalogOf(t *testing.T, factories map[string]Factory) *Catalog {
	t.Helper()
	c := NewCatalog()
	for id, f := range factories {
		require.NoError(t, c.Register(id, f))
	}
	return c
}

func buildingError(t *testing.T, err error) *BuildingError {
	t.Helper()
	var berr *BuildingError
	require.ErrorAs(t, err, &berr)
	return berr
}
