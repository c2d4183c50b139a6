package capability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContext_GetMiss(t *testing.T) {
	cc := NewContext()
	_, err := cc.Get(tGreeter)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotEmpty(t, cc.ID())
}

func TestContext_FirstWriterWins(t *testing.T) {
	cc := NewContext()
	first := &plainGreeter{id: "first"}

	require.Same(t, first, cc.Put(tGreeter, first))
	got := cc.Put(tGreeter, &plainGreeter{id: "second"})
	require.Same(t, first, got)

	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, first, v)
	require.Equal(t, 1, cc.Len())
}

func TestContext_PutNilIsIgnored(t *testing.T) {
	cc := NewContext()
	require.Nil(t, cc.Put(tGreeter, nil))
	require.Equal(t, 0, cc.Len())
}

func TestContext_AssignableLookup(t *testing.T) {
	cc := NewContext()
	loud := &shoutingGreeter{plainGreeter{id: "loud"}}
	cc.Put(tLoud, loud)

	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, loud, v, "a broader capability may be served by a narrower instance")

	_, err = cc.Get(tOrphan)
	require.ErrorIs(t, err, ErrNotFound, "sharing a Go type is not enough to serve a capability")
}

func TestContext_AssignableLookupUsesInsertionOrder(t *testing.T) {
	cc := NewContext()
	a := &plainGreeter{id: "a"}
	b := &shoutingGreeter{plainGreeter{id: "b"}}
	cc.Put(tQuiet, a)
	cc.Put(tLoud, b)

	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, a, v)
}

func TestContext_AssignableLookupFollowsParentChain(t *testing.T) {
	cc := NewContext()
	m := &plainGreeter{id: "muffled"}
	cc.Put(tMuffled, m)

	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, m, v)

	v, err = cc.Get(tQuiet)
	require.NoError(t, err)
	require.Same(t, m, v)

	_, err = cc.Get(tLoud)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestContext_SiblingsNeverShareInstances(t *testing.T) {
	cc := NewContext()
	cc.Put(tCycleA, &plainGreeter{id: "a"})

	_, err := cc.Get(tCycleB)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = cc.Get(tGreeter)
	require.ErrorIs(t, err, ErrNotFound, "an unrelated capability does not serve a parentless one")

	cc.Put(tQuiet, &plainGreeter{id: "quiet"})
	_, err = cc.Get(tMuffled)
	require.ErrorIs(t, err, ErrNotFound, "a parent instance never serves its descendant")
}

func TestContext_DeferredMarkerIsConsumed(t *testing.T) {
	cc := NewContext()
	cc.MarkDeferred(tGreeter)
	cc.MarkDeferred(tGreeter)
	require.True(t, cc.IsDeferred(tGreeter))
	require.Equal(t, 0, cc.Len())

	_, err := cc.Get(tGreeter)
	require.ErrorIs(t, err, ErrDeferred)

	_, err = cc.Get(tGreeter)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, cc.IsDeferred(tGreeter))
}

func TestContext_MarkDeferredNeverClobbers(t *testing.T) {
	cc := NewContext()
	g := &plainGreeter{id: "live"}
	cc.Put(tGreeter, g)

	MarkDeferred(cc, tGreeter)

	require.False(t, cc.IsDeferred(tGreeter))
	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, g, v)
}

func TestContext_MarkDeferredSkipsKeysServedByDescendants(t *testing.T) {
	cc := NewContext()
	loud := &shoutingGreeter{plainGreeter{id: "loud"}}
	cc.Put(tLoud, loud)

	cc.MarkDeferred(tGreeter)

	require.False(t, cc.IsDeferred(tGreeter))
	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, loud, v)
}

func TestContext_MarkDeferredIgnoresSiblings(t *testing.T) {
	cc := NewContext()
	cc.Put(tPlain, &plainGreeter{id: "plain"})

	cc.MarkDeferred(tPrivileged)

	require.True(t, cc.IsDeferred(tPrivileged))
	_, err := cc.Get(tPrivileged)
	require.ErrorIs(t, err, ErrDeferred)
}

func TestContext_PutOverwritesMarker(t *testing.T) {
	cc := NewContext(WithDeferred(tGreeter))
	g := &plainGreeter{id: "after"}

	require.Same(t, g, cc.Put(tGreeter, g))
	v, err := cc.Get(tGreeter)
	require.NoError(t, err)
	require.Same(t, g, v)
}

func TestContext_MarkersAreSkippedByAssignableLookup(t *testing.T) {
	cc := NewContext(WithDeferred(tLoud))
	_, err := cc.Get(tGreeter)
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, cc.IsDeferred(tLoud))
}

func TestContext_PutIfAbsentRegistry(t *testing.T) {
	cc := NewContext()
	require.Nil(t, cc.Registry())

	calls := 0
	r := NewRegistry(NewCatalog(), WithProfile(gccgo22))
	supplier := func() *Registry {
		calls++
		return r
	}

	require.Same(t, r, cc.PutIfAbsentRegistry(supplier))
	require.Same(t, r, cc.PutIfAbsentRegistry(supplier))
	require.Equal(t, 1, calls)
	require.Same(t, r, cc.Registry())
}

func TestContext_SubstitutionHandler(t *testing.T) {
	h := NewRedirectHandler(nil)
	cc := NewContext(WithHandler(h))
	require.Same(t, h, cc.SubstitutionHandler())

	cc.SetSubstitutionHandler(nil)
	require.Nil(t, cc.SubstitutionHandler())
}

func TestContext_SessionsAreIndependent(t *testing.T) {
	a, b := NewContext(), NewContext()
	require.NotEqual(t, a.ID(), b.ID())

	a.Put(tGreeter, &plainGreeter{id: "a"})
	_, err := b.Get(tGreeter)
	require.ErrorIs(t, err, ErrNotFound)
}
