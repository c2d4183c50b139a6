package capability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalog_Register(t *testing.T) {
	c := NewCatalog()

	require.NoError(t, c.Register("Greeter", greeterAt("bare")))
	require.ErrorIs(t, c.Register("Greeter", greeterAt("again")), ErrDuplicateStrategy)
	require.Error(t, c.Register("", greeterAt("nameless")))
	require.Error(t, c.Register("Greeter$Tier22", nil))

	require.Panics(t, func() { c.MustRegister("Greeter", greeterAt("again")) })
}

func TestCatalog_LocateUnknownIsAbsent(t *testing.T) {
	_, err := NewCatalog().Locate("Greeter$Tier22")
	require.ErrorIs(t, err, ErrStrategyAbsent)
	require.Contains(t, err.Error(), "Greeter$Tier22")
}

func TestCatalog_IDsAndTiers(t *testing.T) {
	c := catalogOf(t, map[string]Factory{
		"Greeter$Tier22$GCCGo": greeterAt("a"),
		"Greeter$Tier18":       greeterAt("b"),
		"Pair$Tier22":          greeterAt("c"),
		"Greeter":              greeterAt("d"),
		"Greeter$TinyGo":       greeterAt("e"),
	})

	require.Equal(t, []string{
		"Greeter", "Greeter$Tier18", "Greeter$Tier22$GCCGo", "Greeter$TinyGo", "Pair$Tier22",
	}, c.IDs())
	require.Equal(t, []int{18, 22}, c.Tiers())
}

func TestProvide_TypedConstructor(t *testing.T) {
	c := NewCatalog()
	Provide(c, "Greeter", func(*Context) (greeter, error) {
		return &plainGreeter{id: "typed"}, nil
	})
	Provide(c, "Pair", func(*Context) (*pair, error) {
		return nil, errBoom
	})

	f, err := c.Locate("Greeter")
	require.NoError(t, err)
	v, err := f(NewContext())
	require.NoError(t, err)
	require.Equal(t, "typed", v.(greeter).Greet())

	f, err = c.Locate("Pair")
	require.NoError(t, err)
	v, err = f(NewContext())
	require.ErrorIs(t, err, errBoom)
	require.Nil(t, v)
}

func TestCatalog_ConcurrentRegistration(t *testing.T) {
	c := NewCatalog()
	ids := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.MustRegister(id, greeterAt(id))
			_, _ = c.Locate(id)
		}()
	}
	wg.Wait()

	require.Equal(t, ids, c.IDs())
}
