package capability

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a strategy. It receives the session Context and may
// resolve further capabilities through it (see Require). Returning an error
// that wraps ErrStrategyAbsent declines softly; any other error is final for
// the capability being resolved.
type Factory func(cc *Context) (any, error)

// Locator maps a candidate id to a factory. It must return an error wrapping
// ErrStrategyAbsent for ids it does not know; any other error is treated as
// a broken strategy.
type Locator interface {
	Locate(id string) (Factory, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(id string) (Factory, error)

// Locate implements Locator.
func (f LocatorFunc) Locate(id string) (Factory, error) {
	return f(id)
}

// Catalog is the default Locator: a table of factories keyed by candidate id,
// usually filled from init functions.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: map[string]Factory{}}
}

// Register installs a factory for id.
func (c *Catalog) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("capability: strategy id is required")
	}
	if factory == nil {
		return fmt.Errorf("capability: factory is required for %s", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStrategy, id)
	}
	c.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (c *Catalog) MustRegister(id string, factory Factory) {
	if err := c.Register(id, factory); err != nil {
		panic(err)
	}
}

// Provide registers a typed constructor for id.
func Provide[T any](c *Catalog, id string, ctor func(cc *Context) (T, error)) {
	c.MustRegister(id, func(cc *Context) (any, error) {
		v, err := ctor(cc)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Locate implements Locator.
func (c *Catalog) Locate(id string) (Factory, error) {
	c.mu.RLock()
	factory, ok := c.factories[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyAbsent, id)
	}
	return factory, nil
}

// IDs returns the registered candidate ids, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.factories))
	for id := range c.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tiers returns every version tier mentioned by a registered id, ascending.
func (c *Catalog) Tiers() []int {
	seen := map[int]struct{}{}
	for _, id := range c.IDs() {
		if parts := SplitCandidate(id); parts.HasTier {
			seen[parts.Tier] = struct{}{}
		}
	}
	tiers := make([]int, 0, len(seen))
	for t := range seen {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	return tiers
}
