package capability

import (
	"fmt"
	"sync"
)

// Key is the type-erased view of a capability token. Contexts and the
// registry work with Keys; callers normally hold a *Type[T].
type Key interface {
	// Name is the canonical capability name, the root of every candidate id.
	Name() string
	// Parent is a broader capability whose strategies may satisfy this one,
	// or nil.
	Parent() Key
	// Accepts reports whether v can serve as this capability.
	Accepts(v any) bool
}

// Type is a compiled-in capability token. T is the Go interface (or type)
// every strategy for the capability must implement.
//
// Tokens are declared once as package-level variables:
//
//	var MapClearer = capability.NewType[Clearer]("MapClearer")
type Type[T any] struct {
	name   string
	parent Key
}

// TypeOption configures a capability token.
type TypeOption func(*typeOptions)

type typeOptions struct {
	parent Key
}

// Extends declares a broader capability consulted when every candidate for
// the new capability is absent.
func Extends(parent Key) TypeOption {
	return func(o *typeOptions) {
		o.parent = parent
	}
}

var (
	declaredMu sync.Mutex
	declared   = map[string]struct{}{}
)

// NewType declares a capability. Names are unique per process; declaring a
// name twice panics, as does an empty name.
func NewType[T any](name string, opts ...TypeOption) *Type[T] {
	if name == "" {
		panic("capability: name is required")
	}
	var o typeOptions
	for _, opt := range opts {
		opt(&o)
	}

	declaredMu.Lock()
	defer declaredMu.Unlock()
	if _, dup := declared[name]; dup {
		panic(fmt.Sprintf("capability: %s already declared", name))
	}
	declared[name] = struct{}{}

	return &Type[T]{name: name, parent: o.parent}
}

// Name implements Key.
func (t *Type[T]) Name() string { return t.name }

// Parent implements Key.
func (t *Type[T]) Parent() Key { return t.parent }

// Accepts implements Key.
func (t *Type[T]) Accepts(v any) bool {
	if v == nil {
		return false
	}
	_, ok := v.(T)
	return ok
}

func (t *Type[T]) String() string { return t.name }
