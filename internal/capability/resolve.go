package capability

import "fmt"

// Resolve resolves typ through r and returns the strategy with its static type.
func Resolve[T any](r *Registry, cc *Context, typ *Type[T]) (T, error) {
	var zero T
	v, err := r.Resolve(cc, typ)
	if err != nil {
		return zero, err
	}
	s, ok := v.(T)
	if !ok {
		return zero, &BuildingError{
			Capability: typ.Name(),
			Profile:    r.Profile(),
			Cause:      fmt.Errorf("%w: got %T", ErrIncompatible, v),
		}
	}
	return s, nil
}

// Require resolves a dependency from inside a strategy factory, using the
// registry that is driving cc.
func Require[T any](cc *Context, typ *Type[T]) (T, error) {
	var zero T
	r := cc.Registry()
	if r == nil {
		return zero, fmt.Errorf("%w: requiring %s", ErrNoRegistry, typ.Name())
	}
	return Resolve(r, cc, typ)
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](r *Registry, cc *Context, typ *Type[T]) T {
	s, err := Resolve(r, cc, typ)
	if err != nil {
		panic(err)
	}
	return s
}
