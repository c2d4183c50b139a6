package capability

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// marker is the type of the deferred sentinel.
type marker struct{}

var deferredMarker any = &marker{}

// Context is the per-session store shared by every resolution in one
// initialisation pass. It memoizes resolved strategies, carries the registry
// so strategy factories can resolve their own dependencies, and holds the
// substitution handler.
//
// A Context is not safe for concurrent use. Facades create a fresh one per
// rebuild under their own lock and drop it afterwards.
type Context struct {
	id       string
	entries  map[Key]any
	order    []Key
	registry *Registry
	handler  SubstitutionHandler

	inFlight map[Key]struct{}
	report   []Resolution
	spanCtx  context.Context
}

// ContextOption configures a new Context.
type ContextOption func(*Context)

// WithHandler installs a substitution handler.
func WithHandler(h SubstitutionHandler) ContextOption {
	return func(c *Context) {
		c.handler = h
	}
}

// WithDeferred marks keys deferred before any resolution happens.
func WithDeferred(keys ...Key) ContextOption {
	return func(c *Context) {
		for _, k := range keys {
			c.MarkDeferred(k)
		}
	}
}

// WithTraceParent parents resolution spans under ctx.
func WithTraceParent(ctx context.Context) ContextOption {
	return func(c *Context) {
		if ctx != nil {
			c.spanCtx = ctx
		}
	}
}

// NewContext creates an empty session.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		id:       uuid.NewString(),
		entries:  make(map[Key]any),
		inFlight: make(map[Key]struct{}),
		spanCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session id used in logs and traces.
func (c *Context) ID() string {
	return c.id
}

// Get returns the value stored for key.
//
// A deferred marker is consumed and reported as ErrDeferred. Without a direct
// entry, the first live value (in insertion order) stored under a capability
// that extends key is returned, so asking for a broad capability can yield an
// instance built for a narrower one. Capabilities that merely share a Go type
// never serve each other. Otherwise Get returns ErrNotFound.
func (c *Context) Get(key Key) (any, error) {
	if v, ok := c.entries[key]; ok {
		if v == deferredMarker {
			c.remove(key)
			return nil, ErrDeferred
		}
		return v, nil
	}
	if v, ok := c.narrower(key); ok {
		return v, nil
	}
	return nil, ErrNotFound
}

// narrower returns the first live value stored under a descendant of key.
func (c *Context) narrower(key Key) (any, bool) {
	for _, k := range c.order {
		v := c.entries[k]
		if v == deferredMarker || !extends(k, key) {
			continue
		}
		if key.Accepts(v) {
			return v, true
		}
	}
	return nil, false
}

// extends reports whether ancestor is reachable from k through Parent.
func extends(k, ancestor Key) bool {
	for p := k.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Put stores v for key unless a live value is already stored, and returns
// whichever value is now authoritative. A deferred marker is overwritten.
func (c *Context) Put(key Key, v any) any {
	if v == nil {
		return nil
	}
	existing, ok := c.entries[key]
	if ok && existing != deferredMarker {
		return existing
	}
	if !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = v
	return v
}

// MarkDeferred routes the next resolution of key to the substitution
// handler. It does nothing when key is already marked or when Get would
// already return a live value for it, either stored directly or under a
// narrower capability.
func (c *Context) MarkDeferred(key Key) {
	if _, ok := c.entries[key]; ok {
		return
	}
	if _, ok := c.narrower(key); ok {
		return
	}
	c.order = append(c.order, key)
	c.entries[key] = deferredMarker
}

// IsDeferred reports whether key currently holds the deferred marker.
func (c *Context) IsDeferred(key Key) bool {
	return c.entries[key] == deferredMarker
}

// PutIfAbsentRegistry installs the registry returned by supplier unless one
// is already present, and returns the installed registry.
func (c *Context) PutIfAbsentRegistry(supplier func() *Registry) *Registry {
	if c.registry == nil && supplier != nil {
		c.registry = supplier()
	}
	return c.registry
}

// Registry returns the registry driving this session, or nil.
func (c *Context) Registry() *Registry {
	return c.registry
}

// SubstitutionHandler returns the active handler, or nil.
func (c *Context) SubstitutionHandler() SubstitutionHandler {
	return c.handler
}

// SetSubstitutionHandler replaces the active handler.
func (c *Context) SetSubstitutionHandler(h SubstitutionHandler) {
	c.handler = h
}

// Len returns the number of live (non-marker) entries.
func (c *Context) Len() int {
	n := 0
	for _, v := range c.entries {
		if v != deferredMarker {
			n++
		}
	}
	return n
}

// Report returns the resolutions recorded so far, in completion order.
func (c *Context) Report() []Resolution {
	return slices.Clone(c.report)
}

func (c *Context) remove(key Key) {
	delete(c.entries, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

func (c *Context) enter(key Key) bool {
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Context) leave(key Key) {
	delete(c.inFlight, key)
}

func (c *Context) depth() int {
	return len(c.inFlight)
}

func (c *Context) record(r Resolution) {
	c.report = append(c.report, r)
}
