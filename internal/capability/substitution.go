package capability

import (
	"github.com/zjrosen/capwire/internal/log"
)

// SubstitutionHandler is the second chance a Context gives a capability whose
// search failed or that was marked deferred.
//
// Handle receives the BuildingError that would otherwise escape Resolve. It
// may redirect by resolving a different capability through r and cc. A
// handler that does not recognise key must return cause unchanged.
type SubstitutionHandler interface {
	Handle(r *Registry, key Key, cc *Context, cause *BuildingError) (any, error)
}

// HandlerFunc adapts a function to SubstitutionHandler.
type HandlerFunc func(r *Registry, key Key, cc *Context, cause *BuildingError) (any, error)

// Handle implements SubstitutionHandler.
func (f HandlerFunc) Handle(r *Registry, key Key, cc *Context, cause *BuildingError) (any, error) {
	return f(r, key, cc, cause)
}

// MarkDeferred marks key deferred in cc so the next resolution goes straight
// to the substitution handler. It never replaces a resolved value.
func MarkDeferred(cc *Context, key Key) {
	cc.MarkDeferred(key)
}

// RedirectHandler resolves a fixed alternate capability for each known key.
type RedirectHandler struct {
	routes map[Key]Key
}

// NewRedirectHandler returns a handler that redirects each key of routes to
// its value.
func NewRedirectHandler(routes map[Key]Key) *RedirectHandler {
	h := &RedirectHandler{routes: make(map[Key]Key, len(routes))}
	for from, to := range routes {
		h.routes[from] = to
	}
	return h
}

// Redirect adds or replaces a route and returns h.
func (h *RedirectHandler) Redirect(from, to Key) *RedirectHandler {
	h.routes[from] = to
	return h
}

// Handle implements SubstitutionHandler.
func (h *RedirectHandler) Handle(r *Registry, key Key, cc *Context, cause *BuildingError) (any, error) {
	to, ok := h.routes[key]
	if !ok {
		return nil, cause
	}
	log.Debug(log.CatSubst, "redirecting", "capability", key.Name(), "to", to.Name())
	return r.Resolve(cc, to)
}

// Deferrer returns a ContextOption that marks every routed key deferred, so
// a whole family switches to its alternates on first use.
func (h *RedirectHandler) Deferrer() ContextOption {
	return func(c *Context) {
		c.handler = h
		for from := range h.routes {
			c.MarkDeferred(from)
		}
	}
}
