package cachemanager

import (
	"context"
	"time"

	"github.com/zjrosen/capwire/internal/log"
)

// Loader computes the value for a cache miss from the caller's input.
type Loader[V any, I any] func(ctx context.Context, input I) (V, error)

// ReadThroughCache computes missing values with a Loader and stores them in
// a CacheManager. The registry uses it to derive each capability's candidate
// list once per profile.
type ReadThroughCache[K comparable, V any, I any] struct {
	store  CacheManager[K, V]
	load   Loader[V, I]
	bypass bool
}

// NewReadThroughCache wraps store with load. When bypass is set every Get
// calls load and the store is never read or written.
func NewReadThroughCache[K comparable, V any, I any](
	store CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	bypass bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		store:  store,
		load:   load,
		bypass: bypass,
	}
}

// Get returns the value stored under key, loading it from input on a miss.
// Successful loads are stored for ttl; failed loads are returned as is and
// leave the store untouched, so the next Get tries again.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.bypass {
		return r.load(ctx, input)
	}

	if v, ok := r.store.Get(ctx, key); ok {
		return v, nil
	}

	v, err := r.load(ctx, input)
	if err != nil {
		log.Debug(log.CatCache, "read-through load failed", "key", key, "error", err)
		return v, err
	}

	r.store.Set(ctx, key, v, ttl)
	return v, nil
}
