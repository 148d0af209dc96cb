package grid

import (
	"sync"
	"time"
)

// Registry hands out the shared page cache per collection, so every
// controller bound to the same collection sees the same cached pages and a
// mutation in one view invalidates them for all. The registry is injected
// into the composition root; it is not a package-level singleton.
type Registry struct {
	mu     sync.Mutex
	ttl    time.Duration
	caches map[string]any
}

// NewRegistry constructs a registry whose caches use the given staleness
// window; zero means DefaultCacheTTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:    ttl,
		caches: make(map[string]any),
	}
}

// CacheFor returns the collection's shared cache, creating it on first use.
// A row-type mismatch for an existing entry yields a fresh detached cache
// rather than a panic; collections are expected to keep one row type.
func CacheFor[T any](r *Registry, collection string) *Cache[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.caches[collection]; ok {
		if cache, ok := existing.(*Cache[T]); ok {
			return cache
		}
		return NewCache[T](r.ttl)
	}
	cache := NewCache[T](r.ttl)
	r.caches[collection] = cache
	return cache
}
