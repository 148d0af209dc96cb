package grid

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/picobrain/console/pkg/sdk"
)

// DefaultCacheTTL is the staleness window for fetched pages: a repeated
// identical query inside the window is served from cache.
const DefaultCacheTTL = 5 * time.Minute

const cacheSize = 128

// Cache holds fetched pages for one collection, keyed by the full parameter
// tuple. Construct exactly one Cache per collection and hand it to every
// controller bound to that collection, so simultaneously mounted views see
// consistent data. Concurrent fetches for the same key are coalesced into a
// single network call.
type Cache[T any] struct {
	entries *expirable.LRU[string, sdk.Page[T]]
	group   singleflight.Group
}

// NewCache constructs a collection cache with the given staleness window;
// zero means DefaultCacheTTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache[T]{
		entries: expirable.NewLRU[string, sdk.Page[T]](cacheSize, nil, ttl),
	}
}

// Fetch returns the cached page for key, or runs fetch once — however many
// callers arrive concurrently — and caches its result. Errors are never
// cached.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fetch func(ctx context.Context) (sdk.Page[T], error)) (sdk.Page[T], error) {
	if page, ok := c.entries.Get(key); ok {
		return page, nil
	}
	result, err, _ := c.group.Do(key, func() (any, error) {
		if page, ok := c.entries.Get(key); ok {
			return page, nil
		}
		page, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, page)
		return page, nil
	})
	if err != nil {
		return sdk.Page[T]{}, err
	}
	return result.(sdk.Page[T]), nil
}

// Invalidate drops every cached page for the collection. Called after any
// successful mutation so the next fetch hits the network.
func (c *Cache[T]) Invalidate() {
	c.entries.Purge()
}

// Len reports the number of live entries, for tests and introspection.
func (c *Cache[T]) Len() int {
	return c.entries.Len()
}
