// Package cache provides an LRU-backed read-through cache. Concurrent misses
// for the same key are coalesced so the loader runs once per key at a time.
package cache

import (
	"context"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache caches values loaded on demand. A miss invokes the load
// callback; while a load for a key is in flight, other callers for that key
// wait and share its result instead of loading again. Load errors are
// returned but never cached, so the next call retries.
type LoaderCache[K comparable, V any] struct {
	entries *lru.Cache[string, V]
	flight  singleflight.Group
	keyFn   func(K) string
}

// NewLoaderCache creates a cache holding at most maxEntries values. keyFn
// serializes keys for the LRU and for load coalescing.
func NewLoaderCache[K comparable, V any](maxEntries int, keyFn func(K) string) (*LoaderCache[K, V], error) {
	entries, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[K, V]{
		entries: entries,
		keyFn:   keyFn,
	}, nil
}

// Get returns the cached value for key, loading it on miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	value, _, err := c.GetWithStats(ctx, key, load)
	return value, err
}

// GetWithStats is Get plus a hit indicator, so callers can record cache
// metrics without the cache knowing about them.
func (c *LoaderCache[K, V]) GetWithStats(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, bool, error) {
	keyStr := c.keyFn(key)
	if value, ok := c.entries.Get(keyStr); ok {
		return value, true, nil
	}

	result, err, _ := c.flight.Do(keyStr, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.entries.Add(keyStr, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}

	return result.(V), false, nil
}

// Invalidate removes the entry for key, if present.
func (c *LoaderCache[K, V]) Invalidate(key K) {
	c.entries.Remove(c.keyFn(key))
}

// InvalidateAll drops every entry.
func (c *LoaderCache[K, V]) InvalidateAll() {
	c.entries.Purge()
}

// Len returns the current number of cached entries.
func (c *LoaderCache[K, V]) Len() int {
	return c.entries.Len()
}
