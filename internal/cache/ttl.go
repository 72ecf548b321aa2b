// Package cache provides the in-memory caches owned by a reconciliation
// client: a TTL cache for service metadata and a capacity-bounded LRU cache
// for per-query results. Both live for the lifetime of the owning client and
// are never shared across client instances.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTL wraps go-cache for time-bounded entries such as the service manifest.
type TTL struct {
	store *gocache.Cache
}

// NewTTL creates a new cache with the given TTL and cleanup interval.
// defaultTTL is the default expiration time for cache entries.
// cleanupInterval is how often expired items are removed from memory.
func NewTTL(defaultTTL, cleanupInterval time.Duration) *TTL {
	return &TTL{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache.
func (c *TTL) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value in the cache with default TTL.
func (c *TTL) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// Clear removes all items from the cache.
func (c *TTL) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items in the cache.
func (c *TTL) ItemCount() int {
	return c.store.ItemCount()
}
