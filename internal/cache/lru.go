package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a capacity-bounded, least-recently-used cache that counts hits and
// misses. Entries are only added or evicted under capacity pressure; there
// is no invalidation. It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	store  *lru.Cache[K, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) (*LRU[K, V], error) {
	store, err := lru.New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{store: store}, nil
}

// Get retrieves a value and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	value, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return value, ok
}

// Add stores a value, evicting the least recently used entry when full.
// It reports whether an eviction happened.
func (c *LRU[K, V]) Add(key K, value V) bool {
	return c.store.Add(key, value)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return c.store.Len()
}

// Stats holds cache counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Stats returns current cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Entries: c.store.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
