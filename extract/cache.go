package extract

import (
	"sync"
	"time"
)

// cache is a read-mostly in-memory cache with a hard expiry. Entries older
// than maxAge are dropped on access; callers decide freshness below that
// bound from the reported age, which is what allows the blueprint resolver
// to serve stale-but-available entries during a store outage.
type cache[V any] struct {
	mu      sync.Mutex
	maxAge  time.Duration
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

func newCache[V any](maxAge time.Duration) *cache[V] {
	return &cache[V]{
		maxAge:  maxAge,
		entries: make(map[string]cacheEntry[V]),
	}
}

// get returns the cached value and its age. Entries past maxAge are removed
// and reported as missing.
func (c *cache[V]) get(key string) (value V, age time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return value, 0, false
	}
	age = time.Since(entry.storedAt)
	if age > c.maxAge {
		delete(c.entries, key)
		return value, 0, false
	}
	return entry.value, age, true
}

// put stores a value. Concurrent writers for the same key race benignly;
// last writer wins.
func (c *cache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: time.Now()}
}
