package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TimedCache is a concurrency safe cache with a fixed time-to-live per
// entry. It backs the connection cache and both membership lookup caches.
//
// Two concurrent lookups for the same absent key may both run compute; only
// one result is stored, the others are handed to onEvict. The cache never
// stores a partially computed value and errors are not cached.
type TimedCache[K comparable, V any] struct {
	lru     *expirable.LRU[K, V]
	mu      sync.Mutex
	onEvict func(K, V)
}

// NewTimedCache creates a TimedCache holding at most size entries (0 means
// unbounded) for at most ttl. onEvict, if non-nil, runs for every entry
// that is removed or expired, and for every computed value discarded
// because a concurrent compute for the same key finished first.
func NewTimedCache[K comparable, V any](size int, ttl time.Duration, onEvict func(K, V)) *TimedCache[K, V] {
	return &TimedCache[K, V]{
		lru:     expirable.NewLRU[K, V](size, onEvict, ttl),
		onEvict: onEvict,
	}
}

// GetOrCompute returns the cached value for key, running compute on a miss.
// A compute error is returned as-is and nothing is cached.
func (c *TimedCache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	// The LRU does not run onEvict when Add replaces a key, so the
	// check-and-store is serialized: a compute that lost the race keeps the
	// stored winner and releases its own value.
	c.mu.Lock()
	cached, ok := c.lru.Get(key)
	if !ok {
		c.lru.Add(key, v)
	}
	c.mu.Unlock()

	if ok {
		if c.onEvict != nil {
			c.onEvict(key, v)
		}

		return cached, nil
	}

	return v, nil
}

// Get returns the cached value for key, if present.
func (c *TimedCache[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

// Invalidate drops the entry for key, running the eviction callback.
func (c *TimedCache[K, V]) Invalidate(key K) {
	c.lru.Remove(key)
}

// Purge drops every entry.
func (c *TimedCache[K, V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *TimedCache[K, V]) Len() int {
	return c.lru.Len()
}

// cacheKey joins key parts with a separator that cannot occur in DNs,
// filters or attribute names.
func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}
