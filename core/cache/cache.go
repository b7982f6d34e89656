// Package cache provides a small in-memory TTL cache used by the API
// clients. Entries are valid for a fixed duration chosen at construction;
// an expired entry behaves as a miss and stays in the map until
// overwritten or cleared.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a mutex-guarded TTL map. The zero value is not usable; use New.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clockwork.Clock
	entries map[K]entry[V]
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// New returns a cache whose entries expire ttl after Put. A non-positive
// ttl makes every Get a miss.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return NewWithClock[K, V](ttl, clockwork.NewRealClock())
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock[K comparable, V any](ttl time.Duration, clock clockwork.Clock) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the value stored under key when it is still fresh.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, resetting its TTL.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.clock.Now()}
}

// Clear removes all entries and returns how many were dropped.
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[K]entry[V])
	return n
}

// Len reports the number of stored entries, fresh or expired.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) fresh(e entry[V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.clock.Since(e.storedAt) < c.ttl
}
