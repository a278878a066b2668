// Package cache provides small in-process memo caches owned by the component that uses them.
package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a bounded map whose entries expire after a fixed duration.
// When full, expired entries are purged first, then the entry closest to expiry is evicted.
type TTL[K comparable, V any] struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	clock      Clock
	entries    map[K]entry[V]
}

// NewTTL creates a cache. A nil clock uses SystemClock; maxEntries <= 0 means 1024.
func NewTTL[K comparable, V any](ttl time.Duration, maxEntries int, clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = SystemClock
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &TTL[K, V]{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[K]entry[V]),
	}
}

// Get returns the live value stored under key.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// Delete removes key.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of stored entries, expired or not.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[K, V]) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var (
		oldestKey K
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
