// Package cache provides the process-local TTL cache backing the gateway's
// read operations. Entries expire by time-to-live only; the backend is the
// source of truth and a stale-but-unexpired read is an accepted trade-off.
package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injected so expiry is deterministically
// testable without wall-clock sleeps.
type Clock func() time.Time

// Cache is a thread-safe TTL cache with a bounded entry count.
// A nil *Cache is valid and behaves as a disabled cache: every Get misses
// and every Set is a no-op.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
	now     Clock
}

type entry struct {
	value     any
	expiresAt time.Time
}

// New creates a cache. A nil clock defaults to time.Now.
func New(ttl time.Duration, maxSize int, now Clock) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
	}
}

// Get retrieves a value. Expired entries count as misses.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value with the configured TTL, evicting expired entries
// first and then the earliest-expiring entry if the cache is still full.
// Eviction happens opportunistically on write; there is no background
// sweeper, so an idle cache simply holds expired entries until the next Set.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}
	c.entries[key] = &entry{value: value, expiresAt: now.Add(c.ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries; if none were expired it drops the
// entry closest to expiry. Caller holds the write lock.
func (c *Cache) evictLocked(now time.Time) {
	var oldestKey string
	var oldestAt time.Time
	dropped := false
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			dropped = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = key, e.expiresAt
		}
	}
	if !dropped && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
