package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time explicitly instead of sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCache_GetSet(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, 10, clock.Now)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", "value")
	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_ExpiryIsDeterministic(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, 10, clock.Now)

	c.Set("key", 42)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("key")
	assert.True(t, ok, "entry should still be fresh just before the TTL")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok, "entry should have expired past the TTL")
}

func TestCache_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, 10, clock.Now)

	c.Set("key", "old")
	clock.Advance(30 * time.Second)
	c.Set("key", "new")

	// The rewrite restarts the TTL.
	clock.Advance(45 * time.Second)
	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestCache_MaxSizeEvictsExpiredFirst(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, 2, clock.Now)

	c.Set("a", 1)
	clock.Advance(2 * time.Minute) // "a" expires
	c.Set("b", 2)
	c.Set("c", 3) // full: expired "a" should go, "b" should survive

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_MaxSizeEvictsOldestWhenNoneExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, 2, clock.Now)

	c.Set("a", 1)
	clock.Advance(time.Second)
	c.Set("b", 2)
	clock.Advance(time.Second)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "earliest-expiring entry should be evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *Cache

	c.Set("key", "value") // must not panic
	_, ok := c.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
