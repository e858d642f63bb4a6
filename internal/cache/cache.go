package cache

import (
	"sync"
	"time"
)

// Type selects which time-to-live applies to an entry on lookup.
type Type string

const (
	TypeSearch  Type = "search"
	TypeDetails Type = "details"
	TypeNews    Type = "news"
)

// Expiry per entry type. Search results go stale quickly, per-game details
// are stable, news sits in between.
var durations = map[Type]time.Duration{
	TypeSearch:  5 * time.Minute,
	TypeDetails: 15 * time.Minute,
	TypeNews:    10 * time.Minute,
}

type entry struct {
	data      any
	timestamp time.Time
}

// Cache is a process-wide string-keyed response cache. Expired entries are
// only removed when next looked up, there is no background sweep.
type Cache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
}

func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock builds a cache with an injected clock so TTL behavior is
// testable without real delays.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key if it is still within the TTL for
// the given type. A stale entry is dropped and reported as a miss.
func (c *Cache) Get(key string, t Type) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	ttl, ok := durations[t]
	if !ok {
		ttl = durations[TypeSearch]
	}

	if c.now().Sub(e.timestamp) > ttl {
		delete(c.entries, key)
		return nil, false
	}

	return e.data, true
}

func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, timestamp: c.now()}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len reports the number of entries currently held, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
