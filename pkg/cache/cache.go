package cache

import (
	"strconv"
	"sync"
	"time"
)

type Entry struct {
	Key       string
	Value     string
	ExpiresAt time.Time
}

func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Cache is an in-process key/value store whose entries expire on their own.
// Expired entries are dropped lazily on access and by Sweep.
type Cache struct {
	entries map[string]*Entry
	now     func() time.Time
	mu      sync.Mutex
}

func New() *Cache {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		now:     now,
	}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.live(key)
	if e == nil {
		return "", false
	}
	return e.Value, true
}

// Set stores value under key. A ttl of zero keeps the entry until deleted.
func (c *Cache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{Key: key, Value: value, ExpiresAt: c.deadline(ttl)}
}

// Incr adds one to the integer stored under key, treating a missing or
// non-numeric value as zero, and restarts the key's ttl.
func (c *Cache) Incr(key string, ttl time.Duration) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	if e := c.live(key); e != nil {
		n, _ = strconv.ParseInt(e.Value, 10, 64)
	}
	n++
	c.entries[key] = &Entry{Key: key, Value: strconv.FormatInt(n, 10), ExpiresAt: c.deadline(ttl)}
	return n
}

func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

// TTL reports how long key has left to live.
func (c *Cache) TTL(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.live(key)
	if e == nil || e.ExpiresAt.IsZero() {
		return 0, e != nil
	}
	return e.ExpiresAt.Sub(c.now()), true
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// live returns the entry for key, dropping it if it has expired.
// Callers hold c.mu.
func (c *Cache) live(key string) *Entry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil
	}
	return e
}

func (c *Cache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}
