// Package dedupe remembers recently handled sync request IDs so a redelivered
// trigger does not start a second cycle.
package dedupe

import (
	"sync"
	"time"
)

type stamp struct {
	id string
	at time.Time
}

// Cache is a bounded set of request IDs that forgets entries after ttl.
// The oldest entries are evicted first once capacity is exceeded.
type Cache struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	order    []stamp
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		seen:     make(map[string]time.Time, capacity),
		order:    make([]stamp, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Seen reports whether id was remembered inside the ttl window.
func (c *Cache) Seen(id string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.seen[id]
	return ok && now.Sub(at) <= c.ttl
}

// Remember records id as handled.
func (c *Cache) Remember(id string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seen[id] = now
	c.order = append(c.order, stamp{id: id, at: now})
	c.evict(now)
}

// Len returns the number of IDs currently remembered.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.seen) > c.capacity || c.order[0].at.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		// A re-remembered id has a newer stamp further down the queue.
		if at, ok := c.seen[oldest.id]; ok && at.Equal(oldest.at) {
			delete(c.seen, oldest.id)
		}
	}
}
