package search

import (
	"sync"
	"time"
)

const (
	defaultCacheTTL     = 30 * time.Minute
	defaultCacheMaxSize = 100
	sweepInterval       = 5 * time.Minute
)

type cacheEntry struct {
	text       string
	insertedAt time.Time
}

// Cache keeps formatted search evidence keyed by (keyword, region, timelimit)
// with a TTL and a bounded size. Inserting past capacity evicts the single
// oldest entry. Expired entries are swept lazily, at most once per interval.
type Cache struct {
	mu        sync.Mutex
	ttl       time.Duration
	maxSize   int
	entries   map[string]cacheEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewCache constructs a search cache. Non-positive arguments fall back to the
// defaults (30 minute TTL, 100 entries).
func NewCache(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = defaultCacheMaxSize
	}
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(keyword, region, timelimit string) string {
	if timelimit == "" {
		timelimit = "none"
	}
	return keyword + ":" + region + ":" + timelimit
}

// Get returns the cached evidence text for the key, treating entries older
// than the TTL as absent.
func (c *Cache) Get(keyword, region, timelimit string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maybeSweep()

	key := cacheKey(keyword, region, timelimit)
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return entry.text, true
}

// Set stores evidence text for the key, evicting the oldest entry first when
// the cache is full.
func (c *Cache) Set(keyword, region, timelimit, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maybeSweep()

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[cacheKey(keyword, region, timelimit)] = cacheEntry{text: text, insertedAt: c.now()}
}

// Len reports the number of physically present entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) maybeSweep() {
	now := c.now()
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now

	for key, entry := range c.entries {
		if now.Sub(entry.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
