package trends

import (
	"fmt"
	"sync"
	"time"
)

const defaultCacheTTL = 10 * time.Minute

type cacheEntry struct {
	keywords   []string
	source     string
	google     []string
	recommend  []string
	insertedAt time.Time
}

// Cache keeps trend lookups keyed by (region, limit) with a TTL. There is no
// size bound: the key space is naturally limited by region and limit
// combinations.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache constructs a trends cache with the given TTL (10 minutes when
// non-positive).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func trendKey(region string, limit int) string {
	return fmt.Sprintf("%s:%d", region, limit)
}

// Get returns the cached tuple for (region, limit), treating expired entries
// as absent.
func (c *Cache) Get(region string, limit int) (keywords []string, source string, google, recommend []string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := trendKey(region, limit)
	entry, found := c.entries[key]
	if !found {
		return nil, "", nil, nil, false
	}
	if c.now().Sub(entry.insertedAt) > c.ttl {
		delete(c.entries, key)
		return nil, "", nil, nil, false
	}
	return entry.keywords, entry.source, entry.google, entry.recommend, true
}

// Set stores the tuple for (region, limit).
func (c *Cache) Set(region string, limit int, keywords []string, source string, google, recommend []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[trendKey(region, limit)] = cacheEntry{
		keywords:   keywords,
		source:     source,
		google:     google,
		recommend:  recommend,
		insertedAt: c.now(),
	}
}
