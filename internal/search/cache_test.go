package search

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(ttl time.Duration, maxSize int) (*Cache, *time.Time) {
	cache := NewCache(ttl, maxSize)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }
	return cache, &current
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	cache, clock := newTestCache(30*time.Minute, 100)

	cache.Set("키워드", "kr-ko", "m", "evidence text")

	got, ok := cache.Get("키워드", "kr-ko", "m")
	if !ok || got != "evidence text" {
		t.Fatalf("expected cache hit with stored text, got %q ok=%v", got, ok)
	}

	*clock = clock.Add(29 * time.Minute)
	if _, ok := cache.Get("키워드", "kr-ko", "m"); !ok {
		t.Fatalf("expected entry to survive until the TTL")
	}

	*clock = clock.Add(2 * time.Minute)
	if _, ok := cache.Get("키워드", "kr-ko", "m"); ok {
		t.Fatalf("expected entry to expire after the TTL")
	}
}

func TestCacheKeyIncludesRegionAndTimelimit(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(30*time.Minute, 100)

	cache.Set("kw", "kr-ko", "m", "korean")
	cache.Set("kw", "wt-wt", "m", "world")
	cache.Set("kw", "kr-ko", "", "no limit")

	if got, _ := cache.Get("kw", "wt-wt", "m"); got != "world" {
		t.Errorf("expected region to distinguish entries, got %q", got)
	}
	if got, _ := cache.Get("kw", "kr-ko", ""); got != "no limit" {
		t.Errorf("expected timelimit to distinguish entries, got %q", got)
	}
}

func TestCacheEvictsSingleOldestEntryAtCapacity(t *testing.T) {
	t.Parallel()

	cache, clock := newTestCache(time.Hour, 3)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("kw%d", i), "kr-ko", "m", fmt.Sprintf("text%d", i))
		*clock = clock.Add(time.Second)
	}

	cache.Set("kw3", "kr-ko", "m", "text3")

	if cache.Len() != 3 {
		t.Fatalf("expected cache to stay at max size 3, got %d", cache.Len())
	}

	if _, ok := cache.Get("kw0", "kr-ko", "m"); ok {
		t.Errorf("expected the oldest entry to be evicted")
	}
	for i := 1; i <= 3; i++ {
		if _, ok := cache.Get(fmt.Sprintf("kw%d", i), "kr-ko", "m"); !ok {
			t.Errorf("expected kw%d to survive eviction", i)
		}
	}
}

func TestCacheSweepsExpiredEntriesLazily(t *testing.T) {
	t.Parallel()

	cache, clock := newTestCache(10*time.Minute, 100)

	cache.Set("old", "kr-ko", "m", "old text")

	// Within the sweep interval nothing is removed even though it expired.
	*clock = clock.Add(4 * time.Minute)
	cache.Set("fresh", "kr-ko", "m", "fresh text")
	if cache.Len() != 2 {
		t.Fatalf("expected both entries before sweep, got %d", cache.Len())
	}

	*clock = clock.Add(11 * time.Minute)
	cache.Set("another", "kr-ko", "m", "another text")

	if _, ok := cache.Get("another", "kr-ko", "m"); !ok {
		t.Fatalf("expected new entry to be present")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected expired entries to be swept, got %d entries", cache.Len())
	}
}
