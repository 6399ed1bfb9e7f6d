package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timeline.metlink.nz/internal/metrics"
)

type entry struct {
	value     any
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// Cache is a TTL cache for rarely-changing upstream resources. Entries older
// than their TTL are treated as absent, never served stale. Concurrent
// misses for the same key share a single in-flight fetch, and a failed fetch
// is not cached: the next demand retries it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the value cached under (resource, key), calling fetch on miss
// or expiry and storing the result with the given TTL.
func (c *Cache) Get(ctx context.Context, resource, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	cacheKey := resource + "|" + key

	c.mu.RLock()
	e, ok := c.entries[cacheKey]
	c.mu.RUnlock()

	if ok && e.valid(c.now()) {
		metrics.CatalogLookup(resource, "hit")
		return e.value, nil
	}
	if ok {
		metrics.CatalogLookup(resource, "expired")
	} else {
		metrics.CatalogLookup(resource, "miss")
	}

	v, err, _ := c.group.Do(cacheKey, func() (any, error) {
		// Another caller may have completed the fetch while we queued.
		c.mu.RLock()
		e, ok := c.entries[cacheKey]
		c.mu.RUnlock()
		if ok && e.valid(c.now()) {
			return e.value, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[cacheKey] = entry{value: value, fetchedAt: c.now(), ttl: ttl}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
