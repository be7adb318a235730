package forecast

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// resultCache memoizes forecast results per option set. Each entry carries
// its own expiry because the TTL is a per-request parameter.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry)}
}

func (c *resultCache) get(key string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *resultCache) put(key string, value any, ttl time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{value: value, expires: now.Add(ttl)}
}

// Invalidate drops every cached result. Importers call it after writing new data.
func (f *Forecaster) Invalidate() {
	f.cache.mu.Lock()
	defer f.cache.mu.Unlock()
	f.cache.entries = make(map[string]cacheEntry)
}
