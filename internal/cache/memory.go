package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process TTL cache for listing bodies. Entries expire
// on their own; nothing ever deletes them explicitly.
type MemoryCache struct {
	entries *gocache.Cache
}

// NewMemoryCache returns a cache whose expired entries are swept every
// cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{entries: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the cached body for key, if present and unexpired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Set stores body under key until ttl elapses.
func (c *MemoryCache) Set(key string, body []byte, ttl time.Duration) {
	c.entries.Set(key, body, ttl)
}
