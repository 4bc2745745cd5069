// Package cache keeps fetched listing pages for a short TTL so back-to-back
// batch triggers do not refetch the regulator site.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the read/write surface the fetcher needs for listing bodies.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte, ttl time.Duration)
}

// CacheKey derives a stable key from a listing URL.
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "stewarding:v1:" + hex.EncodeToString(sum[:])
}
