package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := CacheKey("https://example.org/documents/season-2024")
	if _, found := c.Get(key); found {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(key, []byte("<html>listing</html>"), time.Minute)
	val, found := c.Get(key)
	if !found || string(val) != "<html>listing</html>" {
		t.Errorf("Get = %q, %v", val, found)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := CacheKey("https://example.org/listing")
	c.Set(key, []byte("body"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("entry survived its TTL")
	}
}

func TestCacheKey_Stable(t *testing.T) {
	a := CacheKey("https://example.org/a")
	b := CacheKey("https://example.org/a")
	if a != b {
		t.Error("same URL produced different keys")
	}
	if a == CacheKey("https://example.org/b") {
		t.Error("different URLs produced the same key")
	}
}
