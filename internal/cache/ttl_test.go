package cache

import (
	"testing"
	"time"
)

func TestTTLCacheExpiresWithClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(time.Minute).WithClock(func() time.Time { return now })

	cache.Set("key", "value")
	if got, ok := cache.Get("key"); !ok || got != "value" {
		t.Fatalf("expected fresh entry, got %v %v", got, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("key"); !ok {
		t.Fatalf("expected entry inside ttl window")
	}

	now = now.Add(2 * time.Second)
	if _, ok := cache.Get("key"); ok {
		t.Fatalf("expected entry expired")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry removed, len %d", cache.Len())
	}
}

func TestTTLCacheSetRefreshesExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTLCache(time.Minute).WithClock(func() time.Time { return now })

	cache.Set("key", 1)
	now = now.Add(50 * time.Second)
	cache.Set("key", 2)
	now = now.Add(50 * time.Second)

	got, ok := cache.Get("key")
	if !ok {
		t.Fatalf("expected refreshed entry to survive")
	}
	if got != 2 {
		t.Fatalf("expected updated value, got %v", got)
	}
}

func TestTTLCacheFlushAndDelete(t *testing.T) {
	cache := NewTTLCache(time.Minute)
	cache.Set("a", 1)
	cache.Set("b", 2)

	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", cache.Len())
	}

	cache.Flush()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after flush, got %d", cache.Len())
	}
}
