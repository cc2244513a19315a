package growthbook

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheInsertionOrder(t *testing.T) {
	c := newMemoryCache()
	c.Initialize(context.Background())

	keys := []RepositoryKey{"a", "b", "c"}
	for _, k := range keys {
		c.Set(k, &CacheEntry{Version: string(k)})
	}
	// Re-setting an existing key must not move it in iteration order.
	c.Set("b", &CacheEntry{Version: "b2"})

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range keys {
		if entries[i].Key != want {
			t.Errorf("entries[%d].Key = %q, want %q", i, entries[i].Key, want)
		}
	}
	if entries[1].Entry.Version != "b2" {
		t.Errorf("entries[1].Entry.Version = %q, want %q", entries[1].Entry.Version, "b2")
	}
}

func TestMemoryCacheGetMissing(t *testing.T) {
	c := newMemoryCache()
	if got := c.Get("missing"); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := newMemoryCache()
	c.Set("a", &CacheEntry{})
	c.Clear()
	if len(c.Entries()) != 0 {
		t.Errorf("expected empty cache after Clear")
	}
}

func TestCacheEntryStale(t *testing.T) {
	now := time.Now()
	entry := &CacheEntry{StaleAt: now.Add(-time.Second)}
	if !entry.stale(now) {
		t.Errorf("expected entry to be stale")
	}
	fresh := &CacheEntry{StaleAt: now.Add(time.Minute)}
	if fresh.stale(now) {
		t.Errorf("expected entry to be fresh")
	}
}

func TestSetCacheTearsDownExisting(t *testing.T) {
	defer SetCache(nil)

	cache.Set("leftover", &CacheEntry{})
	subs.subscribe("leftover", &fakeInstance{})

	SetCache(newMemoryCache())

	if got := cache.Get("leftover"); got != nil {
		t.Errorf("expected SetCache to clear prior cache contents")
	}
	if got := subs.subscribers("leftover"); len(got) != 0 {
		t.Errorf("expected SetCache to clear prior subscriptions, got %d", len(got))
	}
}
