package growthbook

import (
	"context"
	"sync"
	"time"
)

// CacheEntry is the cached state for one RepositoryKey (spec §3).
type CacheEntry struct {
	Data    *Payload  `json:"data"`
	Version string    `json:"version"`
	StaleAt time.Time `json:"staleAt"`
	SSE     bool      `json:"sse"`
}

func (e *CacheEntry) stale(now time.Time) bool {
	return now.After(e.StaleAt)
}

// CacheRecord is one [key, entry] pair, as persisted and hydrated in
// insertion order (spec §6: "a single record ... JSON of [[key, entry], …]
// in insertion order").
type CacheRecord struct {
	Key   RepositoryKey
	Entry *CacheEntry
}

// Cache is the pluggable process-wide cache store (spec §4.B). The default
// implementation is an in-memory map; SetCache can install an
// alternative (e.g. the Redis-backed implementation in the rediscache
// subpackage) that mirrors entries to a shared external store.
type Cache interface {
	// Initialize is called lazily, at most meaningfully once, before the
	// first lookup in a process — implementations that hydrate from
	// external storage should do it here and be idempotent.
	Initialize(ctx context.Context)
	// Clear drops every entry.
	Clear()
	// Get returns the entry for key, or nil if absent.
	Get(key RepositoryKey) *CacheEntry
	// Set installs or replaces the entry for key, preserving key order on
	// update and appending on insert.
	Set(key RepositoryKey, entry *CacheEntry)
	// Entries returns every [key, entry] pair in insertion order.
	Entries() []CacheRecord
}

// memoryCache is the default in-memory Cache, grounded on the teacher's
// repoCache (repository.go) but generalized to preserve insertion order, as
// spec §3 requires for deterministic iteration and persistence.
type memoryCache struct {
	mu    sync.RWMutex
	order []RepositoryKey
	data  map[RepositoryKey]*CacheEntry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[RepositoryKey]*CacheEntry)}
}

func (c *memoryCache) Initialize(ctx context.Context) {}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.data = make(map[RepositoryKey]*CacheEntry)
}

func (c *memoryCache) Get(key RepositoryKey) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

func (c *memoryCache) Set(key RepositoryKey, entry *CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; !exists {
		c.order = append(c.order, key)
	}
	c.data[key] = entry
}

func (c *memoryCache) Entries() []CacheRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := make([]CacheRecord, 0, len(c.order))
	for _, k := range c.order {
		if e, ok := c.data[k]; ok {
			records = append(records, CacheRecord{Key: k, Entry: e})
		}
	}
	return records
}

// load replaces the cache contents wholesale, preserving the order given —
// used only by the persistence mirror's hydration step.
func (c *memoryCache) load(records []CacheRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = make([]RepositoryKey, 0, len(records))
	c.data = make(map[RepositoryKey]*CacheEntry, len(records))
	for _, r := range records {
		c.order = append(c.order, r.Key)
		c.data[r.Key] = r.Entry
	}
}

var cache Cache = newMemoryCache()

// SetCache installs c as the process-wide Cache backend, in place of the
// default in-memory map — e.g. the Redis-backed implementation in the
// rediscache subpackage. Passing nil restores the default in-memory cache.
// Any existing cached data, streaming channels and subscriptions are torn
// down first, exactly as ClearCache does; a fetch already in flight is left
// running (spec
// §4.B; this operation itself is a growthbook-golang extension beyond spec
// §4.I's configureCache, which is the global-settings merge implemented by
// ConfigureCache in settings.go).
func SetCache(c Cache) {
	ClearCache()
	if c == nil {
		c = newMemoryCache()
	}
	cache = c
}
