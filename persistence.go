package growthbook

import (
	"context"
	"encoding/json"
	"sync"
)

// loadableCache is implemented by Cache backends that want the persistence
// mirror to hydrate them from the PersistentStore at process start. The
// default memoryCache implements it; an externally-backed Cache (e.g. the
// Redis implementation in the rediscache subpackage) usually doesn't, since
// it is already durable on its own and hydration would just race with
// whatever external writers share that store.
type loadableCache interface {
	Load(records []CacheRecord)
}

// Load replaces memoryCache's contents wholesale, preserving key order —
// used only by the persistence mirror's hydration step.
func (c *memoryCache) Load(records []CacheRecord) { c.load(records) }

// persistedPair is the [key, entry] tuple the persistent store record is
// built from (spec §6: "JSON of [[key, entry], …] in insertion order").
type persistedPair struct {
	Key   RepositoryKey
	Entry *CacheEntry
}

func (p persistedPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.Key, p.Entry})
}

func (p *persistedPair) UnmarshalJSON(data []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[0], &p.Key); err != nil {
		return err
	}
	entry := &CacheEntry{}
	if err := json.Unmarshal(tuple[1], entry); err != nil {
		return err
	}
	p.Entry = entry
	return nil
}

var (
	hydrateMu        sync.Mutex
	cacheInitialized bool
)

// ensureHydrated hydrates the cache from the persistent store exactly once
// per process (spec §4.C). Parse failure or an absent store makes hydration
// a no-op; errors are never surfaced (spec §7).
func ensureHydrated(ctx context.Context) {
	hydrateMu.Lock()
	defer hydrateMu.Unlock()

	if cacheInitialized {
		return
	}
	cacheInitialized = true
	cache.Initialize(ctx)

	lc, ok := cache.(loadableCache)
	if !ok || env.store == nil {
		return
	}

	raw, err := env.store.GetItem(ctx, settingsSnapshot().cacheKeyName)
	if err != nil || raw == "" {
		return
	}

	var pairs []persistedPair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		env.logger.Warn("growthbook: ignoring invalid cached feature data", "error", err)
		return
	}

	records := make([]CacheRecord, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, CacheRecord{Key: p.Key, Entry: p.Entry})
	}
	lc.Load(records)
}

// resetHydrationFlag allows the cache to be re-hydrated; only ClearCache
// calls this (spec §8 invariant 5).
func resetHydrationFlag() {
	hydrateMu.Lock()
	defer hydrateMu.Unlock()
	cacheInitialized = false
}

// persistCache serializes the full cache mapping and fire-and-forget writes
// it to the persistent store (spec §4.C: "Writes are fire-and-forget;
// errors swallowed"). Called synchronously so in-memory order is
// preserved, but the write itself is dispatched in a goroutine so it never
// blocks cache mutation.
func persistCache() {
	if env.store == nil {
		return
	}
	records := cache.Entries()
	pairs := make([]persistedPair, 0, len(records))
	for _, r := range records {
		pairs = append(pairs, persistedPair{Key: r.Key, Entry: r.Entry})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		env.logger.Warn("growthbook: failed encoding cache for persistence", "error", err)
		return
	}
	store := env.store
	cacheKeyName := settingsSnapshot().cacheKeyName
	go func() {
		if err := store.SetItem(context.Background(), cacheKeyName, string(data)); err != nil {
			env.logger.Warn("growthbook: failed writing cache to persistent store", "error", err)
		}
	}()
}
