package growthbook

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore { return &memoryStore{data: make(map[string]string)} }

func (s *memoryStore) GetItem(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[name], nil
}

func (s *memoryStore) SetItem(ctx context.Context, name string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = value
	return nil
}

func resetPersistenceState(t *testing.T) {
	t.Helper()
	prevEnv := env
	prevCache := cache
	t.Cleanup(func() {
		env = prevEnv
		cache = prevCache
		resetHydrationFlag()
	})
	cache = newMemoryCache()
	resetHydrationFlag()
}

func TestPersistedPairRoundTrip(t *testing.T) {
	entry := &CacheEntry{Version: "v1", StaleAt: time.Now().Truncate(time.Second)}
	pair := persistedPair{Key: "k1", Entry: entry}

	data, err := pair.MarshalJSON()
	require.NoError(t, err)

	var decoded persistedPair
	require.NoError(t, decoded.UnmarshalJSON(data))
	require.Equal(t, pair.Key, decoded.Key)
	require.Equal(t, pair.Entry.Version, decoded.Entry.Version)
}

func TestEnsureHydratedLoadsFromStore(t *testing.T) {
	resetPersistenceState(t)

	store := newMemoryStore()
	env = defaultEnvironment()
	env.store = store

	pairs := []persistedPair{{Key: "k1", Entry: &CacheEntry{Version: "v1"}}}
	data, err := persistedPairsToJSON(pairs)
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	store.data[settingsSnapshot().cacheKeyName] = data

	ensureHydrated(context.Background())

	if got := cache.Get("k1"); got == nil || got.Version != "v1" {
		t.Errorf("expected hydrated entry for k1, got %v", got)
	}
}

func TestEnsureHydratedOnlyRunsOnce(t *testing.T) {
	resetPersistenceState(t)

	store := newMemoryStore()
	env = defaultEnvironment()
	env.store = store
	store.data[settingsSnapshot().cacheKeyName] = "[]"

	ensureHydrated(context.Background())
	cache.Set("added-after-hydration", &CacheEntry{Version: "v1"})

	ensureHydrated(context.Background())

	if got := cache.Get("added-after-hydration"); got == nil {
		t.Errorf("expected second ensureHydrated call to be a no-op")
	}
}

func TestPersistCacheWritesToStore(t *testing.T) {
	resetPersistenceState(t)

	store := newMemoryStore()
	env = defaultEnvironment()
	env.store = store

	cache.Set("k1", &CacheEntry{Version: "v1"})
	persistCache()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		_, ok := store.data[settingsSnapshot().cacheKeyName]
		store.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Errorf("expected persistCache to write to the store within the deadline")
}

func persistedPairsToJSON(pairs []persistedPair) (string, error) {
	out := "["
	for i, p := range pairs {
		if i > 0 {
			out += ","
		}
		data, err := p.MarshalJSON()
		if err != nil {
			return "", err
		}
		out += string(data)
	}
	return out + "]", nil
}
