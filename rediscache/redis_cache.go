// Package rediscache provides a Redis-backed implementation of
// growthbook.Cache, for processes that want the shared feature cache to
// survive restarts or to be shared across processes, in place of the
// package's default in-memory map.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ate-darren/growthbook"
)

// Cache stores every CacheEntry as a Redis hash field, and keeps a
// separate Redis list of keys to preserve the insertion order
// growthbook.Cache.Entries requires for deterministic persistence and
// subscriber fan-out, grounded on the teacher's demo Redis cache and
// generalized into a full growthbook.Cache implementation.
type Cache struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// New returns a Cache backed by client, namespacing its two Redis keys
// under prefix (e.g. "growthbook") so multiple caches can share one Redis
// instance.
func New(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "growthbook"
	}
	return &Cache{
		client:   client,
		hashKey:  prefix + ":entries",
		orderKey: prefix + ":order",
	}
}

// Initialize is a no-op: Redis is already the source of truth, so there is
// nothing to hydrate from a separate PersistentStore. Deliberately does
// NOT implement growthbook's loadableCache hook for the same reason.
func (c *Cache) Initialize(ctx context.Context) {}

func (c *Cache) Clear() {
	ctx := context.Background()
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.hashKey)
	pipe.Del(ctx, c.orderKey)
	if _, err := pipe.Exec(ctx); err != nil {
		// Best-effort: a failed clear leaves stale entries that the next
		// Set/Get still reads correctly under their own keys.
		return
	}
}

func (c *Cache) Get(key growthbook.RepositoryKey) *growthbook.CacheEntry {
	ctx := context.Background()
	raw, err := c.client.HGet(ctx, c.hashKey, string(key)).Result()
	if err != nil {
		return nil
	}
	entry := &growthbook.CacheEntry{}
	if err := json.Unmarshal([]byte(raw), entry); err != nil {
		return nil
	}
	return entry
}

func (c *Cache) Set(key growthbook.RepositoryKey, entry *growthbook.CacheEntry) {
	ctx := context.Background()
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	pipe := c.client.TxPipeline()
	isNew := pipe.HSetNX(ctx, c.hashKey, string(key), "")
	pipe.HSet(ctx, c.hashKey, string(key), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return
	}
	if isNew.Val() {
		c.client.RPush(ctx, c.orderKey, string(key))
	}
}

func (c *Cache) Entries() []growthbook.CacheRecord {
	ctx := context.Background()
	keys, err := c.client.LRange(ctx, c.orderKey, 0, -1).Result()
	if err != nil {
		return nil
	}

	records := make([]growthbook.CacheRecord, 0, len(keys))
	for _, k := range keys {
		raw, err := c.client.HGet(ctx, c.hashKey, k).Result()
		if err != nil {
			continue
		}
		entry := &growthbook.CacheEntry{}
		if err := json.Unmarshal([]byte(raw), entry); err != nil {
			continue
		}
		records = append(records, growthbook.CacheRecord{Key: growthbook.RepositoryKey(k), Entry: entry})
	}
	return records
}

// Dial is a small convenience constructor matching the teacher's demo
// wiring: dial Redis at addr and wrap it as a Cache.
func Dial(addr, prefix string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("rediscache: connecting to redis at %s: %w", addr, err)
	}
	return New(client, prefix), nil
}
