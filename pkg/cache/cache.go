// Package cache is a small Redis-backed JSON cache used for lookups the
// storefront hits on every request: site settings, SEO overrides, and
// redirect resolutions. Values are marshaled to JSON, expire by TTL, and
// are invalidated by key or by glob pattern when the underlying document
// changes. Callers treat the cache as best-effort and fall back to the
// store on any failure.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache wraps a Redis client with JSON serialization.
type Cache struct {
	client *redis.Client
}

// NewCache creates a cache on top of an already-connected Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client: client,
	}
}

// Get retrieves a value and unmarshals it into target, which must be a
// pointer. Returns ErrCacheMiss when the key is absent or expired.
//
//	var settings models.Settings
//	err := c.Get(ctx, cache.SettingsKey(), &settings)
//	if errors.Is(err, cache.ErrCacheMiss) {
//	    // load from the store
//	}
func (c *Cache) Get(ctx context.Context, key string, target interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to get from cache")
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal cached data")
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value as JSON with the given TTL.
//
//	c.Set(ctx, cache.SEOKey(entry.Route), entry, ttl)
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal data for cache")
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to set cache")
		return fmt.Errorf("cache set error: %w", err)
	}

	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached data")
	return nil
}

// Delete removes one or more keys. Used when a single cached document is
// rewritten, e.g. the settings document after a save.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("Failed to delete from cache")
		return fmt.Errorf("cache delete error: %w", err)
	}

	log.Debug().Strs("keys", keys).Msg("Deleted from cache")
	return nil
}

// DeletePattern removes every key matching a Redis glob pattern,
// iterating with SCAN rather than KEYS. Redirect and SEO writes use this
// to drop the whole family of cached lookups at once:
//
//	c.DeletePattern(ctx, cache.RedirectAllPattern())
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	var deletedCount int

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Error().Err(err).Str("pattern", pattern).Msg("Failed to scan cache keys")
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Error().Err(err).Str("pattern", pattern).Msg("Failed to delete keys")
				return fmt.Errorf("cache delete error: %w", err)
			}
			deletedCount += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	log.Debug().Str("pattern", pattern).Int("count", deletedCount).Msg("Deleted keys by pattern")
	return nil
}
