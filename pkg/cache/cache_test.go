package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDoc struct {
	Route string `json:"route"`
	Title string `json:"title"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client), mr
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	t.Run("roundtrips a struct through JSON", func(t *testing.T) {
		doc := cachedDoc{Route: "/games", Title: "Games"}
		require.NoError(t, c.Set(ctx, SEOKey("/games"), doc, time.Minute))

		var got cachedDoc
		require.NoError(t, c.Get(ctx, SEOKey("/games"), &got))
		assert.Equal(t, doc, got)
	})

	t.Run("absent key is a miss", func(t *testing.T) {
		var got cachedDoc
		err := c.Get(ctx, SEOKey("/nowhere"), &got)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("expired key is a miss", func(t *testing.T) {
		c, mr := newTestCache(t)
		require.NoError(t, c.Set(ctx, SettingsKey(), cachedDoc{Title: "Site"}, time.Second))

		mr.FastForward(2 * time.Second)

		var got cachedDoc
		err := c.Get(ctx, SettingsKey(), &got)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete removes only the named keys", func(t *testing.T) {
		c, _ := newTestCache(t)
		require.NoError(t, c.Set(ctx, SettingsKey(), cachedDoc{Title: "a"}, time.Minute))
		require.NoError(t, c.Set(ctx, SEOKey("/"), cachedDoc{Title: "b"}, time.Minute))

		require.NoError(t, c.Delete(ctx, SettingsKey()))

		var got cachedDoc
		assert.ErrorIs(t, c.Get(ctx, SettingsKey(), &got), ErrCacheMiss)
		assert.NoError(t, c.Get(ctx, SEOKey("/"), &got))
	})

	t.Run("delete with no keys is a no-op", func(t *testing.T) {
		c, _ := newTestCache(t)
		assert.NoError(t, c.Delete(ctx))
	})

	t.Run("pattern delete sweeps one key family", func(t *testing.T) {
		c, _ := newTestCache(t)
		for _, path := range []string{"/old-catalog", "/promo", "/sale"} {
			require.NoError(t, c.Set(ctx, RedirectKey(path), cachedDoc{Route: path}, time.Minute))
		}
		require.NoError(t, c.Set(ctx, SettingsKey(), cachedDoc{Title: "keep"}, time.Minute))

		require.NoError(t, c.DeletePattern(ctx, RedirectAllPattern()))

		var got cachedDoc
		for _, path := range []string{"/old-catalog", "/promo", "/sale"} {
			assert.ErrorIs(t, c.Get(ctx, RedirectKey(path), &got), ErrCacheMiss)
		}
		assert.NoError(t, c.Get(ctx, SettingsKey(), &got))
	})
}
