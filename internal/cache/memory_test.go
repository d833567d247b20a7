package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/internal/cache"
)

type cachedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	store := cache.NewMemoryStore()
	t.Cleanup(store.Close)

	t.Run("Miss", func(t *testing.T) {
		var out map[string]cachedItem
		found, err := store.Get(ctx, "missing", &out)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, out)
	})

	t.Run("Hit", func(t *testing.T) {
		in := map[string]cachedItem{"a": {ID: "a", Title: "A"}}
		require.NoError(t, store.Set(ctx, "items", in, time.Hour))

		var out map[string]cachedItem
		found, err := store.Get(ctx, "items", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, out)
	})

	t.Run("Expired", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "short", "value", 20*time.Millisecond))

		var out string
		found, err := store.Get(ctx, "short", &out)
		require.NoError(t, err)
		assert.True(t, found)

		time.Sleep(40 * time.Millisecond)

		found, err = store.Get(ctx, "short", &out)
		require.NoError(t, err)
		assert.False(t, found, "entry should expire at its ttl")
	})

	t.Run("HitDoesNotExtendTTL", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "untouched", "value", 50*time.Millisecond))

		var out string
		for range 3 {
			time.Sleep(25 * time.Millisecond)
			_, err := store.Get(ctx, "untouched", &out)
			require.NoError(t, err)
		}

		found, err := store.Get(ctx, "untouched", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("NoTTL", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "forever", "value", 0))

		time.Sleep(10 * time.Millisecond)

		var out string
		found, err := store.Get(ctx, "forever", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "value", out)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "one", 1, time.Hour))
		require.NoError(t, store.Set(ctx, "two", 2, time.Hour))
		require.NoError(t, store.Set(ctx, "three", 3, time.Hour))

		require.NoError(t, store.Delete(ctx, "one", "two"))

		var out int
		found, err := store.Get(ctx, "one", &out)
		require.NoError(t, err)
		assert.False(t, found)

		found, err = store.Get(ctx, "three", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 3, out)
	})

	t.Run("Unencodable", func(t *testing.T) {
		err := store.Set(ctx, "bad", make(chan int), time.Hour)
		require.ErrorIs(t, err, cache.ErrEncode)
	})
}

func TestMemoryStoreEvictsUnreadEntries(t *testing.T) {
	ctx := context.Background()

	store := cache.NewMemoryStore()
	t.Cleanup(store.Close)

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, store.Set(ctx, key, key, 10*time.Millisecond))
	}
	require.Zero(t, store.Evictions())

	assert.Eventually(t, func() bool {
		return store.Evictions() == 3
	}, time.Second, 5*time.Millisecond)
}
