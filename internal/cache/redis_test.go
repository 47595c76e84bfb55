package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/signal-club/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	err := cache.Set(ctx, "user:1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	err := cache.Set(ctx, "key", "value", time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate(ctx, "key")
	require.NoError(t, err)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	err := cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestInitServerUnavailable(t *testing.T) {
	cfg := config.RedisConnection{AddressRedis: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}
	_, err := InitServer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestCooldownStore(t *testing.T) {
	cache, mr := setupTestCache(t)
	store := NewCooldownStore(cache)
	ctx := context.Background()

	_, ok, err := store.Last(ctx, "premium:BTC/USDT")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 1, 1, 12, 0, 0, 123, time.UTC)
	require.NoError(t, store.Put(ctx, "premium:BTC/USDT", at, time.Hour))

	got, ok, err := store.Last(ctx, "premium:BTC/USDT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = store.Last(ctx, "premium:BTC/USDT")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeenSet(t *testing.T) {
	cache, mr := setupTestCache(t)
	seen := NewSeenSet(cache, time.Hour)
	ctx := context.Background()

	first, err := seen.MarkSeen(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := seen.MarkSeen(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := seen.MarkSeen(ctx, "https://example.com/b")
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(2 * time.Hour)
	expired, err := seen.MarkSeen(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestSeenSet_Forget(t *testing.T) {
	cache, _ := setupTestCache(t)
	seen := NewSeenSet(cache, time.Hour)
	ctx := context.Background()

	_, err := seen.MarkSeen(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NoError(t, seen.Forget(ctx, "https://example.com/a"))

	fresh, err := seen.MarkSeen(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.True(t, fresh)
}
