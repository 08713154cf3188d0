package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int `json:"x"`
}

func newTestCache(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Unix(1_700_000_000, 0)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t)

	require.NoError(t, mc.Set(ctx, "p", point{X: 7}, time.Minute))
	var got point
	require.NoError(t, mc.Get(ctx, "p", &got))
	assert.Equal(t, 7, got.X)

	*now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, mc.Get(ctx, "p", &got), ErrCacheMiss)
}

func TestMemoryCacheStrings(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestCache(t)
	require.NoError(t, mc.Set(ctx, "s", "raw", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "raw", s)
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	ctx := context.Background()
	mc, now := newTestCache(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, 0))
	*now = now.Add(time.Second)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	*now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	ok, _ := mc.Exists(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	ok, _ = mc.Exists(ctx, "a", "c")
	assert.True(t, ok)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestCache(t)
	for _, k := range []string{"price:AAPL:6", "price:AAPL:12", "price:MSFT:6"} {
		require.NoError(t, mc.Set(ctx, k, 1, 0))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, "price:AAPL:*"))

	ok, _ := mc.Exists(ctx, "price:AAPL:6", "price:AAPL:12")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "price:MSFT:6")
	assert.True(t, ok)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "price:AAPL:6", GenerateKeyWithParams("price", "AAPL", 6))
	assert.Equal(t, "price:*", BuildPattern("price:"))
}
