package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "rate:t1:USD:EUR:2024-01-01", `{"rate":"0.92"}`, time.Minute))

	value, found, err := c.Get(ctx, "rate:t1:USD:EUR:2024-01-01")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"rate":"0.92"}`, value)

	_, found, err = c.Get(ctx, "rate:t1:USD:GBP:2024-01-01")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found, "zero TTL entries never expire")
}

func TestMemoryCacheInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "rate:t1:USD:EUR:2024-01-01", "a", 0))
	require.NoError(t, c.Set(ctx, "rate:t1:EUR:USD:2024-01-01", "b", 0))
	require.NoError(t, c.Set(ctx, "rate:t2:USD:EUR:2024-01-01", "c", 0))

	require.NoError(t, c.InvalidatePattern(ctx, "rate:t1:*"))

	_, found, _ := c.Get(ctx, "rate:t1:USD:EUR:2024-01-01")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "rate:t1:EUR:USD:2024-01-01")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "rate:t2:USD:EUR:2024-01-01")
	assert.True(t, found, "other tenants' entries survive invalidation")
}

func TestMemoryCacheStats(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	hits, misses := c.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, c.Count())
}
