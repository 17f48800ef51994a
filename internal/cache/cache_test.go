package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counter(val *string, calls *int) func() ([]byte, error) {
	return func() ([]byte, error) {
		*calls++
		return []byte(*val), nil
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2022, 7, 23, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache().WithClock(clock.now)
	ctx := context.Background()
	ttl := 20 * time.Second

	content, calls := "first", 0
	v, err := c.GetOrCompute(ctx, "index", ttl, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "first", string(v))

	content = "second"
	clock.advance(19 * time.Second)
	v, err = c.GetOrCompute(ctx, "index", ttl, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "first", string(v))
	assert.Equal(t, 1, calls)

	clock.advance(time.Second)
	v, err = c.GetOrCompute(ctx, "index", ttl, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "second", string(v))
	assert.Equal(t, 2, calls)
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	content, calls := "a", 0
	for _, key := range []string{"index?page=1", "index?page=2"} {
		_, err := c.GetOrCompute(ctx, key, time.Minute, counter(&content, &calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.InvalidateAll(ctx))
	assert.Zero(t, c.Len())

	content = "b"
	v, err := c.GetOrCompute(ctx, "index?page=1", time.Minute, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
	assert.Equal(t, 3, calls)
}

func TestMemoryCacheDropsExpiredEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2022, 7, 23, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache().WithClock(clock.now)
	ctx := context.Background()
	ttl := 20 * time.Second

	content, calls := "page", 0
	for _, key := range []string{"a", "b", "c"} {
		_, err := c.GetOrCompute(ctx, key, ttl, counter(&content, &calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Len())

	clock.advance(ttl)
	_, err := c.GetOrCompute(ctx, "d", ttl, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheDoesNotStoreErrors(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.GetOrCompute(ctx, "k", time.Minute, func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr, "blogtest:"+time.Now().Format("150405.000000")+":")
	require.NoError(t, err)
	defer c.Close()
	defer c.InvalidateAll(ctx)

	content, calls := "cached", 0
	v, err := c.GetOrCompute(ctx, "index", time.Minute, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "cached", string(v))

	content = "fresh"
	v, err = c.GetOrCompute(ctx, "index", time.Minute, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "cached", string(v))
	assert.Equal(t, 1, calls)

	require.NoError(t, c.InvalidateAll(ctx))
	v, err = c.GetOrCompute(ctx, "index", time.Minute, counter(&content, &calls))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(v))
	assert.Equal(t, 2, calls)
}
