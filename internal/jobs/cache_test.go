package jobs

import (
	"context"
	"testing"
	"time"

	"dreamforge/internal/config"
	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, maxEntries int) *Cache {
	t.Helper()
	c := NewCache(config.JobCacheConfig{Enabled: true, TTL: time.Minute, MaxEntries: maxEntries}, testLogger)
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	postings := []types.JobPosting{{ID: "1", Title: "Go Developer", Source: FeedAdzuna}}
	c.Set(ctx, "k", postings)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, postings, got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 10)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, "k", []types.JobPosting{{ID: "1"}})

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 2)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, "oldest", []types.JobPosting{{ID: "1"}})
	c.now = func() time.Time { return now.Add(time.Second) }
	c.Set(ctx, "middle", []types.JobPosting{{ID: "2"}})
	c.now = func() time.Time { return now.Add(2 * time.Second) }
	c.Set(ctx, "newest", []types.JobPosting{{ID: "3"}})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "oldest")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "newest")
	assert.True(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(config.JobCacheConfig{Enabled: false, TTL: time.Minute}, testLogger)
	assert.Nil(t, c)

	// a nil cache is usable
	c.Set(context.Background(), "k", []types.JobPosting{{ID: "1"}})
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
	assert.NoError(t, c.Close())
}

func TestCacheUnreachableRedisFallsBackToMemory(t *testing.T) {
	c := NewCache(config.JobCacheConfig{
		Enabled:  true,
		TTL:      time.Minute,
		RedisURL: "redis://127.0.0.1:1/0",
	}, testLogger)
	require.NotNil(t, c)
	defer func() { _ = c.Close() }()

	assert.Nil(t, c.rdb)
	c.Set(context.Background(), "k", []types.JobPosting{{ID: "1"}})
	_, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("Go", "India", "30"), CacheKey("go", "india", "30"))
	assert.NotEqual(t, CacheKey("Go", "India"), CacheKey("Go", "Pune"))
	assert.Contains(t, CacheKey("x"), "df:jobs:")
}
