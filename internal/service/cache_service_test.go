package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := newFakeCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest []string
	hit, err := cache.Get(ctx, "slots:a", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "slots:a", []string{"x"}, 0))
	hit, err = cache.Get(ctx, "slots:a", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"x"}, dest)

	require.NoError(t, cache.Invalidate(ctx, "slots:*"))
	hit, _ = cache.Get(ctx, "slots:a", &dest)
	assert.False(t, hit)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cacheMisses))
}

func TestDisabledCacheServiceNeverHits(t *testing.T) {
	repo := newFakeCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	var dest string
	hit, err := cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, repo.gets)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
}
