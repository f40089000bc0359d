package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, store.entries)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceNilRepositoryDisables(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil, true)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Invalidate(context.Background(), "k"))
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out map[string]string
	hit, err := svc.Get(ctx, "profile", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "profile", map[string]string{"name": "Ana"}, 0))
	hit, err = svc.Get(ctx, "profile", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Ana", out["name"])

	require.NoError(t, svc.Invalidate(ctx, "profile"))
	hit, err = svc.Get(ctx, "profile", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")), 0)
}
