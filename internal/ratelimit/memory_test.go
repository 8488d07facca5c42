package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	ctx := context.Background()
	policy := Policy{Requests: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		res, err := lim.Allow(ctx, "create_event:10.0.0.1", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}

	res, err := lim.Allow(ctx, "create_event:10.0.0.1", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, float64(30*time.Second), float64(res.RetryAfter), float64(time.Millisecond))

	res, err = lim.Allow(ctx, "create_event:10.0.0.2", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other clients keep their own budget")

	now = now.Add(31 * time.Second)
	res, err = lim.Allow(ctx, "create_event:10.0.0.1", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "budget refills over time")
}

func TestMemoryLimiter_SweepDropsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lim := NewMemoryLimiter()
	lim.now = func() time.Time { return now }

	_, err := lim.Allow(context.Background(), "k", Policy{Requests: 1, Window: time.Second})
	require.NoError(t, err)
	require.Len(t, lim.buckets, 1)

	lim.sweep(now.Add(time.Minute))
	assert.Empty(t, lim.buckets)
}
