package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) rueidis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		t.Skipf("skipping Redis tests: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

func TestRedisLimiter_Allow(t *testing.T) {
	client := newTestRedis(t)
	lim := NewRedisLimiter(client, "test:"+uuid.NewString())

	ctx := context.Background()
	policy := Policy{Requests: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		res, err := lim.Allow(ctx, "list_events:1.2.3.4", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := lim.Allow(ctx, "list_events:1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	res, err = lim.Allow(ctx, "list_events:5.6.7.8", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
