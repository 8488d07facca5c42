package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
)

// fixedWindowScript counts hits in the current window and reports its remaining TTL.
var fixedWindowScript = rueidis.NewLuaScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {current, ttl}
`)

// RedisLimiter shares fixed-window counters between replicas through Redis.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
}

// NewRedisLimiter creates a limiter storing counters under prefix.
func NewRedisLimiter(client rueidis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow counts the request in the current window for key and denies it once
// the count exceeds policy.Requests.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy) (Result, error) {
	windowMs := policy.Window.Milliseconds()
	redisKey := fmt.Sprintf("%s:%s:%d:%d", l.prefix, key, policy.Requests, windowMs)

	values, err := fixedWindowScript.Exec(ctx, l.client,
		[]string{redisKey},
		[]string{strconv.FormatInt(windowMs, 10)},
	).ToArray()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply length %d", len(values))
	}

	count, err := values[0].AsInt64()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit count: %w", err)
	}
	ttlMs, err := values[1].AsInt64()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit ttl: %w", err)
	}

	if count > int64(policy.Requests) {
		retry := time.Duration(ttlMs) * time.Millisecond
		if retry <= 0 {
			retry = policy.Window
		}
		return Result{Allowed: false, RetryAfter: retry}, nil
	}

	return Result{Allowed: true}, nil
}
