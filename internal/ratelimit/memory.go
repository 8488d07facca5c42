package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepEvery = 1024

// MemoryLimiter keeps a token bucket per key in process memory.
// Budgets are not shared between replicas.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	calls   int
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

// Allow takes one token from the bucket for key, creating a full bucket on first use.
func (m *MemoryLimiter) Allow(_ context.Context, key string, policy Policy) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls%sweepEvery == 0 {
		m.sweep(now)
	}

	bucketKey := fmt.Sprintf("%s|%d|%s", key, policy.Requests, policy.Window)
	lim, ok := m.buckets[bucketKey]
	if !ok {
		lim = rate.NewLimiter(rate.Every(policy.Window/time.Duration(policy.Requests)), policy.Requests)
		m.buckets[bucketKey] = lim
	}

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Result{Allowed: false, RetryAfter: delay}, nil
	}

	return Result{Allowed: true}, nil
}

// sweep drops buckets that have refilled completely; they behave like new ones.
func (m *MemoryLimiter) sweep(now time.Time) {
	for k, lim := range m.buckets {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(m.buckets, k)
		}
	}
}
