// Package ratelimit enforces per-client request budgets for API routes.
package ratelimit

import (
	"context"
	"time"
)

// Policy allows Requests per Window for each key.
type Policy struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key fits within policy.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Result, error)
}
