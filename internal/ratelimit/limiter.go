// Package ratelimit paces outbound provider calls.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinDelay is the fallback interval between provider calls.
const DefaultMinDelay = time.Second

// Limiter enforces a minimum wall-clock interval between consecutive
// calls. The first call never waits.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with the given minimum inter-call delay.
// Non-positive delays fall back to DefaultMinDelay.
func New(minDelay time.Duration) *Limiter {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	// Burst of 1: one token is available immediately, then tokens refill
	// at one per minDelay.
	return &Limiter{limiter: rate.NewLimiter(rate.Every(minDelay), 1)}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
