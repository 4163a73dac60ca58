package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests to a single API
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a new rate limiter with the specified rate (requests per second).
// The burst equals the rate rounded up, so a short command never waits on its
// first few calls.
func New(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1.0
	}
	burst := int(rps)
	if float64(burst) < rps {
		burst++
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
