// Package ratelimit throttles outgoing provider requests.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a provider name for logging.
// A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// New creates a new rate limiter with the given requests per second.
// The burst size equals the rate, allowing short bursts up to the rate limit.
// A non-positive rate returns nil, which disables limiting.
func New(name string, requestsPerSecond int) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return NewWithBurst(name, requestsPerSecond, requestsPerSecond)
}

// NewWithBurst creates a new rate limiter with custom burst size.
func NewWithBurst(name string, requestsPerSecond, burst int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled or its deadline would pass
// before a token is available; the latter wraps context.DeadlineExceeded.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		// rate.Limiter refuses early when the wait would outlive the deadline.
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			return fmt.Errorf("rate limit wait for %s: %w", l.name, context.DeadlineExceeded)
		}
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		slog.Debug("Rate limited", "provider", l.name, "waited", waited)
	}
	return nil
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}
