// Package ratelimit implements a token bucket limiter bounding calls
// to the extraction service.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/webharvest/harvester/internal/metrics"
)

// Limiter applies a requests-per-minute budget to outbound service
// calls. All callers share one bucket since there is a single upstream
// service.
type Limiter struct {
	limiter *rate.Limiter
}

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
}

// New creates a new Limiter. A non-positive budget disables limiting.
func New(cfg Config) *Limiter {
	r := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	if cfg.RequestsPerMinute <= 0 {
		r = rate.Inf
	}
	return &Limiter{limiter: rate.NewLimiter(r, 1)}
}

// Wait blocks until a token is available, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(waited)
	}
	return nil
}
