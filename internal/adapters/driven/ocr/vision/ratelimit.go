package vision

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is used after a 429 response without a Retry-After header.
const DefaultBackoff = 30 * time.Second

// RateLimiter throttles API requests with a token bucket and honours
// backoff periods reported by 429 responses.
type RateLimiter struct {
	mu             sync.Mutex
	limiter        *rate.Limiter
	retryAt        time.Time
	defaultBackoff time.Duration
}

// NewRateLimiter creates a limiter. A non-positive rate disables throttling.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		burst = max(1, int(requestsPerSecond))
	}
	return &RateLimiter{
		limiter:        rate.NewLimiter(limit, burst),
		defaultBackoff: DefaultBackoff,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimited.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimited sets a backoff period after a 429 response.
// A non-positive retryAfter uses the default backoff.
func (r *RateLimiter) RecordRateLimited(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = r.defaultBackoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow reports whether a request can be made immediately.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
