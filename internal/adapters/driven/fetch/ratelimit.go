package fetch

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// RateLimiter combines a proactive token bucket with the server's
// Retry-After hints.
type RateLimiter struct {
	mu        sync.Mutex
	notBefore time.Time     // From Retry-After
	bucket    *rate.Limiter // Proactive throttling
}

// NewRateLimiter allows perSecond requests with a burst of one. A
// non-positive rate disables the bucket.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until it is safe to send a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	notBefore := r.notBefore
	r.mu.Unlock()

	if d := time.Until(notBefore); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// Defer pushes the next permitted request to at least now+d.
func (r *RateLimiter) Defer(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := time.Now().Add(d); until.After(r.notBefore) {
		r.notBefore = until
	}
}

// RetryAfter parses a Retry-After header. It returns zero when the header
// is absent or malformed.
func RetryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(v); err == nil && when.After(now) {
		return when.Sub(now)
	}
	return 0
}
