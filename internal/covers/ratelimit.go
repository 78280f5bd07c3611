package covers

import (
	"context"
	"sync"
	"time"
)

// rateLimiter spaces out consecutive calls by at least interval.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastCall.IsZero() {
		if since := time.Since(r.lastCall); since < r.interval {
			timer := time.NewTimer(r.interval - since)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	r.lastCall = time.Now()
	return nil
}
