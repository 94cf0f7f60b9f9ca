package catalog

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outbound catalog fetches. Sheet export endpoints
// throttle hard, so each caller reserves the next free slot under the lock
// and then waits for it without holding anything, honoring cancellation.
type RateLimiter struct {
	mu       sync.Mutex
	nextSlot time.Time
	interval time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// Wait blocks until the caller's reserved slot arrives or ctx is done. The
// slot stays consumed either way; an abandoned wait must not speed up the
// next caller.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	slot := time.Now()
	if r.nextSlot.After(slot) {
		slot = r.nextSlot
	}
	r.nextSlot = slot.Add(r.interval)
	r.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
