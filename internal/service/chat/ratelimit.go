package chat

import (
	"context"
	"log"
	"sync"
	"time"
)

// RateLimiter counts chat messages per peer address. The whole counter map
// is cleared in bulk on a fixed interval; between resets counters only move
// forward. This is a window budget, not a sliding per-minute cap.
type RateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRateLimiter returns a limiter with an empty counter map.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{counts: make(map[string]int)}
}

// Touch increments the counter for addr and returns the new value.
func (r *RateLimiter) Touch(addr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[addr]++
	return r.counts[addr]
}

// Reset clears every counter.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
}

// Run clears the counters every interval until the context is cancelled.
func (r *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("[chat] rate limiter reset")
			r.Reset()
		}
	}
}
