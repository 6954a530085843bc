package inmem

import (
	"math"
	"sync"
	"time"

	"classroom/internal/classroom"
)

// RateLimiter implements a fixed-window request counter with a separate
// window per key. The counter for a key clears when its window elapses,
// independent of request activity.
type RateLimiter struct {
	limit  int           // requests permitted per window
	window time.Duration // window length
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*countWindow
}

type countWindow struct {
	count int
	start time.Time
}

// NewRateLimiter creates a fixed-window rate limiter allowing limit requests
// per window for each key. The clock is injectable for deterministic testing.
func NewRateLimiter(limit int, window time.Duration, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     clock,
		windows: make(map[string]*countWindow),
	}
}

// Allow counts a request against key's active window and reports whether it
// is within the limit.
func (rl *RateLimiter) Allow(key string) classroom.RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, exists := rl.windows[key]
	if !exists || now.Sub(w.start) >= rl.window {
		w = &countWindow{start: now}
		rl.windows[key] = w
	}
	w.count++

	remaining := rl.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	reset := int(math.Ceil(w.start.Add(rl.window).Sub(now).Seconds()))
	if reset < 1 {
		reset = 1
	}

	return classroom.RateLimitResult{
		Allowed:    w.count <= rl.limit,
		Limit:      rl.limit,
		Remaining:  remaining,
		ResetAfter: reset,
	}
}

// Cleanup removes windows that elapsed and saw no further requests.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
}

// WindowCount returns the number of active windows (for testing).
func (rl *RateLimiter) WindowCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
