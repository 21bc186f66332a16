package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter keyed by caller. It protects the
// manual job trigger endpoints; sweep and detection runs are expensive
// full-table scans.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]rateWindow),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) > r.window {
		r.prune(now)
		w = rateWindow{start: now}
	}
	if w.count >= r.limit {
		r.windows[key] = w
		return false
	}
	w.count++
	r.windows[key] = w
	return true
}

// prune drops expired windows so the map does not grow with every client IP
// ever seen. Called under mu when a window rolls over.
func (r *rateLimiter) prune(now time.Time) {
	for key, w := range r.windows {
		if now.Sub(w.start) > r.window {
			delete(r.windows, key)
		}
	}
}
