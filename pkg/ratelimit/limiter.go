package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
	Window() time.Duration
}

// SlidingWindowLimiter implements sliding window rate limiting in process
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	lastPrune  time.Time
	now        func() time.Time
}

type window struct {
	requests []time.Time
}

// NewSlidingWindowLimiter allows limit requests per key in any windowSize span
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow checks if a request is allowed. The limiter lock is held until the
// request is recorded so a concurrent prune cannot drop the window under it.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.windowSize {
		l.pruneLocked(now)
	}
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}

	start := now.Add(-l.windowSize)

	kept := w.requests[:0]
	for _, t := range w.requests {
		if t.After(start) {
			kept = append(kept, t)
		}
	}
	w.requests = kept

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, now)
	return true, nil
}

// Reset forgets the history of a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// Window returns the window size
func (l *SlidingWindowLimiter) Window() time.Duration {
	return l.windowSize
}

// Prune drops keys with no request inside the window. Allow prunes at most
// once per window on its own.
func (l *SlidingWindowLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
}

func (l *SlidingWindowLimiter) pruneLocked(now time.Time) {
	l.lastPrune = now
	start := now.Add(-l.windowSize)
	for key, w := range l.windows {
		if len(w.requests) == 0 || !w.requests[len(w.requests)-1].After(start) {
			delete(l.windows, key)
		}
	}
}
