package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// beyond this many live keys, expired windows are swept on the next hit
const pruneThreshold = 1024

// MemoryLimiter keeps counters in process memory. Suitable for a single
// instance; multi-instance deployments should use the Redis backend so the
// quota holds across processes.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Hit(_ context.Context, key string, limit int) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		if len(l.windows) >= pruneThreshold {
			l.prune(now)
		}
		w = &window{resetAt: now.Add(Window)}
		l.windows[key] = w
	}

	if w.count >= limit {
		return Result{
			Limit:      limit,
			RetryAfter: retryAfter(w.resetAt, now),
		}, nil
	}
	w.count++
	return Result{Allowed: true, Limit: limit, Remaining: limit - w.count}, nil
}

func (l *MemoryLimiter) prune(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
