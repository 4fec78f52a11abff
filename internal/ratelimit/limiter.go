// Package ratelimit enforces a per-application request budget over a fixed
// 60-second window. The window is anchored at the first hit, not
// calendar-aligned, and resets 60 seconds later.
package ratelimit

import (
	"context"
	"time"
)

// Window is the budget interval for every application.
const Window = time.Minute

// Result reports the outcome of one admission attempt.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the whole seconds until the window resets. Only
	// meaningful on denial.
	RetryAfter int
}

// Limiter consumes one unit from the keyed counter and reports whether the
// request is admitted. Increment-and-check is atomic with respect to
// concurrent callers for the same key.
type Limiter interface {
	Hit(ctx context.Context, key string, limit int) (Result, error)
}
