package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ssohub/internal/auth"
	"ssohub/internal/metrics"
)

// PerApp enforces each application's per-minute quota. It runs after the
// credential middleware; requests with no application principal pass through
// untouched. One unit is consumed before the handler runs, and the remaining
// count reported to the caller is computed after consumption.
func PerApp(limiter Limiter, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app, ok := auth.ApplicationFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Hit(r.Context(), app.UUID, app.RateLimitPerMinute)
			if err != nil {
				// The limiter store being down must not take the SSO
				// surface with it; admit and flag.
				lg.Errorw("rate limiter unavailable, admitting request",
					"client_id", app.ClientID, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				metrics.RateLimitDenied(app.ClientID)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"message":     "Too many requests.",
					"retry_after": res.RetryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
