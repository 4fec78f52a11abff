package audit

import (
	"context"
	"net/http"
	"strings"

	"ssohub/internal/auth"
)

type ctxKey int

const markerKey ctxKey = 0

// marker is mutable per-request state shared between the Trail observer and
// explicit Recorder.Log calls so one logical event is never logged twice.
type marker struct {
	logged bool
}

func markerFromContext(ctx context.Context) *marker {
	m, _ := ctx.Value(markerKey).(*marker)
	return m
}

// Trail is the request-completion observer. It infers the audit action from
// the route when the handler made no explicit Recorder.Log call, so failure
// paths that never reach a decision point still leave an entry. The explicit
// call, when present, wins.
func Trail(rec *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := &marker{}
			r = r.WithContext(context.WithValue(r.Context(), markerKey, m))
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(sw, r)

			if m.logged {
				return
			}
			action := inferAction(r)
			if action == "" {
				return
			}
			emp, _ := auth.EmployeeFromContext(r.Context())
			app, _ := auth.ApplicationFromContext(r.Context())
			rec.write(r, action, emp, app, nil, &sw.code)
		})
	}
}

func inferAction(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.Contains(path, "auth/login") && r.Method == http.MethodPost:
		return ActionLogin
	case strings.Contains(path, "auth/logout-all"):
		return ActionLogoutAll
	case strings.Contains(path, "auth/logout"):
		return ActionLogout
	case strings.Contains(path, "auth/refresh"):
		return ActionTokenRefresh
	case strings.Contains(path, "sso/validate"):
		return ActionTokenValidate
	case strings.Contains(path, "sso/authorize"):
		return ActionAppAuthorize
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
