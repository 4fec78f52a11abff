package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/access"
	"ssohub/internal/audit"
	"ssohub/internal/auth"
	"ssohub/internal/config"
	"ssohub/internal/httpserver/handlers"
	"ssohub/internal/metrics"
	"ssohub/internal/ratelimit"
	"ssohub/internal/tokens"
)

// NewRouter wires the full route tree. The SSO surface runs behind client
// credentials, the per-application rate limiter and the audit trail; the
// management surface runs behind employee bearer auth.
func NewRouter(db *gorm.DB, cfg *config.Config, limiter ratelimit.Limiter, lg *zap.SugaredLogger) http.Handler {
	authority := tokens.NewAuthority(db, []byte(cfg.JWTSecret), cfg.JWTTTL)
	resolver := access.NewResolver(db)
	rec := audit.NewRecorder(db, lg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)
	r.Use(metrics.Instrument)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(a chi.Router) {
			a.With(audit.Trail(rec)).Post("/login", handlers.Login(db, authority, rec, lg))
			a.Group(func(protected chi.Router) {
				protected.Use(tokens.RequireEmployee(authority), audit.Trail(rec))
				protected.Post("/logout", handlers.Logout(authority, rec, lg))
				protected.Post("/logout-all", handlers.LogoutAll(authority, rec, lg))
				protected.Post("/refresh", handlers.Refresh(authority, rec, lg))
				protected.Get("/me", handlers.Me())
			})
		})

		v1.Route("/sso", func(sso chi.Router) {
			sso.Use(auth.AppCredentials(db), ratelimit.PerApp(limiter, lg), audit.Trail(rec))
			sso.Post("/validate", handlers.ValidateToken(authority, rec, lg))
			sso.Post("/authorize", handlers.Authorize(authority, resolver, rec, lg))
			sso.With(tokens.RequireEmployee(authority)).
				Get("/employee", handlers.SsoEmployee(resolver, lg))
		})

		v1.Group(func(protected chi.Router) {
			protected.Use(tokens.RequireEmployee(authority))

			protected.Route("/employees", func(e chi.Router) {
				e.Get("/", handlers.ListEmployees(db, lg))
				e.Post("/", handlers.CreateEmployee(db, lg))
				e.Get("/{uuid}", handlers.GetEmployee(db, lg))
				e.Patch("/{uuid}", handlers.UpdateEmployee(db, authority, lg))
				e.Delete("/{uuid}", handlers.DeleteEmployee(db, authority, lg))
				e.Get("/{uuid}/applications", handlers.EmployeeApplications(db, resolver, lg))
				e.Post("/{uuid}/applications", handlers.GrantAccess(db, resolver, lg))
				e.Put("/{uuid}/applications/{app_uuid}", handlers.UpdateAccess(db, resolver, lg))
				e.Delete("/{uuid}/applications/{app_uuid}", handlers.RevokeAccess(db, resolver, lg))
			})

			protected.Route("/applications", func(a chi.Router) {
				a.Get("/", handlers.ListApplications(db, lg))
				a.Post("/", handlers.CreateApplication(db, lg))
				a.Get("/{uuid}", handlers.GetApplication(db, lg))
				a.Patch("/{uuid}", handlers.UpdateApplication(db, authority, lg))
				a.Delete("/{uuid}", handlers.DeleteApplication(db, authority, lg))
				a.Post("/{uuid}/regenerate-secret", handlers.RegenerateSecret(db, lg))
			})

			protected.Route("/audit", func(a chi.Router) {
				a.Get("/logs", handlers.ListAuditLogs(db, lg))
				a.Get("/employees/{uuid}/logs", handlers.EmployeeAuditLogs(db, lg))
				a.Get("/applications/{uuid}/logs", handlers.ApplicationAuditLogs(db, lg))
			})
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
