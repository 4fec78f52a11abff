package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ssohub/internal/access"
	"ssohub/internal/audit"
	"ssohub/internal/auth"
	"ssohub/internal/tokens"
)

type ssoTokenReq struct {
	Token string `json:"token"`
}

// ValidateToken lets a registered application check an employee bearer token.
// The token comes from the JSON body, falling back to the Authorization
// header like the management surface.
func ValidateToken(authority *tokens.Authority, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			respondStatusJSON(w, http.StatusBadRequest, map[string]any{
				"valid":   false,
				"message": "Token is required.",
			})
			return
		}

		emp, err := authority.Validate(r.Context(), raw)
		if err != nil {
			respondStatusJSON(w, http.StatusUnauthorized, map[string]any{
				"valid":   false,
				"message": validationMessage(err),
			})
			return
		}

		app, _ := auth.ApplicationFromContext(r.Context())
		rec.Log(r, audit.ActionTokenValidate, emp, app, nil)
		respondJSON(w, map[string]any{
			"valid": true,
			"data":  employeeView(emp),
		})
	}
}

// Authorize answers whether the token's employee may use the calling
// application, and at which role. Roles are never read from the token; the
// grant table is the live source of truth.
func Authorize(authority *tokens.Authority, resolver *access.Resolver, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ssoTokenReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			respondStatusJSON(w, http.StatusBadRequest, map[string]any{
				"authorized": false,
				"message":    "Token is required.",
			})
			return
		}

		emp, err := authority.Validate(r.Context(), req.Token)
		if err != nil {
			respondStatusJSON(w, http.StatusUnauthorized, map[string]any{
				"authorized": false,
				"message":    validationMessage(err),
			})
			return
		}

		app, ok := auth.ApplicationFromContext(r.Context())
		if !ok {
			respondStatusJSON(w, http.StatusBadRequest, map[string]any{
				"authorized": false,
				"message":    "Application not found.",
			})
			return
		}

		role, found, err := resolver.RoleFor(r.Context(), emp.ID, app.ID)
		if err != nil {
			lg.Errorw("role lookup failed", "employee", emp.UUID, "application", app.UUID, "error", err)
			respondStatusJSON(w, http.StatusInternalServerError, map[string]any{
				"authorized": false,
				"message":    "Authorization check failed.",
			})
			return
		}
		if !found {
			respondStatusJSON(w, http.StatusForbidden, map[string]any{
				"authorized": false,
				"message":    "Employee does not have access to this application.",
			})
			return
		}

		rec.Log(r, audit.ActionAppAuthorize, emp, app, map[string]any{"role": string(role)})
		respondJSON(w, map[string]any{
			"authorized": true,
			"role":       string(role),
			"employee": map[string]any{
				"uuid":      emp.UUID,
				"full_name": emp.FullName(),
				"email":     emp.Email,
			},
		})
	}
}

// SsoEmployee returns the bearer's employee record to an application that has
// already authenticated with its client credentials. Without a grant for the
// calling application the employee record is withheld.
func SsoEmployee(resolver *access.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := auth.EmployeeFromContext(r.Context())
		if !ok {
			respondMessage(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		app, _ := auth.ApplicationFromContext(r.Context())

		var role *string
		if app != nil {
			got, found, err := resolver.RoleFor(r.Context(), emp.ID, app.ID)
			if err != nil {
				lg.Errorw("role lookup failed", "employee", emp.UUID, "error", err)
				respondMessage(w, http.StatusInternalServerError, "Authorization check failed.")
				return
			}
			if !found {
				respondMessage(w, http.StatusForbidden, "Employee does not have access to this application.")
				return
			}
			s := string(got)
			role = &s
		}

		respondJSON(w, map[string]any{
			"data": employeeView(emp),
			"role": role,
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	var req ssoTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Token != "" {
		return req.Token
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func validationMessage(err error) string {
	if errors.Is(err, tokens.ErrEmployeeInactive) {
		return "Invalid or inactive employee."
	}
	return "Invalid token."
}
