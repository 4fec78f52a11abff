package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/audit"
	"ssohub/internal/auth"
	"ssohub/internal/models"
	"ssohub/internal/tokens"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an employee by email and password and issues a bearer
// token. Unknown email, wrong password and a deactivated account all produce
// the same 401.
func Login(db *gorm.DB, authority *tokens.Authority, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondMessage(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		var emp models.Employee
		if err := db.WithContext(r.Context()).
			First(&emp, "email = ? AND is_active = ?", req.Email, true).Error; err != nil {
			respondMessage(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		if err := auth.CheckPassword(emp.PasswordHash, req.Password); err != nil {
			respondMessage(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}

		token, err := authority.Issue(r.Context(), &emp, nil)
		if err != nil {
			lg.Errorw("token issue failed", "employee", emp.UUID, "error", err)
			respondMessage(w, http.StatusInternalServerError, "Could not issue token.")
			return
		}

		rec.Log(r, audit.ActionLogin, &emp, nil, nil)
		respondJSON(w, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"employee":     employeeView(&emp),
		})
	}
}

// Logout revokes the presenting bearer's token row.
func Logout(authority *tokens.Authority, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, _ := auth.EmployeeFromContext(r.Context())
		raw := auth.BearerFromContext(r.Context())
		if err := authority.Revoke(r.Context(), raw); err != nil {
			lg.Errorw("token revoke failed", "error", err)
			respondMessage(w, http.StatusInternalServerError, "Could not log out.")
			return
		}
		rec.Log(r, audit.ActionLogout, emp, nil, nil)
		respondMessage(w, http.StatusOK, "Successfully logged out.")
	}
}

// LogoutAll revokes every live token the employee holds, across devices.
func LogoutAll(authority *tokens.Authority, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, _ := auth.EmployeeFromContext(r.Context())
		if err := authority.RevokeAllForEmployee(r.Context(), emp.ID); err != nil {
			lg.Errorw("revoke all failed", "employee", emp.UUID, "error", err)
			respondMessage(w, http.StatusInternalServerError, "Could not log out.")
			return
		}
		rec.Log(r, audit.ActionLogoutAll, emp, nil, nil)
		respondMessage(w, http.StatusOK, "Successfully logged out from all sessions.")
	}
}

// Refresh revokes the presented token and returns a replacement. The old
// bearer is dead from this point on.
func Refresh(authority *tokens.Authority, rec *audit.Recorder, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := auth.BearerFromContext(r.Context())
		newToken, emp, err := authority.Refresh(r.Context(), raw)
		if err != nil {
			respondMessage(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		rec.Log(r, audit.ActionTokenRefresh, emp, nil, nil)
		respondJSON(w, map[string]any{
			"access_token": newToken,
			"token_type":   "bearer",
		})
	}
}

// Me returns the authenticated employee's own record.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := auth.EmployeeFromContext(r.Context())
		if !ok {
			respondMessage(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		respondJSON(w, map[string]any{"data": employeeView(emp)})
	}
}
