package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/access"
	"ssohub/internal/auth"
	"ssohub/internal/models"
	"ssohub/internal/tokens"
)

func ListEmployees(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r, 15)
		var emps []models.Employee
		if err := db.WithContext(r.Context()).
			Order("created_at desc").Limit(limit).Offset(offset).
			Find(&emps).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(emps))
		for i := range emps {
			out = append(out, employeeView(&emps[i]))
		}
		respondJSON(w, map[string]any{"data": out})
	}
}

type createEmployeeReq struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Suffix     string `json:"suffix"`
	Position   string `json:"position"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func CreateEmployee(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEmployeeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
			respondMessage(w, http.StatusBadRequest, "first_name, last_name, email and password are required.")
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, "Could not hash password.")
			return
		}
		emp := models.Employee{
			UUID:         uuid.NewString(),
			FirstName:    req.FirstName,
			MiddleName:   req.MiddleName,
			LastName:     req.LastName,
			Suffix:       req.Suffix,
			Position:     req.Position,
			Email:        req.Email,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := db.WithContext(r.Context()).Create(&emp).Error; err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		respondStatusJSON(w, http.StatusCreated, map[string]any{
			"message": "Employee created successfully.",
			"data":    employeeView(&emp),
		})
	}
}

func GetEmployee(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		respondJSON(w, map[string]any{"data": employeeView(emp)})
	}
}

type updateEmployeeReq struct {
	FirstName  *string `json:"first_name"`
	MiddleName *string `json:"middle_name"`
	LastName   *string `json:"last_name"`
	Suffix     *string `json:"suffix"`
	Position   *string `json:"position"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	IsActive   *bool   `json:"is_active"`
}

func UpdateEmployee(db *gorm.DB, authority *tokens.Authority, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		var req updateEmployeeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.FirstName != nil {
			emp.FirstName = *req.FirstName
		}
		if req.MiddleName != nil {
			emp.MiddleName = *req.MiddleName
		}
		if req.LastName != nil {
			emp.LastName = *req.LastName
		}
		if req.Suffix != nil {
			emp.Suffix = *req.Suffix
		}
		if req.Position != nil {
			emp.Position = *req.Position
		}
		if req.Email != nil {
			emp.Email = strings.TrimSpace(strings.ToLower(*req.Email))
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respondMessage(w, http.StatusInternalServerError, "Could not hash password.")
				return
			}
			emp.PasswordHash = hash
		}
		deactivated := false
		if req.IsActive != nil {
			deactivated = emp.IsActive && !*req.IsActive
			emp.IsActive = *req.IsActive
		}
		if err := db.WithContext(r.Context()).Save(emp).Error; err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		// A deactivated account must not keep usable sessions around.
		if deactivated {
			if err := authority.RevokeAllForEmployee(r.Context(), emp.ID); err != nil {
				lg.Errorw("revoke on deactivate failed", "employee", emp.UUID, "error", err)
			}
		}
		respondJSON(w, map[string]any{
			"message": "Employee updated successfully.",
			"data":    employeeView(emp),
		})
	}
}

// DeleteEmployee revokes every live token first, then soft-deletes the
// record so audit and token history stays intact.
func DeleteEmployee(db *gorm.DB, authority *tokens.Authority, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		if err := authority.RevokeAllForEmployee(r.Context(), emp.ID); err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := db.WithContext(r.Context()).Delete(emp).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondMessage(w, http.StatusOK, "Employee deleted successfully.")
	}
}

// EmployeeApplications lists the applications the employee holds grants for.
func EmployeeApplications(db *gorm.DB, resolver *access.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		grants, err := resolver.GrantsForEmployee(r.Context(), emp.ID)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(grants))
		for i := range grants {
			out = append(out, map[string]any{
				"uuid":       grants[i].Application.UUID,
				"name":       grants[i].Application.Name,
				"role":       grants[i].Role,
				"granted_at": grants[i].CreatedAt,
			})
		}
		respondJSON(w, map[string]any{"data": out})
	}
}

type grantAccessReq struct {
	ApplicationUUID string `json:"application_uuid"`
	Role            string `json:"role"`
}

// GrantAccess upserts the employee's grant for an application. Regranting
// with a different role replaces the role; no duplicate edge is created.
func GrantAccess(db *gorm.DB, resolver *access.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		var req grantAccessReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		role, err := models.ParseRole(req.Role)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		var app models.Application
		if err := db.WithContext(r.Context()).First(&app, "uuid = ?", req.ApplicationUUID).Error; err != nil {
			respondMessage(w, http.StatusNotFound, "Application not found.")
			return
		}
		if err := resolver.Grant(r.Context(), emp.ID, app.ID, role); err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondMessage(w, http.StatusOK, "Application access granted successfully.")
	}
}

type updateAccessReq struct {
	Role string `json:"role"`
}

func UpdateAccess(db *gorm.DB, resolver *access.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		app, ok := findApplication(w, r, db, "app_uuid")
		if !ok {
			return
		}
		var req updateAccessReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		role, err := models.ParseRole(req.Role)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := resolver.Grant(r.Context(), emp.ID, app.ID, role); err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondMessage(w, http.StatusOK, "Application access updated successfully.")
	}
}

// RevokeAccess removes the grant edge; the next authorization check for this
// pair fails.
func RevokeAccess(db *gorm.DB, resolver *access.Resolver, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		app, ok := findApplication(w, r, db, "app_uuid")
		if !ok {
			return
		}
		if err := resolver.Revoke(r.Context(), emp.ID, app.ID); err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondMessage(w, http.StatusOK, "Application access revoked successfully.")
	}
}

func findEmployee(w http.ResponseWriter, r *http.Request, db *gorm.DB) (*models.Employee, bool) {
	id := chi.URLParam(r, "uuid")
	var emp models.Employee
	if err := db.WithContext(r.Context()).First(&emp, "uuid = ?", id).Error; err != nil {
		respondMessage(w, http.StatusNotFound, "Employee not found.")
		return nil, false
	}
	return &emp, true
}

func findApplication(w http.ResponseWriter, r *http.Request, db *gorm.DB, param string) (*models.Application, bool) {
	id := chi.URLParam(r, param)
	var app models.Application
	if err := db.WithContext(r.Context()).First(&app, "uuid = ?", id).Error; err != nil {
		respondMessage(w, http.StatusNotFound, "Application not found.")
		return nil, false
	}
	return &app, true
}

func pagination(r *http.Request, perPage int) (limit, offset int) {
	limit = perPage
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	return limit, (page - 1) * limit
}
