package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/models"
)

// ListAuditLogs returns recent audit entries, filterable by action tag and
// creation time range (?action=, ?from=, ?to= as RFC3339 or date strings).
func ListAuditLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r, 50)
		q := db.WithContext(r.Context()).Model(&models.AuditLog{})
		if action := r.URL.Query().Get("action"); action != "" {
			q = q.Where("action = ?", action)
		}
		if from := r.URL.Query().Get("from"); from != "" {
			q = q.Where("created_at >= ?", from)
		}
		if to := r.URL.Query().Get("to"); to != "" {
			q = q.Where("created_at <= ?", to)
		}
		var logs []models.AuditLog
		if err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"data": logs})
	}
}

func EmployeeAuditLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, ok := findEmployee(w, r, db)
		if !ok {
			return
		}
		limit, offset := pagination(r, 50)
		var logs []models.AuditLog
		if err := db.WithContext(r.Context()).
			Where("employee_id = ?", emp.ID).
			Order("created_at desc").Limit(limit).Offset(offset).
			Find(&logs).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"data": logs})
	}
}

func ApplicationAuditLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := findApplication(w, r, db, "uuid")
		if !ok {
			return
		}
		limit, offset := pagination(r, 50)
		var logs []models.AuditLog
		if err := db.WithContext(r.Context()).
			Where("application_id = ?", app.ID).
			Order("created_at desc").Limit(limit).Offset(offset).
			Find(&logs).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"data": logs})
	}
}
