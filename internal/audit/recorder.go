// Package audit records every security decision. Writes are synchronous with
// the request but best-effort: a failed audit insert is reported to the
// operational log and never converts a security decision into an HTTP error.
package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/models"
)

// Closed action vocabulary.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionLogoutAll     = "logout_all"
	ActionTokenRefresh  = "token_refresh"
	ActionTokenValidate = "token_validate"
	ActionAppAuthorize  = "app_authorize"
)

type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Log writes one audit entry for an explicit decision point. Either principal
// may be nil when it could not be resolved; the event is still recorded.
// When a Trail marker is present in the context it is flipped so the observer
// does not log the same request a second time.
func (rec *Recorder) Log(r *http.Request, action string, emp *models.Employee, app *models.Application, metadata map[string]any) {
	if m := markerFromContext(r.Context()); m != nil {
		m.logged = true
	}
	rec.write(r, action, emp, app, metadata, nil)
}

func (rec *Recorder) write(r *http.Request, action string, emp *models.Employee, app *models.Application, metadata map[string]any, status *int) {
	entry := models.AuditLog{
		Action:    action,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		CreatedAt: time.Now(),
	}
	if emp != nil {
		entry.EmployeeID = &emp.ID
	}
	if app != nil {
		entry.ApplicationID = &app.ID
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if status != nil {
		metadata["method"] = r.Method
		metadata["path"] = r.URL.Path
		metadata["status_code"] = *status
	}
	if b, err := json.Marshal(metadata); err == nil {
		entry.Metadata = b
	}

	if err := rec.db.WithContext(context.WithoutCancel(r.Context())).Create(&entry).Error; err != nil {
		rec.lg.Errorw("audit write failed",
			"action", action,
			"ip", entry.IPAddress,
			"error", err)
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr without a port; fall back
	// to splitting host:port for direct connections.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
