package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ssohub/internal/auth"
	"ssohub/internal/models"
	"ssohub/internal/tokens"
)

func ListApplications(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r, 15)
		var apps []models.Application
		if err := db.WithContext(r.Context()).
			Order("created_at desc").Limit(limit).Offset(offset).
			Find(&apps).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]map[string]any, 0, len(apps))
		for i := range apps {
			out = append(out, applicationView(&apps[i]))
		}
		respondJSON(w, map[string]any{"data": out})
	}
}

type createApplicationReq struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	RedirectURIs       []string `json:"redirect_uris"`
	RateLimitPerMinute *int     `json:"rate_limit_per_minute"`
}

// CreateApplication registers a client. The generated client secret is
// returned in this response only; afterwards the service holds just its hash.
func CreateApplication(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createApplicationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			respondMessage(w, http.StatusBadRequest, "name is required.")
			return
		}
		quota := 60
		if req.RateLimitPerMinute != nil {
			if *req.RateLimitPerMinute < 1 {
				respondMessage(w, http.StatusBadRequest, "rate_limit_per_minute must be positive.")
				return
			}
			quota = *req.RateLimitPerMinute
		}

		plainSecret := auth.RandomCredential()
		hash, err := auth.HashPassword(plainSecret)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, "Could not hash client secret.")
			return
		}
		uris, _ := json.Marshal(req.RedirectURIs)

		app := models.Application{
			UUID:               uuid.NewString(),
			Name:               strings.TrimSpace(req.Name),
			Description:        req.Description,
			ClientID:           auth.RandomCredential(),
			ClientSecretHash:   hash,
			RedirectURIs:       uris,
			RateLimitPerMinute: quota,
			IsActive:           true,
		}
		if err := db.WithContext(r.Context()).Create(&app).Error; err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		respondStatusJSON(w, http.StatusCreated, map[string]any{
			"message":       "Application created successfully.",
			"data":          applicationView(&app),
			"client_secret": plainSecret,
		})
	}
}

func GetApplication(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := findApplication(w, r, db, "uuid")
		if !ok {
			return
		}
		respondJSON(w, map[string]any{"data": applicationView(app)})
	}
}

type updateApplicationReq struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	RedirectURIs       []string `json:"redirect_uris"`
	RateLimitPerMinute *int     `json:"rate_limit_per_minute"`
	IsActive           *bool    `json:"is_active"`
}

func UpdateApplication(db *gorm.DB, authority *tokens.Authority, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := findApplication(w, r, db, "uuid")
		if !ok {
			return
		}
		var req updateApplicationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name != nil {
			app.Name = *req.Name
		}
		if req.Description != nil {
			app.Description = *req.Description
		}
		if req.RedirectURIs != nil {
			uris, _ := json.Marshal(req.RedirectURIs)
			app.RedirectURIs = uris
		}
		if req.RateLimitPerMinute != nil {
			if *req.RateLimitPerMinute < 1 {
				respondMessage(w, http.StatusBadRequest, "rate_limit_per_minute must be positive.")
				return
			}
			app.RateLimitPerMinute = *req.RateLimitPerMinute
		}
		deactivated := false
		if req.IsActive != nil {
			deactivated = app.IsActive && !*req.IsActive
			app.IsActive = *req.IsActive
		}
		if err := db.WithContext(r.Context()).Save(app).Error; err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		if deactivated {
			if err := authority.RevokeAllForApplication(r.Context(), app.ID); err != nil {
				lg.Errorw("revoke on deactivate failed", "application", app.UUID, "error", err)
			}
		}
		respondJSON(w, map[string]any{
			"message": "Application updated successfully.",
			"data":    applicationView(app),
		})
	}
}

// DeleteApplication revokes tokens issued through the application before the
// soft delete so no session survives its application.
func DeleteApplication(db *gorm.DB, authority *tokens.Authority, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := findApplication(w, r, db, "uuid")
		if !ok {
			return
		}
		if err := authority.RevokeAllForApplication(r.Context(), app.ID); err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := db.WithContext(r.Context()).Delete(app).Error; err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondMessage(w, http.StatusOK, "Application deleted successfully.")
	}
}

// RegenerateSecret rotates the client secret. The previous secret stops
// working immediately; the new plaintext appears in this response only.
func RegenerateSecret(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, ok := findApplication(w, r, db, "uuid")
		if !ok {
			return
		}
		plain, err := auth.RotateSecret(db.WithContext(r.Context()), app)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{
			"message":       "Client secret regenerated successfully.",
			"client_secret": plain,
		})
	}
}
