package main

import (
	"context"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ssohub/internal/auth"
	"ssohub/internal/config"
	"ssohub/internal/httpserver"
	"ssohub/internal/logger"
	"ssohub/internal/metrics"
	"ssohub/internal/models"
	"ssohub/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Employee{}, &models.Application{}, &models.AccessGrant{},
		&models.Token{}, &models.AuditLog{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedDefaultAdmin(db, cfg, lg)

	metrics.Init()
	limiter := newLimiter(cfg, lg)

	router := httpserver.NewRouter(db, cfg, limiter, lg)
	lg.Infow("listening", "port", cfg.HTTPPort, "environment", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

// newLimiter picks the shared Redis counter store when configured, falling
// back to process-local counters for single-instance deployments.
func newLimiter(cfg *config.Config, lg *zap.SugaredLogger) ratelimit.Limiter {
	if cfg.RedisAddr == "" {
		lg.Infow("rate limiter using in-process counters")
		return ratelimit.NewMemoryLimiter()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		lg.Fatalw("redis connect failed", "addr", cfg.RedisAddr, "error", err)
	}
	lg.Infow("rate limiter using redis", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisLimiter(rdb)
}

func seedDefaultAdmin(db *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) {
	if cfg.AdminPassword == "" {
		return
	}
	var count int64
	db.Model(&models.Employee{}).Where("LOWER(email) = ?", cfg.AdminEmail).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		lg.Errorw("seed admin hash failed", "error", err)
		return
	}
	emp := models.Employee{
		UUID:         uuid.NewString(),
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := db.Create(&emp).Error; err != nil {
		lg.Errorw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", cfg.AdminEmail)
}
