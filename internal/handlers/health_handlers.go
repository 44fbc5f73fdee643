package handlers

import (
	"context"
	"net/http"
	"time"

	"taskhive/internal/caching"
	"taskhive/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers handles health check and readiness endpoints
type HealthHandlers struct {
	db         *pgxpool.Pool
	cacheSvc   caching.CacheService
	storageSvc services.StorageService
}

func NewHealthHandlers(db *pgxpool.Pool, cacheSvc caching.CacheService, storageSvc services.StorageService) *HealthHandlers {
	return &HealthHandlers{
		db:         db,
		cacheSvc:   cacheSvc,
		storageSvc: storageSvc,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
}

// HealthCheck handles GET /health
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /health/ready and probes every dependency
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   "1.0.0",
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			health.Services["database"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services["database"] = "healthy"
		}
	}

	if h.cacheSvc != nil {
		if err := h.cacheSvc.Ping(ctx); err != nil {
			health.Services["redis"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services["redis"] = "healthy"
		}
	}

	if h.storageSvc != nil {
		if err := h.storageSvc.Ping(ctx); err != nil {
			health.Services["storage"] = "unhealthy"
			health.Status = "degraded"
		} else {
			health.Services["storage"] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}
