package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck probes a dependency; nil means healthy
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	database HealthCheck
	logger   *zap.Logger
}

func NewHealthHandler(database HealthCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{database: database, logger: logger}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "database": "ok"}

	if h.database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.database(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body = gin.H{"status": "degraded", "database": "error"}
		}
	}
	c.JSON(status, body)
}
