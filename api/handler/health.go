package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/models"
)

// Health returns a handler for GET /api/v1/health.
func Health(cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	mode := "live"
	if cfg.Platform.MockMode {
		mode = "mock"
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			PlatformMode: mode,
			Version:      "0.1.0",
		})
	}
}
