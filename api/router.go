package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/forage/api/handler"
	"github.com/use-agent/forage/api/middleware"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/search"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(svc *search.Service, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(cfg, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Synchronous search
	protected.POST("/search", handler.Search(svc))

	// Asynchronous search jobs
	protected.POST("/search/jobs", handler.PostSearchJob(svc))
	protected.GET("/search/jobs/:id", handler.GetSearchJob())

	return r
}
