// Package api exposes the EOL lookup service over HTTP. Routing and
// binding are gin; the handlers stay thin and delegate to the
// orchestrator, cache, and telemetry packages.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/orchestrator"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

// Orchestrator is the slice of the orchestrator the HTTP layer uses.
// Tests substitute a fake; production passes *orchestrator.Orchestrator.
type Orchestrator interface {
	Lookup(ctx context.Context, req orchestrator.Request) *orchestrator.Result
	HealthCheck(ctx context.Context) orchestrator.Health
	Communications() []models.Communication
	ClearCommunications() orchestrator.ClearResult
	SessionID() string
	Warm(ctx context.Context) (int, error)
}

// Server holds the handler dependencies.
type Server struct {
	orch                 Orchestrator
	cache                *cache.Cache
	telemetry            *telemetry.Collector
	metrics              http.Handler
	logger               *slog.Logger
	inventoryConcurrency int64
}

// NewServer wires the API server. metrics is the Prometheus exposition
// handler and may be nil to disable the /metrics route; cache may be nil
// when the service runs without one (stats and purge then 404/no-op).
func NewServer(orch Orchestrator, c *cache.Cache, t *telemetry.Collector, metrics http.Handler, logger *slog.Logger, inventoryConcurrency int64) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orch:                 orch,
		cache:                c,
		telemetry:            t,
		metrics:              metrics,
		logger:               logger,
		inventoryConcurrency: inventoryConcurrency,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/eol", s.handleLookup)
	v1.POST("/inventory/check", s.handleInventoryCheck)
	v1.GET("/stats", s.handleStats)
	v1.POST("/cache/purge", s.handleCachePurge)
	v1.POST("/cache/warm", s.handleCacheWarm)
	v1.GET("/session/communications", s.handleCommunications)
	v1.POST("/session/clear", s.handleSessionClear)

	return router
}

// requestLogger logs one line per request via slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
