package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/eolscout/pkg/version"
)

// handleHealth handles GET /health. A degraded persistent cache tier is
// reported in the body but stays HTTP 200; the service still answers
// lookups from the memory tier and live scrapes.
func (s *Server) handleHealth(c *gin.Context) {
	health := s.orch.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":     health.Status,
		"version":    version.GitCommit,
		"session_id": health.SessionID,
		"agents":     health.Agents,
		"cache":      health.Cache,
	})
}
