package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleStats handles GET /api/v1/stats: the telemetry snapshot plus
// cache-tier statistics.
func (s *Server) handleStats(c *gin.Context) {
	snapshot := s.telemetry.Snapshot()
	payload := gin.H{
		"agents":  snapshot.Agents,
		"summary": snapshot.Summary,
	}
	if s.cache != nil {
		payload["cache"] = s.cache.Stats(c.Request.Context())
	}
	c.JSON(http.StatusOK, payload)
}

// handleCachePurge handles POST /api/v1/cache/purge.
func (s *Server) handleCachePurge(c *gin.Context) {
	var req CachePurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if s.cache == nil {
		c.JSON(http.StatusOK, gin.H{"purged": 0})
		return
	}

	purged, err := s.cache.Purge(c.Request.Context(), req.Software, req.Agent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("cache purged", "software", req.Software, "agent", req.Agent, "purged", purged)
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// handleCacheWarm handles POST /api/v1/cache/warm: an on-demand run of
// the bulk-fetch sweep that the cron schedule normally drives.
func (s *Server) handleCacheWarm(c *gin.Context) {
	cycles, err := s.orch.Warm(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "cycles": cycles})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}
