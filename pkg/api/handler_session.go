package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleCommunications handles GET /api/v1/session/communications.
func (s *Server) handleCommunications(c *gin.Context) {
	comms := s.orch.Communications()
	c.JSON(http.StatusOK, gin.H{
		"session_id":     s.orch.SessionID(),
		"count":          len(comms),
		"communications": comms,
	})
}

// handleSessionClear handles POST /api/v1/session/clear: drops the
// communication log and session cache and starts a fresh session.
func (s *Server) handleSessionClear(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.ClearCommunications())
}
