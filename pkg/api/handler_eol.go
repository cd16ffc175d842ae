package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/eolscout/pkg/orchestrator"
)

// handleLookup handles POST /api/v1/eol. Lookup failures (no data found,
// agent errors) are still HTTP 200; the body's success flag and error
// block carry the outcome. Only malformed requests are 4xx.
func (s *Server) handleLookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result := s.orch.Lookup(c.Request.Context(), orchestrator.Request{
		Software:     req.Software,
		Version:      req.Version,
		Kind:         req.Kind,
		InternetOnly: req.InternetOnly,
	})
	c.JSON(http.StatusOK, result)
}
