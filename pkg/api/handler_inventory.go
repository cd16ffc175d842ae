package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/eolscout/pkg/inventory"
)

// handleInventoryCheck handles POST /api/v1/inventory/check: a bounded
// concurrent lookup over a batch of inventory records.
func (s *Server) handleInventoryCheck(c *gin.Context) {
	var req InventoryCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Records) > maxInventoryRecords {
		badRequest(c, fmt.Errorf("too many records: %d (limit %d)", len(req.Records), maxInventoryRecords))
		return
	}

	results, err := inventory.Check(c.Request.Context(), s.orch, req.Records, s.inventoryConcurrency)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(results),
		"results": results,
	})
}
