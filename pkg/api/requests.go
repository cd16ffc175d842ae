package api

import "github.com/codeready-toolchain/eolscout/pkg/inventory"

// LookupRequest is the POST /api/v1/eol body.
type LookupRequest struct {
	Software     string `json:"software" binding:"required"`
	Version      string `json:"version"`
	Kind         string `json:"kind"`
	InternetOnly bool   `json:"internet_only"`
}

// maxInventoryRecords caps one bulk check request.
const maxInventoryRecords = 500

// InventoryCheckRequest is the POST /api/v1/inventory/check body.
type InventoryCheckRequest struct {
	Records []inventory.Record `json:"records" binding:"required"`
}

// CachePurgeRequest filters the purge; both fields empty clears everything.
type CachePurgeRequest struct {
	Software string `json:"software"`
	Agent    string `json:"agent"`
}
