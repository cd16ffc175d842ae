// Package agent defines the contract every vendor agent implements and the
// shared base that runs the cache → static table → scrape pipeline.
package agent

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// Confidence levels claimed by the different data sources. Vendor agents
// stay within [0.85, 0.95]; the generic fallback agent is clamped to 0.95
// by its own package.
const (
	ConfidenceStatic  = 0.9
	ConfidenceScraped = 0.8
)

// SourceURL is one upstream source in an agent's registry, ordered by
// priority (lower is consulted first). Exposed for UI display and for the
// scraper dispatch order.
type SourceURL struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Active      bool   `json:"active"`
}

// Agent is the uniform capability set every vendor agent exposes.
// GetEOLData never returns nil and never panics across the boundary;
// internal failures become failure envelopes.
type Agent interface {
	Name() string
	IsRelevant(software string) bool
	URLs() []SourceURL
	GetEOLData(ctx context.Context, software, version string) *models.Envelope
	PurgeCache(ctx context.Context, software, version string) (int, error)
}

// BulkFetcher is implemented by agents whose upstream serves a full
// listing page: one fetch yields every cycle, all written to the cache.
// The orchestrator calls this periodically to warm caches.
type BulkFetcher interface {
	Agent
	BulkFetch(ctx context.Context) (int, error)
}

// MatchKeywords reports whether any keyword occurs as a substring of the
// software name (case-insensitive). This is the shared IsRelevant
// implementation and also what the orchestrator's router uses.
func MatchKeywords(software string, keywords []string) bool {
	lower := strings.ToLower(software)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
