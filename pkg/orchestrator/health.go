package orchestrator

import (
	"context"
	"strings"
)

// healthProbeLimit caps how many agents the health endpoint inspects; the
// probe is meant to stay fast.
const healthProbeLimit = 5

// AgentHealth is the non-blocking per-agent probe: registration data
// only, no upstream calls.
type AgentHealth struct {
	Name    string `json:"name"`
	Sources int    `json:"sources"`
}

// Health is the orchestrator's quick status.
type Health struct {
	Status    string            `json:"status"`
	SessionID string            `json:"session_id"`
	Agents    []AgentHealth     `json:"agents"`
	Cache     map[string]string `json:"cache,omitempty"`
}

// HealthCheck reports service status without touching any upstream. The
// cache map carries per-tier availability; a missing persistent tier
// degrades status to "degraded" rather than failing.
func (o *Orchestrator) HealthCheck(ctx context.Context) Health {
	health := Health{
		Status:    "ok",
		SessionID: o.SessionID(),
	}

	for i, vendor := range o.vendors {
		if i >= healthProbeLimit {
			break
		}
		health.Agents = append(health.Agents, AgentHealth{
			Name:    vendor.Name(),
			Sources: len(vendor.URLs()),
		})
	}

	if o.cache != nil {
		health.Cache = o.cache.Healthy(ctx)
		if strings.HasPrefix(health.Cache["persistent"], "unavailable") {
			health.Status = "degraded"
		}
	}
	return health
}
