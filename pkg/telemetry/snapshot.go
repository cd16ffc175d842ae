package telemetry

import "time"

// URLSnapshot is the immutable per-URL view.
type URLSnapshot struct {
	Requests          int64     `json:"requests"`
	Hits              int64     `json:"hits"`
	Misses            int64     `json:"misses"`
	Errors            int64     `json:"errors"`
	HitRate           float64   `json:"hit_rate"`
	ErrorRate         float64   `json:"error_rate"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
	MinResponseTimeMS int64     `json:"min_response_time_ms"`
	MaxResponseTimeMS int64     `json:"max_response_time_ms"`
	LastRequest       time.Time `json:"last_request"`
	RecordsExtracted  int64     `json:"records_extracted"`
}

// AgentSnapshot is the immutable per-agent view.
type AgentSnapshot struct {
	Requests          int64                  `json:"requests"`
	Hits              int64                  `json:"hits"`
	Misses            int64                  `json:"misses"`
	Errors            int64                  `json:"errors"`
	HitRate           float64                `json:"hit_rate"`
	ErrorRate         float64                `json:"error_rate"`
	AvgResponseTimeMS float64                `json:"avg_response_time_ms"`
	MinResponseTimeMS int64                  `json:"min_response_time_ms"`
	MaxResponseTimeMS int64                  `json:"max_response_time_ms"`
	LastRequest       time.Time              `json:"last_request"`
	URLs              map[string]URLSnapshot `json:"urls,omitempty"`
	RecentActivity    []Activity             `json:"recent_activity,omitempty"`
}

// Summary is the global roll-up.
type Summary struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalHits      int64   `json:"total_hits"`
	TotalMisses    int64   `json:"total_misses"`
	TotalErrors    int64   `json:"total_errors"`
	OverallHitRate float64 `json:"overall_hit_rate"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// Snapshot is the full stats-endpoint payload produced by the collector.
// The API layer augments it with cache-store and inventory sections.
type Snapshot struct {
	Agents  map[string]AgentSnapshot `json:"agents"`
	Summary Summary                  `json:"summary"`
}

// Snapshot copies all counters into an immutable view. Per-agent locks are
// taken one at a time in sorted-name order.
func (c *Collector) Snapshot() Snapshot {
	snapshot := Snapshot{Agents: make(map[string]AgentSnapshot)}

	for _, name := range c.sortedAgentNames() {
		stats := c.agentStats(name)

		stats.mu.Lock()
		agentView := AgentSnapshot{
			Requests:          stats.requests,
			Hits:              stats.hits,
			Misses:            stats.misses,
			Errors:            stats.errors,
			HitRate:           rate(stats.hits, stats.hits+stats.misses),
			ErrorRate:         rate(stats.errors, stats.requests),
			AvgResponseTimeMS: avgMS(stats.cumLatency, stats.requests),
			MinResponseTimeMS: stats.minLatency.Milliseconds(),
			MaxResponseTimeMS: stats.maxLatency.Milliseconds(),
			LastRequest:       stats.lastRequest,
		}
		if len(stats.urls) > 0 {
			agentView.URLs = make(map[string]URLSnapshot, len(stats.urls))
			for url, us := range stats.urls {
				agentView.URLs[url] = URLSnapshot{
					Requests:          us.requests,
					Hits:              us.hits,
					Misses:            us.misses,
					Errors:            us.errors,
					HitRate:           rate(us.hits, us.hits+us.misses),
					ErrorRate:         rate(us.errors, us.requests),
					AvgResponseTimeMS: avgMS(us.cumLatency, us.requests),
					MinResponseTimeMS: us.minLatency.Milliseconds(),
					MaxResponseTimeMS: us.maxLatency.Milliseconds(),
					LastRequest:       us.lastRequest,
					RecordsExtracted:  us.recordsExtracted,
				}
			}
		}
		// Copy the tail so callers cannot observe later ring mutations.
		if len(stats.recent) > 0 {
			agentView.RecentActivity = make([]Activity, len(stats.recent))
			copy(agentView.RecentActivity, stats.recent)
		}
		stats.mu.Unlock()

		snapshot.Agents[name] = agentView
		snapshot.Summary.TotalRequests += agentView.Requests
		snapshot.Summary.TotalHits += agentView.Hits
		snapshot.Summary.TotalMisses += agentView.Misses
		snapshot.Summary.TotalErrors += agentView.Errors
	}

	snapshot.Summary.OverallHitRate = rate(snapshot.Summary.TotalHits,
		snapshot.Summary.TotalHits+snapshot.Summary.TotalMisses)

	c.mu.RLock()
	snapshot.Summary.UptimeSeconds = time.Since(c.started).Seconds()
	c.mu.RUnlock()

	return snapshot
}

// rate divides safely: division by zero yields 0.
func rate(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func avgMS(cum time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(cum.Milliseconds()) / float64(count)
}
