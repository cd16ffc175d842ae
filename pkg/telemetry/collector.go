// Package telemetry tracks per-agent and per-URL request counters feeding
// the stats endpoint. Recording is a side channel: it never returns errors
// and never blocks request processing beyond a brief mutex hold.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// recentActivityLimit bounds the per-agent ring buffer of request summaries.
const recentActivityLimit = 100

// Sample describes one recorded request. Call sites use two styles: cache
// paths set Hit, scrape paths set Error on failure. The collector
// reconciles them: a request counts as a miss when it neither hit the
// cache nor errored is false — i.e. misses = requests - hits.
type Sample struct {
	Duration         time.Duration
	Hit              bool
	Error            bool
	Software         string
	Version          string
	URL              string
	RecordsExtracted int
}

// Activity is one entry of an agent's recent-activity ring.
type Activity struct {
	Timestamp time.Time     `json:"timestamp"`
	Software  string        `json:"software,omitempty"`
	Version   string        `json:"version,omitempty"`
	URL       string        `json:"url,omitempty"`
	Hit       bool          `json:"hit"`
	Error     bool          `json:"error"`
	Duration  time.Duration `json:"duration_ms"`
}

// urlStats mirrors the agent counter shape for a single upstream URL.
type urlStats struct {
	requests         int64
	hits             int64
	misses           int64
	errors           int64
	cumLatency       time.Duration
	minLatency       time.Duration
	maxLatency       time.Duration
	lastRequest      time.Time
	recordsExtracted int64
}

type agentStats struct {
	mu          sync.Mutex
	requests    int64
	hits        int64
	misses      int64
	errors      int64
	cumLatency  time.Duration
	minLatency  time.Duration
	maxLatency  time.Duration
	lastRequest time.Time
	urls        map[string]*urlStats
	recent      []Activity // ring, newest appended; trimmed to recentActivityLimit
}

// Collector aggregates counters for every agent. Per-agent locks keep
// recording cheap under concurrent lookups; Snapshot briefly takes the
// agent locks in sorted-name order (consistent ordering avoids deadlock
// against other multi-lock holders).
type Collector struct {
	mu      sync.RWMutex // guards the agents map itself
	agents  map[string]*agentStats
	started time.Time
	metrics *Metrics
}

// NewCollector creates an empty collector. metrics may be nil to disable
// the Prometheus bridge.
func NewCollector(metrics *Metrics) *Collector {
	return &Collector{
		agents:  make(map[string]*agentStats),
		started: time.Now(),
		metrics: metrics,
	}
}

// RecordRequest increments the agent's counters and, when sample.URL is
// set, the per-URL counters. Safe for concurrent use; never fails.
func (c *Collector) RecordRequest(agent string, sample Sample) {
	stats := c.agentStats(agent)

	stats.mu.Lock()
	applySample(&stats.requests, &stats.hits, &stats.misses, &stats.errors,
		&stats.cumLatency, &stats.minLatency, &stats.maxLatency, &stats.lastRequest, sample)

	if sample.URL != "" {
		us, ok := stats.urls[sample.URL]
		if !ok {
			us = &urlStats{}
			stats.urls[sample.URL] = us
		}
		applySample(&us.requests, &us.hits, &us.misses, &us.errors,
			&us.cumLatency, &us.minLatency, &us.maxLatency, &us.lastRequest, sample)
		us.recordsExtracted += int64(sample.RecordsExtracted)
	}

	stats.recent = append(stats.recent, Activity{
		Timestamp: time.Now(),
		Software:  sample.Software,
		Version:   sample.Version,
		URL:       sample.URL,
		Hit:       sample.Hit,
		Error:     sample.Error,
		Duration:  sample.Duration,
	})
	if len(stats.recent) > recentActivityLimit {
		stats.recent = stats.recent[len(stats.recent)-recentActivityLimit:]
	}
	stats.mu.Unlock()

	if c.metrics != nil {
		c.metrics.observe(agent, sample)
	}
}

// Reset zeroes all counters and buffers. The uptime clock restarts.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.agents = make(map[string]*agentStats)
	c.started = time.Now()
	c.mu.Unlock()
}

func (c *Collector) agentStats(agent string) *agentStats {
	c.mu.RLock()
	stats, ok := c.agents[agent]
	c.mu.RUnlock()
	if ok {
		return stats
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if stats, ok = c.agents[agent]; ok {
		return stats
	}
	stats = &agentStats{urls: make(map[string]*urlStats)}
	c.agents[agent] = stats
	return stats
}

func applySample(requests, hits, misses, errors *int64,
	cumLatency, minLatency, maxLatency *time.Duration, lastRequest *time.Time, sample Sample) {
	*requests++
	if sample.Hit {
		*hits++
	} else {
		*misses++
	}
	if sample.Error {
		*errors++
	}
	*cumLatency += sample.Duration
	if *requests == 1 || sample.Duration < *minLatency {
		*minLatency = sample.Duration
	}
	if sample.Duration > *maxLatency {
		*maxLatency = sample.Duration
	}
	*lastRequest = time.Now()
}

// sortedAgentNames returns the registered agent names in lexical order.
func (c *Collector) sortedAgentNames() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.agents))
	for name := range c.agents {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
