package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bridges collector samples into Prometheus, served at /metrics.
// The native Snapshot remains the source of truth for the stats endpoint;
// this exists so fleet dashboards can scrape the service like any other.
type Metrics struct {
	requests *prometheus.CounterVec
	hits     *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics registers the metric families on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eolscout",
			Name:      "agent_requests_total",
			Help:      "EOL lookups handled, by agent.",
		}, []string{"agent"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eolscout",
			Name:      "agent_cache_hits_total",
			Help:      "Lookups satisfied from cache, by agent.",
		}, []string{"agent"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eolscout",
			Name:      "agent_errors_total",
			Help:      "Failed lookups, by agent.",
		}, []string{"agent"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eolscout",
			Name:      "agent_request_duration_seconds",
			Help:      "Lookup latency, by agent.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
	}
	reg.MustRegister(m.requests, m.hits, m.errors, m.latency)
	return m
}

func (m *Metrics) observe(agent string, sample Sample) {
	m.requests.WithLabelValues(agent).Inc()
	if sample.Hit {
		m.hits.WithLabelValues(agent).Inc()
	}
	if sample.Error {
		m.errors.WithLabelValues(agent).Inc()
	}
	m.latency.WithLabelValues(agent).Observe(sample.Duration.Seconds())
}
