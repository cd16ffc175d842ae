// Package orchestrator routes EOL lookups across the vendor agents,
// arbitrates their answers by confidence, and keeps the session-scoped
// communication log the operator UI renders.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

// Name is the agent_used value for failures synthesized by the
// orchestrator itself.
const Name = "orchestrator"

// endOfLifeAgentName identifies the vendor-agnostic catalogue agent; it
// is excluded from the keyword-routing map and always appended last.
const endOfLifeAgentName = "endoflife"

// shortCircuitConfidence stops the candidate walk once a specialist
// answer reaches it. The fallback agent never short-circuits; its answer
// only wins when nothing better arrived.
const shortCircuitConfidence = 0.9

// Request is one lookup.
type Request struct {
	Software     string `json:"software"`
	Version      string `json:"version,omitempty"`
	Kind         string `json:"kind,omitempty"` // "os" enables OS-specialist routing
	InternetOnly bool   `json:"internet_only,omitempty"`
}

// Result is the orchestrator's answer: the winning envelope, the risk
// assessment derived from it, and the session communication log.
type Result struct {
	Success        bool                   `json:"success"`
	Data           *models.Envelope       `json:"data,omitempty"`
	Assessment     *Assessment            `json:"assessment,omitempty"`
	AgentUsed      string                 `json:"agent_used"`
	Confidence     float64                `json:"confidence"`
	Error          *models.ErrorInfo      `json:"error,omitempty"`
	Communications []models.Communication `json:"communications"`
}

// Options configure the orchestrator.
type Option func(*Orchestrator)

// WithClock substitutes the time source (tests).
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithWarmConcurrency bounds parallel bulk fetches during cache warming.
func WithWarmConcurrency(n int64) Option {
	return func(o *Orchestrator) { o.warmLimit = n }
}

// Orchestrator coordinates the vendor agents and the fallback. Session
// state (communication ring, session cache) is guarded by one mutex; the
// agents themselves are safe for concurrent use.
type Orchestrator struct {
	vendors   []agent.Agent
	fallback  agent.Agent
	cache     *cache.Cache
	telemetry *telemetry.Collector
	logger    *slog.Logger
	clock     func() time.Time
	warmLimit int64

	mu           sync.Mutex
	sessionID    string
	comms        []models.Communication
	sessionCache map[string]sessionEntry

	cron *cron.Cron
}

// New wires the orchestrator. vendors must be in routing declaration
// order with the endoflife agent last; fallback may be nil when the
// browser engine is unavailable (internet-only lookups then fail fast).
func New(vendors []agent.Agent, fallback agent.Agent, c *cache.Cache, t *telemetry.Collector, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		vendors:      vendors,
		fallback:     fallback,
		cache:        c,
		telemetry:    t,
		logger:       logger,
		clock:        time.Now,
		warmLimit:    10,
		sessionID:    uuid.NewString(),
		sessionCache: make(map[string]sessionEntry),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Lookup runs the full routing pipeline for one product. Internal panics
// are converted to a failure result at this boundary; they never reach
// the HTTP layer.
func (o *Orchestrator) Lookup(ctx context.Context, req Request) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator panicked", "software", req.Software, "panic", r)
			result = o.failureResult(req, models.ErrCodeAgentException,
				fmt.Sprintf("internal error while looking up %s", req.Software))
		}
	}()

	req.Software = strings.TrimSpace(req.Software)
	if req.Software == "" {
		return o.failureResult(req, models.ErrCodeNoDataFound, "software name is required")
	}

	if cached, ok := o.sessionLookup(req); ok {
		o.appendComm(models.Communication{
			AgentName: Name,
			Action:    models.ActionSessionCache,
			Input:     req.Software,
			Type:      models.CommTypeInfo,
		})
		return cached
	}

	candidates := o.route(req)
	o.appendComm(models.Communication{
		AgentName: Name,
		Action:    models.ActionAgentSelection,
		Input:     req.Software,
		Output:    agentNames(candidates),
		Type:      models.CommTypeInfo,
	})

	var best *models.Envelope
	var bestAgent agent.Agent
	bestConfidence := 0.0

	for _, candidate := range candidates {
		o.appendComm(models.Communication{
			AgentName: candidate.Name(),
			Action:    models.ActionAgentCall,
			Input:     req.Software,
			Type:      models.CommTypeInfo,
		})

		envelope := candidate.GetEOLData(ctx, req.Software, req.Version)
		if envelope == nil || !envelope.Success || !envelope.HasLifecycleDate() {
			o.appendComm(models.Communication{
				AgentName: candidate.Name(),
				Action:    models.ActionAgentError,
				Input:     req.Software,
				Output:    errorMessage(envelope),
				Type:      models.CommTypeError,
			})
			continue
		}

		confidence := o.score(candidate, req.Software, envelope)
		o.appendComm(models.Communication{
			AgentName: candidate.Name(),
			Action:    models.ActionAgentResult,
			Input:     req.Software,
			Output:    envelope.EOLDate,
			Type:      models.CommTypeSuccess,
		})

		if confidence > bestConfidence {
			best, bestAgent, bestConfidence = envelope, candidate, confidence
		}
		if confidence >= shortCircuitConfidence && candidate != o.fallback {
			break
		}
	}

	if best == nil {
		message := fmt.Sprintf("No EOL data found for %s %s across %d agents",
			req.Software, req.Version, len(candidates))
		if req.InternetOnly {
			message = fmt.Sprintf("Fallback web search found no EOL data for %s %s",
				req.Software, req.Version)
		}
		return o.failureResult(req, models.ErrCodeNoDataFound, message)
	}

	result = &Result{
		Success:        true,
		Data:           best,
		Assessment:     o.assess(best),
		AgentUsed:      bestAgent.Name(),
		Confidence:     bestConfidence,
		Communications: o.Communications(),
	}
	o.sessionStore(req, result)
	return result
}

// route derives the ordered candidate list per the routing rules:
// internet-only pins the fallback; kind="os" prepends the OS specialist;
// keyword matches follow declaration order; the endoflife catalogue and
// the fallback close the list.
func (o *Orchestrator) route(req Request) []agent.Agent {
	if req.InternetOnly {
		if o.fallback == nil {
			return nil
		}
		return []agent.Agent{o.fallback}
	}

	lower := strings.ToLower(req.Software)
	var candidates []agent.Agent

	if strings.EqualFold(req.Kind, "os") {
		if specialist := o.osSpecialist(lower); specialist != nil {
			candidates = append(candidates, specialist)
		}
	}

	var endoflife agent.Agent
	for _, vendor := range o.vendors {
		if vendor.Name() == endOfLifeAgentName {
			endoflife = vendor
			continue
		}
		if vendor.IsRelevant(lower) {
			candidates = append(candidates, vendor)
		}
	}
	if endoflife != nil {
		candidates = append(candidates, endoflife)
	}
	if o.fallback != nil {
		candidates = append(candidates, o.fallback)
	}
	return dedupeAgents(candidates)
}

// osSpecialist maps recognized OS families to their specialist agent.
func (o *Orchestrator) osSpecialist(lower string) agent.Agent {
	var name string
	switch {
	case strings.Contains(lower, "windows"):
		name = "microsoft"
	case strings.Contains(lower, "ubuntu"), strings.Contains(lower, "debian"):
		name = "ubuntu"
	case strings.Contains(lower, "red hat"), strings.Contains(lower, "rhel"),
		strings.Contains(lower, "centos"), strings.Contains(lower, "fedora"):
		name = "redhat"
	default:
		return nil
	}
	return o.vendorByName(name)
}

func (o *Orchestrator) vendorByName(name string) agent.Agent {
	for _, vendor := range o.vendors {
		if vendor.Name() == name {
			return vendor
		}
	}
	return nil
}

// score computes the orchestrator confidence for a successful envelope:
// 0.5 base, 0.9 when a routed specialist's keywords match, plus bonuses
// for each lifecycle date present, capped at 1.0.
func (o *Orchestrator) score(candidate agent.Agent, software string, envelope *models.Envelope) float64 {
	confidence := 0.5
	if o.inVendorMap(candidate) && candidate.IsRelevant(strings.ToLower(software)) {
		confidence = 0.9
	}
	if envelope.EOLDate != "" {
		confidence += 0.2
	}
	if envelope.SupportEndDate != "" {
		confidence += 0.1
	}
	if envelope.ReleaseDate != "" {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// inVendorMap reports whether the agent participates in keyword routing.
// The endoflife catalogue and the fallback do not: both accept anything,
// which must not count as a specialist keyword match.
func (o *Orchestrator) inVendorMap(candidate agent.Agent) bool {
	if candidate == o.fallback || candidate.Name() == endOfLifeAgentName {
		return false
	}
	for _, vendor := range o.vendors {
		if vendor == candidate {
			return true
		}
	}
	return false
}

func (o *Orchestrator) failureResult(req Request, code, message string) *Result {
	return &Result{
		Success:   false,
		AgentUsed: Name,
		Error:     &models.ErrorInfo{Code: code, Message: message},
		Data: &models.Envelope{
			Success:   false,
			Software:  req.Software,
			Version:   req.Version,
			AgentUsed: Name,
			Error:     &models.ErrorInfo{Code: code, Message: message},
		},
		Communications: o.Communications(),
	}
}

func agentNames(agents []agent.Agent) string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name()
	}
	return strings.Join(names, ",")
}

func errorMessage(envelope *models.Envelope) string {
	if envelope == nil {
		return "agent returned no envelope"
	}
	if envelope.Error != nil {
		return envelope.Error.Message
	}
	return "no lifecycle data"
}

func dedupeAgents(agents []agent.Agent) []agent.Agent {
	seen := make(map[string]bool, len(agents))
	out := agents[:0]
	for _, a := range agents {
		if seen[a.Name()] {
			continue
		}
		seen[a.Name()] = true
		out = append(out, a)
	}
	return out
}
