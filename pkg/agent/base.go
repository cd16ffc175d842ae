package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/scrape"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

// Deps are the collaborators handed to every agent at construction.
// Agents never reach upward into the orchestrator; cache and telemetry
// flow down through here.
type Deps struct {
	Cache     *cache.Cache
	Telemetry *telemetry.Collector
	Fetcher   *scrape.Client
	Logger    *slog.Logger
}

// ScrapeResult is what a vendor-specific scraper returns for one cycle.
// A nil result (with nil error) means the page was readable but held no
// row for the requested software — the fallback chain proceeds.
type ScrapeResult struct {
	Cycle          string
	EOLDate        string
	SupportEndDate string
	ReleaseDate    string
	SourceURL      string
	Confidence     float64 // 0 selects ConfidenceScraped
	Extra          map[string]any
}

// ScrapeFunc is the per-vendor scraping strategy invoked when cache and
// static table both miss. Implementations must not panic on unexpected
// markup; they return (nil, nil) to pass.
type ScrapeFunc func(ctx context.Context, software, version string) (*ScrapeResult, error)

// Base implements the shared agent pipeline: cache, then static table,
// then scrape. Vendor agents embed it and contribute a Descriptor plus an
// optional ScrapeFunc.
type Base struct {
	name     string
	keywords []string
	urls     []SourceURL
	static   *StaticTable
	scraper  ScrapeFunc
	deps     Deps
}

// NewBase wires a vendor agent. keywords are stored lowercase; urls are
// sorted by priority.
func NewBase(name string, keywords []string, urls []SourceURL, static *StaticTable, scraper ScrapeFunc, deps Deps) *Base {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	lowered := make([]string, len(keywords))
	for i, keyword := range keywords {
		lowered[i] = strings.ToLower(keyword)
	}
	sorted := make([]SourceURL, len(urls))
	copy(sorted, urls)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	return &Base{
		name:     name,
		keywords: lowered,
		urls:     sorted,
		static:   static,
		scraper:  scraper,
		deps:     deps,
	}
}

// Name returns the agent identifier used in envelopes and cache keys.
func (b *Base) Name() string { return b.name }

// IsRelevant reports whether the software name matches this agent's
// vendor lexicon.
func (b *Base) IsRelevant(software string) bool {
	return MatchKeywords(software, b.keywords)
}

// Keywords exposes the vendor lexicon for the orchestrator's routing map.
func (b *Base) Keywords() []string { return b.keywords }

// URLs returns the upstream registry, priority order.
func (b *Base) URLs() []SourceURL { return b.urls }

// StaticCycles exposes the static table entries (bulk warm paths).
func (b *Base) StaticCycles() []Cycle { return b.static.Cycles() }

// Deps exposes the collaborators to embedding vendor agents.
func (b *Base) Deps() Deps { return b.deps }

// GetEOLData runs the lookup pipeline. It never panics across the agent
// boundary: any internal panic is converted into an agent_exception
// failure envelope.
func (b *Base) GetEOLData(ctx context.Context, software, version string) (envelope *models.Envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.deps.Logger.Error("agent panicked, converting to failure envelope",
				"agent", b.name, "software", software, "panic", r)
			envelope = b.Failure(software, version, models.ErrCodeAgentException,
				fmt.Sprintf("agent %s raised an internal error", b.name))
			envelope.AdditionalData = map[string]any{
				"agent":     b.name,
				"exception": fmt.Sprint(r),
			}
			b.record(start, telemetry.Sample{Software: software, Version: version, Error: true})
		}
	}()

	// 1. Cache, tier-aware.
	if b.deps.Cache != nil {
		if cached, tier := b.deps.Cache.Get(ctx, software, version, b.name); cached != nil {
			b.deps.Logger.Debug("cache hit", "agent", b.name, "software", software,
				"version", version, "tier", string(tier))
			b.record(start, telemetry.Sample{Software: software, Version: version, Hit: true})
			return cached
		}
	}

	// 2. Static table.
	if cycle, ok := b.static.Lookup(software, version); ok {
		envelope := b.successFromCycle(software, version, cycle)
		b.cachePut(ctx, software, version, envelope, cache.PutOptions{
			SourceURL: cycle.Link,
			Verified:  true,
			// Static entries drift from vendor reality; the commit date is
			// the last point they were checked against the source.
			VerificationStatus: "static-table",
		})
		b.record(start, telemetry.Sample{Software: software, Version: version})
		return envelope
	}

	// 3. Scrape, when this agent has a scraping strategy.
	if b.scraper != nil {
		result, err := b.scraper(ctx, software, version)
		if err != nil {
			b.deps.Logger.Warn("scrape failed", "agent", b.name,
				"software", software, "version", version, "error", err)
			b.record(start, telemetry.Sample{Software: software, Version: version, Error: true})
			failure := b.Failure(software, version, models.ErrCodeScrapeFailed, err.Error())
			return failure
		}
		if result != nil {
			envelope := b.successFromScrape(software, version, result)
			b.cachePut(ctx, software, version, envelope, cache.PutOptions{
				SourceURL: result.SourceURL,
			})
			b.record(start, telemetry.Sample{Software: software, Version: version, URL: result.SourceURL})
			return envelope
		}
	}

	// 4. Total miss.
	b.record(start, telemetry.Sample{Software: software, Version: version})
	return b.Failure(software, version, models.ErrCodeNoDataFound,
		fmt.Sprintf("no EOL data found for %s %s", software, version))
}

// PurgeCache removes this agent's cached entries. With a version, only the
// exact triple is dropped; otherwise everything under (software, agent),
// or the agent's whole namespace when software is empty too.
func (b *Base) PurgeCache(ctx context.Context, software, version string) (int, error) {
	if b.deps.Cache == nil {
		return 0, nil
	}
	if software != "" && version != "" {
		if err := b.deps.Cache.Delete(ctx, software, version, b.name); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return b.deps.Cache.Purge(ctx, software, b.name)
}

// Success builds the shared success envelope shape.
func (b *Base) Success(software, version string, source models.DataSource, confidence float64) *models.Envelope {
	return &models.Envelope{
		Success:    true,
		Software:   software,
		Version:    version,
		Confidence: confidence,
		AgentUsed:  b.name,
		DataSource: source,
	}
}

// Failure builds the shared failure envelope shape.
func (b *Base) Failure(software, version, code, message string) *models.Envelope {
	return &models.Envelope{
		Success:   false,
		Software:  software,
		Version:   version,
		AgentUsed: b.name,
		Error: &models.ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// CacheScraped persists a scrape result under the agent's namespace.
// Exposed for bulk-fetch implementations that write many rows per page.
func (b *Base) CacheScraped(ctx context.Context, software, version string, result *ScrapeResult) *models.Envelope {
	envelope := b.successFromScrape(software, version, result)
	b.cachePut(ctx, software, version, envelope, cache.PutOptions{
		SourceURL: result.SourceURL,
	})
	return envelope
}

func (b *Base) cachePut(ctx context.Context, software, version string, envelope *models.Envelope, opts cache.PutOptions) {
	if b.deps.Cache == nil {
		return
	}
	b.deps.Cache.Put(ctx, software, version, b.name, envelope, opts)
}

func (b *Base) successFromCycle(software, version string, cycle Cycle) *models.Envelope {
	envelope := b.Success(software, versionOrCycle(version, cycle.Cycle), models.DataSourceStatic, ConfidenceStatic)
	envelope.EOLDate = cycle.EOLDate
	envelope.SupportEndDate = cycle.SupportEndDate
	envelope.ReleaseDate = cycle.ReleaseDate
	envelope.SourceURL = cycle.Link
	envelope.AdditionalData = map[string]any{"cycle": cycle.Cycle}
	if cycle.LTS {
		envelope.AdditionalData["lts"] = true
	}
	if cycle.Codename != "" {
		envelope.AdditionalData["codename"] = cycle.Codename
	}
	return envelope
}

func (b *Base) successFromScrape(software, version string, result *ScrapeResult) *models.Envelope {
	confidence := result.Confidence
	if confidence == 0 {
		confidence = ConfidenceScraped
	}
	envelope := b.Success(software, versionOrCycle(version, result.Cycle), models.DataSourceScraped, confidence)
	envelope.EOLDate = result.EOLDate
	envelope.SupportEndDate = result.SupportEndDate
	envelope.ReleaseDate = result.ReleaseDate
	envelope.SourceURL = result.SourceURL
	if result.Cycle != "" || len(result.Extra) > 0 {
		envelope.AdditionalData = map[string]any{}
		if result.Cycle != "" {
			envelope.AdditionalData["cycle"] = result.Cycle
		}
		for k, v := range result.Extra {
			envelope.AdditionalData[k] = v
		}
	}
	return envelope
}

func (b *Base) record(start time.Time, sample telemetry.Sample) {
	if b.deps.Telemetry == nil {
		return
	}
	sample.Duration = time.Since(start)
	b.deps.Telemetry.RecordRequest(b.name, sample)
}

func versionOrCycle(version, cycle string) string {
	if version != "" {
		return version
	}
	return cycle
}
