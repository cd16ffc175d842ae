package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
	"github.com/codeready-toolchain/eolscout/pkg/telemetry"
)

// Name is the agent identifier for the generic fallback.
const Name = "fallback"

// MaxConfidence is the ceiling for anything the fallback agent returns.
// Search-result text is secondhand evidence; it never outranks a vendor
// page.
const MaxConfidence = 0.95

// Agent is the generic web-search fallback. It does not implement the
// cache → static → scrape pipeline of the vendor base: there is no static
// table, and its error taxonomy (challenge pages, empty extractions) is
// its own.
type Agent struct {
	deps     agent.Deps
	searcher Searcher
	llm      *LLMExtractor
	logger   *slog.Logger
}

// New wires the fallback agent. llm may be nil (feature disabled).
func New(deps agent.Deps, searcher Searcher, llm *LLMExtractor) *Agent {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{deps: deps, searcher: searcher, llm: llm, logger: logger}
}

// Name returns the agent identifier.
func (a *Agent) Name() string { return Name }

// IsRelevant always reports true; the fallback takes anything.
func (a *Agent) IsRelevant(string) bool { return true }

// URLs describes the search engine the agent drives.
func (a *Agent) URLs() []agent.SourceURL {
	return []agent.SourceURL{
		{URL: "https://www.bing.com/search", Description: "web search", Priority: 1, Active: true},
	}
}

// GetEOLData searches the web for lifecycle statements about the product
// and extracts dates from the top results. Panics are converted to
// agent_exception envelopes at this boundary.
func (a *Agent) GetEOLData(ctx context.Context, software, version string) (envelope *models.Envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("fallback agent panicked", "software", software, "panic", r)
			envelope = a.failure(software, version, models.ErrCodeAgentException,
				"fallback agent raised an internal error")
			envelope.AdditionalData = map[string]any{"agent": Name, "exception": fmt.Sprint(r)}
			a.record(start, telemetry.Sample{Software: software, Version: version, Error: true})
		}
	}()

	if a.deps.Cache != nil {
		if cached, _ := a.deps.Cache.Get(ctx, software, version, Name); cached != nil {
			a.record(start, telemetry.Sample{Software: software, Version: version, Hit: true})
			return cached
		}
	}

	query := searchQuery(software, version)
	result, err := a.searcher.Search(ctx, query)
	if err != nil {
		a.record(start, telemetry.Sample{Software: software, Version: version, Error: true})
		if errors.Is(err, ErrChallengeBlocked) {
			return a.failure(software, version, models.ErrCodeCloudflareBlocked,
				"search engine served a persistent challenge page")
		}
		return a.failure(software, version, models.ErrCodeScrapeFailed, err.Error())
	}

	extraction := ExtractDates(result.Text)
	dataSource := models.DataSourceScraped

	if !extraction.HasLifecycleDate() && a.llm != nil {
		llmExtraction, llmErr := a.llm.Extract(ctx, software, version, result.Text)
		if llmErr != nil {
			a.logger.Warn("LLM-assisted extraction failed", "software", software, "error", llmErr)
		} else {
			extraction = mergeExtractions(extraction, llmExtraction)
			if extraction.HasLifecycleDate() {
				dataSource = models.DataSourceLLMAssisted
			}
		}
	}

	if !extraction.HasLifecycleDate() {
		a.record(start, telemetry.Sample{Software: software, Version: version, URL: result.URL})
		return a.failure(software, version, models.ErrCodeNoEOLDateFound,
			fmt.Sprintf("no EOL date found in search results for %s %s", software, version))
	}

	confidence := extraction.Confidence
	if confidence > MaxConfidence {
		confidence = MaxConfidence
	}

	envelope = &models.Envelope{
		Success:        true,
		Software:       software,
		Version:        version,
		EOLDate:        extraction.EOLDate,
		SupportEndDate: extraction.SupportEndDate,
		ReleaseDate:    extraction.ReleaseDate,
		Confidence:     confidence,
		SourceURL:      result.URL,
		AgentUsed:      Name,
		DataSource:     dataSource,
	}
	if extraction.Evidence != "" {
		envelope.AdditionalData = map[string]any{"evidence": extraction.Evidence}
	}

	if a.deps.Cache != nil {
		a.deps.Cache.Put(ctx, software, version, Name, envelope, cache.PutOptions{SourceURL: result.URL})
	}
	a.record(start, telemetry.Sample{Software: software, Version: version, URL: result.URL, RecordsExtracted: 1})
	return envelope
}

// PurgeCache drops the fallback agent's cached entries.
func (a *Agent) PurgeCache(ctx context.Context, software, version string) (int, error) {
	if a.deps.Cache == nil {
		return 0, nil
	}
	if software != "" && version != "" {
		if err := a.deps.Cache.Delete(ctx, software, version, Name); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return a.deps.Cache.Purge(ctx, software, Name)
}

// Close releases the browser.
func (a *Agent) Close() {
	if a.searcher != nil {
		a.searcher.Close()
	}
}

func (a *Agent) failure(software, version, code, message string) *models.Envelope {
	return &models.Envelope{
		Success:   false,
		Software:  software,
		Version:   version,
		AgentUsed: Name,
		Error:     &models.ErrorInfo{Code: code, Message: message},
	}
}

func (a *Agent) record(start time.Time, sample telemetry.Sample) {
	if a.deps.Telemetry == nil {
		return
	}
	sample.Duration = time.Since(start)
	a.deps.Telemetry.RecordRequest(Name, sample)
}

// searchQuery builds the search string; the version is folded in when
// present so the engine ranks cycle-specific pages first.
func searchQuery(software, version string) string {
	parts := []string{software}
	if version != "" {
		parts = append(parts, version)
	}
	parts = append(parts, "end of life date")
	return strings.Join(parts, " ")
}

// mergeExtractions overlays LLM-provided fields on the regex result. Only
// fields the model populated move across.
func mergeExtractions(regex, llm *Extraction) *Extraction {
	if llm == nil {
		return regex
	}
	merged := &Extraction{}
	if regex != nil {
		*merged = *regex
	}
	if llm.EOLDate != "" {
		merged.EOLDate = llm.EOLDate
	}
	if llm.SupportEndDate != "" {
		merged.SupportEndDate = llm.SupportEndDate
	}
	if llm.ReleaseDate != "" {
		merged.ReleaseDate = llm.ReleaseDate
	}
	if llm.Confidence > merged.Confidence && (llm.EOLDate != "" || llm.SupportEndDate != "" || llm.ReleaseDate != "") {
		merged.Confidence = llm.Confidence
	}
	return merged
}

var _ agent.Agent = (*Agent)(nil)
