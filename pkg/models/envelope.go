// Package models defines the shared data types exchanged between the
// orchestrator, agents, cache, and HTTP API.
package models

import "time"

// DataSource identifies where an envelope's lifecycle data came from.
type DataSource string

const (
	DataSourceStatic      DataSource = "static"
	DataSourceScraped     DataSource = "scraped"
	DataSourceCache       DataSource = "cache"
	DataSourceLLMAssisted DataSource = "llm_assisted"
)

// Error codes propagated in the envelope's error object.
const (
	ErrCodeNoDataFound       = "no_data_found"
	ErrCodeCloudflareBlocked = "cloudflare_blocked"
	ErrCodeNoEOLDateFound    = "no_eol_date_found"
	ErrCodeAgentException    = "agent_exception"
	ErrCodeCacheUnavailable  = "cache_unavailable"
	ErrCodeScrapeFailed      = "scrape_failed"
)

// ErrorInfo carries a machine-readable code plus a human-readable message
// for failure envelopes.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the uniform response every agent produces.
//
// Invariant: Success=true implies at least one of EOLDate, SupportEndDate,
// ReleaseDate is non-empty. Dates are ISO-8601 (YYYY-MM-DD) strings; empty
// string means unknown.
type Envelope struct {
	Success        bool           `json:"success"`
	Software       string         `json:"software"`
	Version        string         `json:"version,omitempty"`
	EOLDate        string         `json:"eol_date,omitempty"`
	SupportEndDate string         `json:"support_end_date,omitempty"`
	ReleaseDate    string         `json:"release_date,omitempty"`
	Confidence     float64        `json:"confidence"`
	SourceURL      string         `json:"source_url,omitempty"`
	AgentUsed      string         `json:"agent_used"`
	DataSource     DataSource     `json:"data_source,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
	Error          *ErrorInfo     `json:"error,omitempty"`
}

// HasLifecycleDate reports whether at least one lifecycle date is populated.
func (e *Envelope) HasLifecycleDate() bool {
	return e.EOLDate != "" || e.SupportEndDate != "" || e.ReleaseDate != ""
}

// Clone returns a deep copy of the envelope. AdditionalData is copied
// one level deep, which is sufficient because values are scalars or
// short strings in practice.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := *e
	if e.Error != nil {
		errCopy := *e.Error
		out.Error = &errCopy
	}
	if e.AdditionalData != nil {
		out.AdditionalData = make(map[string]any, len(e.AdditionalData))
		for k, v := range e.AdditionalData {
			out.AdditionalData[k] = v
		}
	}
	return &out
}

// EOLTime parses the envelope's EOL date. The second return is false
// when the date is absent or malformed, so callers can tell "no EOL
// date" apart from a genuine zero time.
func (e *Envelope) EOLTime() (time.Time, bool) {
	if e.EOLDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", e.EOLDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
