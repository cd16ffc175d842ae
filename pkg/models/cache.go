package models

import "time"

// DefaultCacheTTL is how long a cache document stays valid.
const DefaultCacheTTL = 30 * 24 * time.Hour

// CacheDocument is the persisted form of an agent response in the
// eol_cache store. ID doubles as the partition key (cache_key).
type CacheDocument struct {
	ID                 string    `db:"id" json:"id"`
	AgentName          string    `db:"agent_name" json:"agent_name"`
	SoftwareName       string    `db:"software_name" json:"software_name"`
	Version            string    `db:"version" json:"version"`
	ResponseData       []byte    `db:"response_data" json:"response_data"`
	ConfidenceLevel    float64   `db:"confidence_level" json:"confidence_level"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	ExpiresAt          time.Time `db:"expires_at" json:"expires_at"`
	SourceURL          string    `db:"source_url" json:"source_url"`
	Verified           bool      `db:"verified" json:"verified"`
	VerificationStatus string    `db:"verification_status" json:"verification_status,omitempty"`
	MarkedAsFailed     bool      `db:"marked_as_failed" json:"marked_as_failed"`
}

// Expired reports whether the document is past its TTL at the given instant.
func (d *CacheDocument) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Usable reports whether a read may return this document: live and not
// tombstoned by a failed verification.
func (d *CacheDocument) Usable(now time.Time) bool {
	return !d.Expired(now) && !d.MarkedAsFailed
}
