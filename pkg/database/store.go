package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/codeready-toolchain/eolscout/pkg/cache"
	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// EOLStore is the persistent cache tier over the eol_cache table.
// It implements cache.Store. All operations are safe for concurrent use;
// the sqlx handle pools connections internally.
type EOLStore struct {
	db *sqlx.DB
}

// NewEOLStore creates the store over an open database client.
func NewEOLStore(client *Client) *EOLStore {
	return &EOLStore{db: client.DB()}
}

// Get returns the documents stored under key (0 or 1 rows; the key is the
// primary key, a slice keeps the interface shape uniform with document
// stores that allow duplicates).
func (s *EOLStore) Get(ctx context.Context, key string) ([]models.CacheDocument, error) {
	var doc models.CacheDocument
	err := s.db.GetContext(ctx, &doc,
		`SELECT id, agent_name, software_name, version, response_data,
		        confidence_level, created_at, expires_at, source_url,
		        verified, verification_status, marked_as_failed
		 FROM eol_cache WHERE id = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query eol_cache: %w", err)
	}
	return []models.CacheDocument{doc}, nil
}

// Upsert inserts or replaces the document identified by doc.ID.
func (s *EOLStore) Upsert(ctx context.Context, doc models.CacheDocument) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO eol_cache
		    (id, agent_name, software_name, version, response_data,
		     confidence_level, created_at, expires_at, source_url,
		     verified, verification_status, marked_as_failed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
		    agent_name = EXCLUDED.agent_name,
		    software_name = EXCLUDED.software_name,
		    version = EXCLUDED.version,
		    response_data = EXCLUDED.response_data,
		    confidence_level = EXCLUDED.confidence_level,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    source_url = EXCLUDED.source_url,
		    verified = EXCLUDED.verified,
		    verification_status = EXCLUDED.verification_status,
		    marked_as_failed = EXCLUDED.marked_as_failed`,
		doc.ID, doc.AgentName, doc.SoftwareName, doc.Version, doc.ResponseData,
		doc.ConfidenceLevel, doc.CreatedAt, doc.ExpiresAt, doc.SourceURL,
		doc.Verified, doc.VerificationStatus, doc.MarkedAsFailed)
	if err != nil {
		return fmt.Errorf("upsert eol_cache: %w", err)
	}
	return nil
}

// Delete removes the document with the given key; absent keys are a no-op.
func (s *EOLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM eol_cache WHERE id = $1`, key); err != nil {
		return fmt.Errorf("delete eol_cache: %w", err)
	}
	return nil
}

// Purge mass-deletes by optional software and agent filters and reports
// the number of rows removed.
func (s *EOLStore) Purge(ctx context.Context, software, agent string) (int, error) {
	clauses := []string{"TRUE"}
	args := []any{}
	if software != "" {
		args = append(args, strings.ToLower(software))
		clauses = append(clauses, fmt.Sprintf("lower(software_name) = $%d", len(args)))
	}
	if agent != "" {
		args = append(args, agent)
		clauses = append(clauses, fmt.Sprintf("agent_name = $%d", len(args)))
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM eol_cache WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("purge eol_cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge eol_cache rows affected: %w", err)
	}
	return int(affected), nil
}

// Stats aggregates document counts across the table.
func (s *EOLStore) Stats(ctx context.Context) (cache.StoreStats, error) {
	stats := cache.StoreStats{PerAgent: make(map[string]int)}
	now := time.Now()

	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_name,
		        COUNT(*) AS total,
		        COUNT(*) FILTER (WHERE expires_at <= $1) AS expired
		 FROM eol_cache GROUP BY agent_name`, now)
	if err != nil {
		return stats, fmt.Errorf("stats eol_cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var agent string
		var total, expired int
		if err := rows.Scan(&agent, &total, &expired); err != nil {
			return stats, fmt.Errorf("scan eol_cache stats: %w", err)
		}
		stats.PerAgent[agent] = total
		stats.Total += total
		stats.Expired += expired
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate eol_cache stats: %w", err)
	}
	stats.Active = stats.Total - stats.Expired
	return stats, nil
}

// Healthy probes connectivity with a bounded ping.
func (s *EOLStore) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
