package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// Tier identifies which cache layer satisfied a read.
type Tier string

const (
	TierNone       Tier = ""
	TierMemory     Tier = "memory"
	TierPersistent Tier = "persistent"
)

// statsMemoization is how long an aggregated Stats result is served before
// the persistent store is queried again.
const statsMemoization = 5 * time.Minute

// Store is the persistent tier. database.EOLStore implements it; tests
// substitute an in-memory fake. A nil Store degrades the cache to
// memory-only operation.
type Store interface {
	// Get returns every document stored under key (normally 0 or 1).
	Get(ctx context.Context, key string) ([]models.CacheDocument, error)
	// Upsert inserts or replaces the document identified by doc.ID.
	Upsert(ctx context.Context, doc models.CacheDocument) error
	// Delete removes the document with the given key; absent keys are a no-op.
	Delete(ctx context.Context, key string) error
	// Purge mass-deletes by optional software and agent filters and reports
	// the number of rows removed.
	Purge(ctx context.Context, software, agent string) (int, error)
	// Stats aggregates document counts.
	Stats(ctx context.Context) (StoreStats, error)
	// Healthy probes connectivity.
	Healthy(ctx context.Context) error
}

// StoreStats is the aggregate view of the persistent tier.
type StoreStats struct {
	Total    int            `json:"total"`
	Expired  int            `json:"expired"`
	Active   int            `json:"active"`
	PerAgent map[string]int `json:"per_agent_counts"`
}

// Stats is the combined cache statistics payload.
type Stats struct {
	StoreStats
	MemoryEntries    int  `json:"memory_entries"`
	PersistentOnline bool `json:"persistent_online"`
}

// Cache is the two-tier facade. Reads promote persistent hits into memory;
// writes are best-effort against the store and never fail the caller.
type Cache struct {
	memory *Memory
	store  Store
	logger *slog.Logger
	now    func() time.Time

	statsMu      sync.Mutex
	statsCached  *Stats
	statsFetched time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMemoryCapacity bounds the memory tier.
func WithMemoryCapacity(n int) Option {
	return func(c *Cache) { c.memory = NewMemory(n) }
}

// New creates a two-tier cache. store may be nil, in which case the cache
// operates memory-only and Stats reports the persistent tier offline.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		memory: NewMemory(0),
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs the tiered read: memory first, then the persistent store.
// Persistent hits are promoted into memory. Returns the envelope and the
// tier that satisfied the read, or (nil, TierNone) on a miss.
func (c *Cache) Get(ctx context.Context, software, version, agent string) (*models.Envelope, Tier) {
	key := Key(agent, software, version)
	now := c.now()

	if envelope, ok := c.memory.Get(key, now); ok {
		// Cache-served envelopes always advertise the cache as their
		// source, whichever tier answered.
		envelope.DataSource = models.DataSourceCache
		return envelope, TierMemory
	}

	if c.store == nil {
		return nil, TierNone
	}

	docs, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("persistent cache read failed, continuing memory-only",
			"key", key, "agent", agent, "error", err)
		return nil, TierNone
	}
	if len(docs) == 0 {
		return nil, TierNone
	}

	// Prefer verified documents, then higher confidence.
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Verified != docs[j].Verified {
			return docs[i].Verified
		}
		return docs[i].ConfidenceLevel > docs[j].ConfidenceLevel
	})

	best := docs[0]
	if !best.Usable(now) {
		// Lazy delete: the row is stale, remove it best-effort.
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Debug("lazy delete of expired cache document failed",
				"key", key, "error", err)
		}
		return nil, TierNone
	}

	var envelope models.Envelope
	if err := json.Unmarshal(best.ResponseData, &envelope); err != nil {
		c.logger.Warn("cache document holds malformed envelope, deleting",
			"key", key, "error", err)
		_ = c.store.Delete(ctx, key)
		return nil, TierNone
	}
	envelope.DataSource = models.DataSourceCache

	c.memory.Set(key, best, &envelope, now)
	return envelope.Clone(), TierPersistent
}

// PutOptions carries the optional metadata for a cache write.
type PutOptions struct {
	SourceURL          string
	Verified           bool
	VerificationStatus string
}

// Put upserts the envelope under (agent, software, version). The write is
// best-effort: a persistent-store failure still populates the memory tier
// so the current process benefits. Returns true when at least the memory
// tier was written.
//
// Low-confidence envelopes are persisted too; the minimum-confidence gate
// is an orchestrator policy, not a cache concern.
func (c *Cache) Put(ctx context.Context, software, version, agent string, envelope *models.Envelope, opts PutOptions) bool {
	if envelope == nil {
		return false
	}
	key := Key(agent, software, version)
	now := c.now()

	payload, err := json.Marshal(envelope)
	if err != nil {
		c.logger.Error("failed to marshal envelope for caching",
			"key", key, "agent", agent, "error", err)
		return false
	}

	doc := models.CacheDocument{
		ID:                 key,
		AgentName:          agent,
		SoftwareName:       software,
		Version:            versionOrAny(version),
		ResponseData:       payload,
		ConfidenceLevel:    envelope.Confidence,
		CreatedAt:          now,
		ExpiresAt:          now.Add(models.DefaultCacheTTL),
		SourceURL:          opts.SourceURL,
		Verified:           opts.Verified,
		VerificationStatus: opts.VerificationStatus,
	}

	if c.store != nil {
		if err := c.store.Upsert(ctx, doc); err != nil {
			c.logger.Warn("persistent cache write failed, keeping memory tier only",
				"key", key, "agent", agent, "error", err)
		}
	}

	c.memory.Set(key, doc, envelope, now)
	return true
}

// Delete removes both tiers' entry for the triple.
func (c *Cache) Delete(ctx context.Context, software, version, agent string) error {
	key := Key(agent, software, version)
	c.memory.Delete(key)
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, key)
}

// Purge mass-deletes entries matching the optional software and agent
// filters from both tiers and returns the persistent deletion count.
func (c *Cache) Purge(ctx context.Context, software, agent string) (int, error) {
	c.memory.PurgeFunc(func(doc models.CacheDocument) bool {
		if software != "" && !strings.EqualFold(doc.SoftwareName, software) {
			return true
		}
		if agent != "" && doc.AgentName != agent {
			return true
		}
		return false
	})

	c.invalidateStats()

	if c.store == nil {
		return 0, nil
	}
	return c.store.Purge(ctx, software, agent)
}

// Stats aggregates counters across both tiers. Persistent-store results
// are memoized for 5 minutes so the stats endpoint cannot thrash the store.
func (c *Cache) Stats(ctx context.Context) Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	now := c.now()
	if c.statsCached != nil && now.Sub(c.statsFetched) < statsMemoization {
		out := *c.statsCached
		out.MemoryEntries = c.memory.Len()
		return out
	}

	stats := Stats{MemoryEntries: c.memory.Len()}
	if c.store != nil {
		storeStats, err := c.store.Stats(ctx)
		if err != nil {
			c.logger.Warn("persistent cache stats query failed", "error", err)
		} else {
			stats.StoreStats = storeStats
			stats.PersistentOnline = true
		}
	}

	c.statsCached = &stats
	c.statsFetched = now
	return stats
}

// Healthy reports per-tier status: memory is always up, persistent depends
// on the store probe.
func (c *Cache) Healthy(ctx context.Context) map[string]string {
	status := map[string]string{"memory": "ok"}
	switch {
	case c.store == nil:
		status["persistent"] = "not configured"
	default:
		if err := c.store.Healthy(ctx); err != nil {
			status["persistent"] = "unavailable: " + err.Error()
		} else {
			status["persistent"] = "ok"
		}
	}
	return status
}

func (c *Cache) invalidateStats() {
	c.statsMu.Lock()
	c.statsCached = nil
	c.statsMu.Unlock()
}

func versionOrAny(version string) string {
	if version == "" {
		return "any"
	}
	return version
}
