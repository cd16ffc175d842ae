package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// fakeStore is an in-memory Store used to exercise the two-tier paths
// without Postgres.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]models.CacheDocument
	getErr  error
	putErr  error
	gets    int
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]models.CacheDocument)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]models.CacheDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	return []models.CacheDocument{doc}, nil
}

func (s *fakeStore) Upsert(_ context.Context, doc models.CacheDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.putErr != nil {
		return s.putErr
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *fakeStore) Purge(_ context.Context, software, agent string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, doc := range s.docs {
		if software != "" && !strings.EqualFold(doc.SoftwareName, software) {
			continue
		}
		if agent != "" && doc.AgentName != agent {
			continue
		}
		delete(s.docs, key)
		deleted++
	}
	return deleted, nil
}

func (s *fakeStore) Stats(_ context.Context) (StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := StoreStats{PerAgent: make(map[string]int)}
	now := time.Now()
	for _, doc := range s.docs {
		stats.Total++
		if doc.Expired(now) {
			stats.Expired++
		} else {
			stats.Active++
		}
		stats.PerAgent[doc.AgentName]++
	}
	return stats, nil
}

func (s *fakeStore) Healthy(_ context.Context) error { return nil }

func successEnvelope(software, version string) *models.Envelope {
	return &models.Envelope{
		Success:    true,
		Software:   software,
		Version:    version,
		EOLDate:    "2030-04-23",
		Confidence: 0.9,
		AgentUsed:  "ubuntu",
		DataSource: models.DataSourceStatic,
	}
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("ubuntu", "Ubuntu", "20.04")
	k2 := Key("ubuntu", "ubuntu", "20.04")
	assert.Equal(t, k1, k2, "case-insensitive on software")
	assert.Len(t, k1, 16)

	k3 := Key("ubuntu", "ubuntu", "")
	k4 := Key("ubuntu", "ubuntu", "any")
	assert.Equal(t, k3, k4, "empty version normalizes to any")

	assert.NotEqual(t, k1, Key("redhat", "ubuntu", "20.04"), "agent namespaces the key")
}

func TestCache_PutThenGet_MemoryHit(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)

	ok := c.Put(context.Background(), "Ubuntu", "20.04", "ubuntu",
		successEnvelope("Ubuntu", "20.04"), PutOptions{SourceURL: "https://wiki.ubuntu.com/Releases"})
	require.True(t, ok)

	envelope, tier := c.Get(context.Background(), "Ubuntu", "20.04", "ubuntu")
	require.NotNil(t, envelope)
	assert.Equal(t, TierMemory, tier)
	assert.Equal(t, "2030-04-23", envelope.EOLDate)
	assert.Equal(t, models.DataSourceCache, envelope.DataSource,
		"memory-tier hits are relabelled as cache-served")
}

func TestCache_PersistentHitPromotesToMemory(t *testing.T) {
	store := newFakeStore()
	seed := New(store, nil)
	seed.Put(context.Background(), "Ubuntu", "20.04", "ubuntu",
		successEnvelope("Ubuntu", "20.04"), PutOptions{})

	// Fresh cache: empty memory tier, shared store.
	c := New(store, nil)

	envelope, tier := c.Get(context.Background(), "ubuntu", "20.04", "ubuntu")
	require.NotNil(t, envelope)
	assert.Equal(t, TierPersistent, tier)
	assert.Equal(t, models.DataSourceCache, envelope.DataSource)

	// Second read now comes from memory.
	_, tier = c.Get(context.Background(), "ubuntu", "20.04", "ubuntu")
	assert.Equal(t, TierMemory, tier)
}

func TestCache_ExpiredEntryIsLazyDeleted(t *testing.T) {
	store := newFakeStore()
	past := time.Now().Add(-31 * 24 * time.Hour)
	c := New(store, nil, WithClock(func() time.Time { return past }))
	c.Put(context.Background(), "php", "8.1", "php", successEnvelope("php", "8.1"), PutOptions{})

	// Back to real time: the entry written 31 days ago is expired.
	live := New(store, nil)
	envelope, tier := live.Get(context.Background(), "php", "8.1", "php")
	assert.Nil(t, envelope)
	assert.Equal(t, TierNone, tier)

	store.mu.Lock()
	remaining := len(store.docs)
	store.mu.Unlock()
	assert.Zero(t, remaining, "expired document should be lazy-deleted")
}

func TestCache_MarkedAsFailedTreatedAsAbsent(t *testing.T) {
	store := newFakeStore()
	key := Key("php", "php", "8.1")
	payload, _ := json.Marshal(successEnvelope("php", "8.1"))
	store.docs[key] = models.CacheDocument{
		ID:             key,
		AgentName:      "php",
		SoftwareName:   "php",
		Version:        "8.1",
		ResponseData:   payload,
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(time.Hour),
		MarkedAsFailed: true,
	}

	c := New(store, nil)
	envelope, tier := c.Get(context.Background(), "php", "8.1", "php")
	assert.Nil(t, envelope)
	assert.Equal(t, TierNone, tier)
}

func TestCache_PersistentWriteFailureStillPopulatesMemory(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("store offline")
	c := New(store, nil)

	ok := c.Put(context.Background(), "nodejs", "18", "nodejs",
		successEnvelope("nodejs", "18"), PutOptions{})
	assert.True(t, ok, "write path is best-effort")

	envelope, tier := c.Get(context.Background(), "nodejs", "18", "nodejs")
	require.NotNil(t, envelope)
	assert.Equal(t, TierMemory, tier)
}

func TestCache_PersistentReadFailureDegradesToMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("store offline")
	c := New(store, nil)

	envelope, tier := c.Get(context.Background(), "nodejs", "18", "nodejs")
	assert.Nil(t, envelope)
	assert.Equal(t, TierNone, tier)
}

func TestCache_NilStoreIsMemoryOnly(t *testing.T) {
	c := New(nil, nil)
	c.Put(context.Background(), "python", "3.11", "python",
		successEnvelope("python", "3.11"), PutOptions{})

	_, tier := c.Get(context.Background(), "python", "3.11", "python")
	assert.Equal(t, TierMemory, tier)

	health := c.Healthy(context.Background())
	assert.Equal(t, "ok", health["memory"])
	assert.Equal(t, "not configured", health["persistent"])
}

func TestCache_UpsertIdempotence(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)

	envelope := successEnvelope("Apache Tomcat", "10.1")
	c.Put(context.Background(), "Apache Tomcat", "10.1", "apache", envelope, PutOptions{})
	c.Put(context.Background(), "Apache Tomcat", "10.1", "apache", envelope, PutOptions{})

	store.mu.Lock()
	count := len(store.docs)
	store.mu.Unlock()
	assert.Equal(t, 1, count, "two puts with the same key leave one document")
}

func TestCache_PurgeByAgent(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)
	c.Put(context.Background(), "Ubuntu", "20.04", "ubuntu", successEnvelope("Ubuntu", "20.04"), PutOptions{})
	c.Put(context.Background(), "RHEL", "8", "redhat", successEnvelope("RHEL", "8"), PutOptions{})

	deleted, err := c.Purge(context.Background(), "", "ubuntu")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, tier := c.Get(context.Background(), "Ubuntu", "20.04", "ubuntu")
	assert.Equal(t, TierNone, tier)
	_, tier = c.Get(context.Background(), "RHEL", "8", "redhat")
	assert.NotEqual(t, TierNone, tier)
}

func TestCache_VerifiedDocumentPreferred(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)

	// Simulate two rows under the same key: unverified high-confidence vs
	// verified lower-confidence. Verified must win.
	key := Key("ubuntu", "ubuntu", "22.04")
	verified := successEnvelope("ubuntu", "22.04")
	verified.EOLDate = "2032-04-01"
	vPayload, _ := json.Marshal(verified)
	uPayload, _ := json.Marshal(successEnvelope("ubuntu", "22.04"))

	docs := []models.CacheDocument{
		{ID: key, AgentName: "ubuntu", SoftwareName: "ubuntu", Version: "22.04",
			ResponseData: uPayload, ConfidenceLevel: 0.95,
			CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)},
		{ID: key, AgentName: "ubuntu", SoftwareName: "ubuntu", Version: "22.04",
			ResponseData: vPayload, ConfidenceLevel: 0.8, Verified: true,
			CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)},
	}
	multiStore := &multiDocStore{fakeStore: store, multi: docs}

	c = New(multiStore, nil)
	envelope, tier := c.Get(context.Background(), "ubuntu", "22.04", "ubuntu")
	require.NotNil(t, envelope)
	assert.Equal(t, TierPersistent, tier)
	assert.Equal(t, "2032-04-01", envelope.EOLDate)
}

// multiDocStore returns a fixed multi-row result to exercise the
// (verified desc, confidence desc) selection order.
type multiDocStore struct {
	*fakeStore
	multi []models.CacheDocument
}

func (s *multiDocStore) Get(_ context.Context, _ string) ([]models.CacheDocument, error) {
	out := make([]models.CacheDocument, len(s.multi))
	copy(out, s.multi)
	return out, nil
}

func TestCache_StatsMemoized(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)
	c.Put(context.Background(), "Ubuntu", "20.04", "ubuntu", successEnvelope("Ubuntu", "20.04"), PutOptions{})

	first := c.Stats(context.Background())
	assert.Equal(t, 1, first.Total)
	assert.True(t, first.PersistentOnline)

	// A second Stats call within the memoization window must not hit the
	// store again.
	store.mu.Lock()
	getsBefore := store.gets
	store.mu.Unlock()

	_ = c.Stats(context.Background())

	store.mu.Lock()
	getsAfter := store.gets
	store.mu.Unlock()
	assert.Equal(t, getsBefore, getsAfter)
}

func TestMemory_CapacityEviction(t *testing.T) {
	m := NewMemory(2)
	now := time.Now()
	doc := models.CacheDocument{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	m.Set("a", doc, successEnvelope("a", "1"), now)
	m.Set("b", doc, successEnvelope("b", "1"), now.Add(time.Second))
	m.Set("c", doc, successEnvelope("c", "1"), now.Add(2*time.Second))

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("a", now.Add(3*time.Second))
	assert.False(t, ok, "oldest entry evicted")
	_, ok = m.Get("c", now.Add(3*time.Second))
	assert.True(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(newFakeStore(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Put(context.Background(), "Ubuntu", "20.04", "ubuntu",
				successEnvelope("Ubuntu", "20.04"), PutOptions{})
			c.Get(context.Background(), "Ubuntu", "20.04", "ubuntu")
		}(i)
	}
	wg.Wait()
}
