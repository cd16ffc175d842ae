package cache

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// DefaultMemoryCapacity bounds the hot entries mirrored per process.
const DefaultMemoryCapacity = 512

type memoryEntry struct {
	doc        models.CacheDocument
	envelope   *models.Envelope
	lastAccess time.Time
}

// Memory is the in-process cache tier. It mirrors the most recently used
// persistent documents so repeated lookups skip the store round-trip.
// All access goes through a single mutex; expected request rates are tens
// per second, so finer-grained locking is not worth the complexity.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	capacity int
}

// NewMemory creates a memory tier holding at most capacity entries.
// capacity <= 0 selects DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		entries:  make(map[string]*memoryEntry),
		capacity: capacity,
	}
}

// Get returns the cached envelope for key if present, unexpired, and not
// marked as failed. Expired entries are evicted lazily.
func (m *Memory) Get(key string, now time.Time) (*models.Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.doc.Usable(now) {
		delete(m.entries, key)
		return nil, false
	}
	entry.lastAccess = now
	return entry.envelope.Clone(), true
}

// Set stores a document plus its decoded envelope, evicting the least
// recently used entry when at capacity.
func (m *Memory) Set(key string, doc models.CacheDocument, envelope *models.Envelope, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.capacity {
		m.evictOldestLocked()
	}
	m.entries[key] = &memoryEntry{
		doc:        doc,
		envelope:   envelope.Clone(),
		lastAccess: now,
	}
}

// Delete removes a key. Missing keys are a no-op.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// PurgeFunc removes every entry for which keep returns false and reports
// how many were dropped.
func (m *Memory) PurgeFunc(keep func(doc models.CacheDocument) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key, entry := range m.entries {
		if !keep(entry.doc) {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted
}

// Len returns the current entry count.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictOldestLocked drops the entry with the oldest lastAccess. Linear scan
// is fine at the configured capacity.
func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, entry := range m.entries {
		if first || entry.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
