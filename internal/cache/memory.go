package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/prospect-cli/internal/model"
)

type memoryEntry struct {
	result    model.EnrichmentResult
	expiresAt time.Time
}

// MemoryStore is an in-process Store. It is safe for concurrent use by
// batch lookups.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
}

// Get returns a copy of the cached result, evicting the entry if expired.
func (m *MemoryStore) Get(_ context.Context, key string) (*model.EnrichmentResult, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if m.nowFunc().After(entry.expiresAt) {
		// Reads double as opportunistic garbage collection.
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}

	result := entry.result
	return &result, nil
}

// Set stores a copy of the result under key. Last write wins.
func (m *MemoryStore) Set(_ context.Context, key string, result *model.EnrichmentResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		result:    *result,
		expiresAt: m.nowFunc().Add(ttl),
	}
	return nil
}

// Clear drops all entries immediately.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

// DeleteExpired removes all expired entries and returns the count removed.
func (m *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	removed := 0
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
