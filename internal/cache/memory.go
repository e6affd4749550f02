package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"atscore/internal/types"
)

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// Memory is a process-local cache. Entries are stored encoded so callers
// never share a result value.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

// NewMemory creates an in-memory cache holding at most maxEntries results.
// A non-positive maxEntries means unbounded.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (*types.UnifiedResult, bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !entry.expires.IsZero() && m.now().After(entry.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, false, nil
	}
	var result types.UnifiedResult
	if err := json.Unmarshal(entry.payload, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (m *Memory) Set(_ context.Context, key string, result *types.UnifiedResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = entry
	return nil
}

// evictLocked drops expired entries, then the entry closest to expiry if
// the cache is still full
func (m *Memory) evictLocked() {
	now := m.now()
	for k, e := range m.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.entries, k)
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}

	var (
		victim  string
		soonest time.Time
	)
	for k, e := range m.entries {
		if victim == "" || expiresBefore(e.expires, soonest) {
			victim, soonest = k, e.expires
		}
	}
	delete(m.entries, victim)
}

// expiresBefore orders expiry times with the zero time meaning never
func expiresBefore(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	return b.IsZero() || a.Before(b)
}

// Len returns the number of stored entries, expired or not
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Backend() string { return BackendMemory }

func (m *Memory) Close() error { return nil }
