package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemorySurface keeps records in process memory. A zero ttl never expires.
type MemorySurface struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySurface returns an empty MemorySurface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemorySurface) Load(_ context.Context, sessionID string) (Record, error) {
	m.mu.RLock()
	entry, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if !ok {
		return Record{}, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[sessionID]; still && cur.expiresAt.Equal(entry.expiresAt) {
			delete(m.entries, sessionID)
		}
		m.mu.Unlock()
		return Record{}, nil
	}
	return entry.rec, nil
}

func (m *MemorySurface) Save(_ context.Context, sessionID string, rec Record, ttl time.Duration) error {
	entry := memoryEntry{rec: rec}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[sessionID] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemorySurface) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored records, expired ones included.
func (m *MemorySurface) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
