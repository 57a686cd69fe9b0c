package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inFlightEntry struct {
	token   string
	expires time.Time
}

// MemoryInFlight keeps busy flags in process memory. Used when no Redis
// address is configured; flags are not shared between replicas.
type MemoryInFlight struct {
	mu      sync.Mutex
	entries map[string]inFlightEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryInFlight(ttl time.Duration) *MemoryInFlight {
	return &MemoryInFlight{
		entries: make(map[string]inFlightEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryInFlight) Acquire(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, exists := m.entries[key]; exists && now.Before(e.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	m.entries[key] = inFlightEntry{token: token, expires: now.Add(m.ttl)}
	return token, true, nil
}

func (m *MemoryInFlight) Release(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, exists := m.entries[key]; exists && e.token == token {
		delete(m.entries, key)
	}
	return nil
}
