package common

import (
	"context"
	"fmt"
	"sync"

	"github.com/lgulliver/pdfbinder/pkg/config"
)

// CounterStore keeps the per-session next-index counter.
// An unset counter reads as 1.
type CounterStore interface {
	Get(ctx context.Context, sessionID string) (int, error)
	Set(ctx context.Context, sessionID string, next int) error
	Reset(ctx context.Context, sessionID string) error
	Close() error
}

// NewCounterStore builds the counter store selected by configuration
func NewCounterStore(cfg *config.Config) (CounterStore, error) {
	switch cfg.Counter.Type {
	case "memory":
		return NewMemoryCounterStore(), nil
	case "redis":
		store, err := NewRedisCounterStore(&cfg.Redis, cfg.Session.MaxAge)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported counter type: %s", cfg.Counter.Type)
	}
}

// MemoryCounterStore keeps counters in process memory
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewMemoryCounterStore creates an empty in-memory counter store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int)}
}

// Get returns the next index for a session
func (m *MemoryCounterStore) Get(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next, ok := m.counters[sessionID]; ok {
		return next, nil
	}
	return 1, nil
}

// Set stores the next index for a session
func (m *MemoryCounterStore) Set(_ context.Context, sessionID string, next int) error {
	if next < 1 {
		return fmt.Errorf("counter must be positive, got %d", next)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[sessionID] = next
	return nil
}

// Reset forgets the counter for a session
func (m *MemoryCounterStore) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.counters, sessionID)
	return nil
}

// Close is a no-op for the in-memory store
func (m *MemoryCounterStore) Close() error {
	return nil
}
