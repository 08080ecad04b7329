package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	entries map[domain.Fingerprint]domain.CacheEntry
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		entries: make(map[domain.Fingerprint]domain.CacheEntry),
	}
}

// Get retrieves an entry by key.
func (s *ResultStore) Get(_ context.Context, key domain.Fingerprint) (*domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry.Result = entry.Result.Clone()
	return &entry, nil
}

// Save stores or replaces an entry.
func (s *ResultStore) Save(_ context.Context, entry domain.CacheEntry) error {
	if entry.Key == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Result = entry.Result.Clone()
	s.entries[entry.Key] = entry
	return nil
}

// Clear removes every entry.
func (s *ResultStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[domain.Fingerprint]domain.CacheEntry)
	return nil
}

// Len returns the number of stored entries.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op.
func (s *ResultStore) Close() error {
	return nil
}
