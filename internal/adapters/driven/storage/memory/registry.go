package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore is an in-memory implementation of driven.RegistryStore.
type RegistryStore struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
}

// NewRegistryStore creates a new in-memory registry.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{records: make(map[string]domain.DocumentRecord)}
}

// Insert stores rec if its hash is absent.
func (s *RegistryStore) Insert(_ context.Context, rec domain.DocumentRecord) (bool, error) {
	if rec.ContentHash == "" {
		return false, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ContentHash]; exists {
		return false, nil
	}
	s.records[rec.ContentHash] = rec
	return true, nil
}

// Update applies update to an existing record.
func (s *RegistryStore) Update(
	_ context.Context, contentHash string, update domain.RecordUpdate,
) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	update.Apply(&rec)
	s.records[contentHash] = rec
	return &rec, nil
}

// Get retrieves a record by content hash.
func (s *RegistryStore) Get(_ context.Context, contentHash string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Has reports whether a hash is registered.
func (s *RegistryStore) Has(_ context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[contentHash]
	return ok, nil
}

// List returns all records ordered by detection time, then hash.
func (s *RegistryStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DetectedAt.Equal(result[j].DetectedAt) {
			return result[i].DetectedAt.Before(result[j].DetectedAt)
		}
		return result[i].ContentHash < result[j].ContentHash
	})
	return result, nil
}
