package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
type KnowledgeStore struct {
	mu      sync.RWMutex
	entries map[string]domain.KnowledgeEntry
}

// NewKnowledgeStore creates an empty knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{entries: make(map[string]domain.KnowledgeEntry)}
}

// Put upserts the entry for entry.ContentHash.
func (s *KnowledgeStore) Put(_ context.Context, entry domain.KnowledgeEntry) error {
	if entry.ContentHash == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ContentHash] = entry
	return nil
}

// Get retrieves the entry for a content hash.
func (s *KnowledgeStore) Get(_ context.Context, contentHash string) (*domain.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// List returns all entries ordered by content hash.
func (s *KnowledgeStore) List(_ context.Context) ([]domain.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.KnowledgeEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ContentHash < result[j].ContentHash })
	return result, nil
}

// Delete removes the entry for a content hash.
func (s *KnowledgeStore) Delete(_ context.Context, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[contentHash]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entries, contentHash)
	return nil
}

// Close is a no-op.
func (s *KnowledgeStore) Close() error {
	return nil
}
