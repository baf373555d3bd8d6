package memory

import (
	"fmt"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure VocabularyStore implements the interface.
var _ driven.VocabularyStore = (*VocabularyStore)(nil)

// VocabularyStore serves fixed word lists.
type VocabularyStore struct {
	lists map[string][]string
}

// NewVocabularyStore creates a store serving the given lists.
func NewVocabularyStore(lists map[string][]string) *VocabularyStore {
	return &VocabularyStore{lists: lists}
}

// Load returns the named list.
func (s *VocabularyStore) Load(name string) ([]string, error) {
	terms, ok := s.lists[name]
	if !ok {
		return nil, fmt.Errorf("vocabulary %q: %w", name, domain.ErrNotFound)
	}
	return terms, nil
}
