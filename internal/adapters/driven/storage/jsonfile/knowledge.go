package jsonfile

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// KnowledgeFile is the knowledge index document name.
const KnowledgeFile = "knowledge_index.json"

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

type entryMap = map[string]domain.ExtractionResult

func normalizeEntries(m entryMap) entryMap {
	if m == nil {
		return make(entryMap)
	}
	return m
}

// KnowledgeStore persists the knowledge index as a map content_hash -> extraction result.
// An entry is replaced as a whole inside one document write, so a partially
// written entry is never visible.
type KnowledgeStore struct {
	doc *document[entryMap]
}

// NewKnowledgeStore opens (or creates) the index in dataDir.
func NewKnowledgeStore(dataDir string) (*KnowledgeStore, error) {
	doc, err := openDocument(filepath.Join(dataDir, KnowledgeFile), normalizeEntries)
	if err != nil {
		return nil, err
	}
	return &KnowledgeStore{doc: doc}, nil
}

// Put upserts the entry for entry.ContentHash.
func (s *KnowledgeStore) Put(_ context.Context, entry domain.KnowledgeEntry) error {
	if entry.ContentHash == "" {
		return domain.ErrInvalidInput
	}
	return s.doc.update(func(entries entryMap) (entryMap, error) {
		entries[entry.ContentHash] = entry.ExtractionResult
		return entries, nil
	})
}

// Get retrieves the entry for a content hash.
func (s *KnowledgeStore) Get(_ context.Context, contentHash string) (*domain.KnowledgeEntry, error) {
	var result domain.ExtractionResult
	err := s.doc.view(func(entries entryMap) error {
		found, ok := entries[contentHash]
		if !ok {
			return domain.ErrNotFound
		}
		result = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &domain.KnowledgeEntry{ContentHash: contentHash, ExtractionResult: result}, nil
}

// List returns all entries ordered by content hash.
func (s *KnowledgeStore) List(_ context.Context) ([]domain.KnowledgeEntry, error) {
	var result []domain.KnowledgeEntry
	err := s.doc.view(func(entries entryMap) error {
		hashes := make([]string, 0, len(entries))
		for h := range entries {
			hashes = append(hashes, h)
		}
		sort.Strings(hashes)

		result = make([]domain.KnowledgeEntry, 0, len(hashes))
		for _, h := range hashes {
			result = append(result, domain.KnowledgeEntry{ContentHash: h, ExtractionResult: entries[h]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the entry for a content hash.
func (s *KnowledgeStore) Delete(_ context.Context, contentHash string) error {
	return s.doc.update(func(entries entryMap) (entryMap, error) {
		if _, ok := entries[contentHash]; !ok {
			return entries, domain.ErrNotFound
		}
		delete(entries, contentHash)
		return entries, nil
	})
}

// Close releases resources. The JSON store holds none between calls.
func (s *KnowledgeStore) Close() error {
	return nil
}
