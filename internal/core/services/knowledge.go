package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// KnowledgeIndex holds one extraction result per content hash.
// Writes for the same hash are serialised so readers never observe a
// half-written entry; the store replaces each entry atomically.
type KnowledgeIndex struct {
	store driven.KnowledgeStore
	locks *keyedMutex
}

// NewKnowledgeIndex creates an index over store.
func NewKnowledgeIndex(store driven.KnowledgeStore) *KnowledgeIndex {
	return &KnowledgeIndex{
		store: store,
		locks: newKeyedMutex(),
	}
}

// Index replaces the entry for contentHash with result. Last writer wins.
func (k *KnowledgeIndex) Index(ctx context.Context, contentHash string, result *domain.ExtractionResult) error {
	if contentHash == "" || result == nil {
		return fmt.Errorf("%w: content hash and result are required", domain.ErrInvalidInput)
	}

	unlock := k.locks.Lock(contentHash)
	defer unlock()

	entry := domain.KnowledgeEntry{ContentHash: contentHash, ExtractionResult: *result}
	if err := k.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("index %s: %w", shortHash(contentHash), err)
	}
	logger.Debug("indexed %s: %d chapters", shortHash(contentHash), len(result.Chapters))
	return nil
}

// Get returns the entry for contentHash.
func (k *KnowledgeIndex) Get(ctx context.Context, contentHash string) (*domain.KnowledgeEntry, error) {
	return k.store.Get(ctx, contentHash)
}

// List returns every entry ordered by content hash.
func (k *KnowledgeIndex) List(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return k.store.List(ctx)
}

// Remove deletes the entry for contentHash.
func (k *KnowledgeIndex) Remove(ctx context.Context, contentHash string) error {
	unlock := k.locks.Lock(contentHash)
	defer unlock()
	return k.store.Delete(ctx, contentHash)
}

// GetChapter finds a chapter by exact, case-insensitive title within one document.
func (k *KnowledgeIndex) GetChapter(ctx context.Context, contentHash, title string) (*domain.Chapter, error) {
	entry, err := k.store.Get(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	for i := range entry.Chapters {
		if strings.EqualFold(entry.Chapters[i].Title, title) {
			ch := entry.Chapters[i]
			return &ch, nil
		}
	}
	return nil, fmt.Errorf("chapter %q in %s: %w", title, shortHash(contentHash), domain.ErrNotFound)
}
