package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// KnowledgeStore persists one KnowledgeEntry per content hash.
// Put replaces any prior entry wholesale; readers never observe a partial entry.
type KnowledgeStore interface {
	// Put upserts the entry for entry.ContentHash.
	Put(ctx context.Context, entry domain.KnowledgeEntry) error

	// Get retrieves the entry for a content hash.
	Get(ctx context.Context, contentHash string) (*domain.KnowledgeEntry, error)

	// List returns all entries ordered by content hash.
	List(ctx context.Context) ([]domain.KnowledgeEntry, error)

	// Delete removes the entry for a content hash.
	Delete(ctx context.Context, contentHash string) error

	// Close releases resources.
	Close() error
}
