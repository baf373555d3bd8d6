package driving

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// SearchService ranks indexed chapters against free-text queries.
type SearchService interface {
	// Search returns at most topK results, best first.
	// A topK <= 0 uses the configured default.
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)

	// GetChapter finds a chapter by exact, case-insensitive title within one document.
	GetChapter(ctx context.Context, contentHash, title string) (*domain.Chapter, error)
}
