package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// WebSearcher executes a confirmed web search.
type WebSearcher interface {
	// Search returns hits for the query. The caller bounds ctx with a timeout.
	Search(ctx context.Context, query string, limit int) ([]domain.WebHit, error)
}

// Downloader executes a confirmed document download.
type Downloader interface {
	// Download fetches rawURL into dir and returns the saved file path.
	// The caller bounds ctx with a timeout; partial files are never left behind.
	Download(ctx context.Context, rawURL, dir string) (string, error)
}
