package web

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driven.WebSearcher = (*Searcher)(nil)

// maxResults is the Custom Search API page size limit.
const maxResults = 10

// Searcher runs queries against a Programmable Search Engine.
type Searcher struct {
	service  *customsearch.Service
	engineID string
	limiter  *RateLimiter
}

// NewSearcher creates a searcher. Extra client options (e.g. an endpoint
// for tests) are appended after the API key.
func NewSearcher(ctx context.Context, cfg domain.WebSettings, opts ...option.ClientOption) (*Searcher, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("%w: web.api_key and web.engine_id must be set", domain.ErrWebUnavailable)
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search client: %w", err)
	}
	return &Searcher{
		service:  svc,
		engineID: cfg.EngineID,
		limiter:  NewRateLimiter(cfg.RequestsPerSecond),
	}, nil
}

// Search returns up to limit hits in engine order.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.WebHit, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	logger.Debug("web search: %q", query)
	res, err := s.service.Cse.List().
		Context(ctx).
		Cx(s.engineID).
		Q(query).
		Num(int64(limit)).
		Do()
	if err != nil {
		if IsRateLimited(err) {
			s.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("web search %q: %w", query, WrapError(err))
	}

	hits := make([]domain.WebHit, 0, len(res.Items))
	for _, item := range res.Items {
		hits = append(hits, domain.WebHit{
			Title:      item.Title,
			URL:        item.Link,
			Snippet:    item.Snippet,
			FileFormat: item.FileFormat,
		})
	}
	return hits, nil
}
