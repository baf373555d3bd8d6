package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService registers documents as they appear in the watch directory.
type WatchService struct {
	registry   *RegistryService
	processing *ProcessingService
	source     driven.DocumentSource
	parsers    driven.ParserRegistry

	// onBatch is called after each batch; used by callers that report progress.
	onBatch func(registered, processed int)
}

// WatchOption configures a WatchService.
type WatchOption func(*WatchService)

// WithAutoProcess processes every newly registered document right away.
func WithAutoProcess(p *ProcessingService) WatchOption {
	return func(s *WatchService) {
		s.processing = p
	}
}

// WithBatchCallback reports the counts of each handled batch.
func WithBatchCallback(fn func(registered, processed int)) WatchOption {
	return func(s *WatchService) {
		s.onBatch = fn
	}
}

// NewWatchService creates a watch service.
func NewWatchService(
	registry *RegistryService,
	source driven.DocumentSource,
	parsers driven.ParserRegistry,
	opts ...WatchOption,
) *WatchService {
	s := &WatchService{registry: registry, source: source, parsers: parsers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run registers any unknown documents already present, then watches
// root until ctx is cancelled. root must be an absolute directory path.
func (s *WatchService) Run(ctx context.Context, root string) error {
	outcomes, err := s.registry.ScanAndRegister(ctx, root)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	newDocs := 0
	for _, o := range outcomes {
		if o.IsNew {
			newDocs++
		}
	}
	if s.processing != nil && newDocs > 0 {
		if _, err := s.processing.ProcessAllPending(ctx); err != nil {
			logger.Warn("initial processing: %v", err)
		}
	}

	logger.Info("Watching %s", root)
	err = s.source.Watch(ctx, root, s.parsers.Supports, s.handleBatch)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// handleBatch registers each changed file. Failures are logged per file.
func (s *WatchService) handleBatch(ctx context.Context, paths []string) {
	registered, processed := 0, 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		candidate, err := CandidateFromPath(path)
		if err != nil {
			logger.Warn("watch: %v", err)
			continue
		}
		result, err := s.registry.Register(ctx, candidate)
		if err != nil {
			logger.Warn("watch: register %s: %v", path, err)
			continue
		}
		if !result.IsNew {
			logger.Debug("watch: %s already registered", path)
			continue
		}
		registered++

		if s.processing != nil {
			if _, err := s.processing.ProcessOne(ctx, result.Record.ContentHash); err != nil {
				logger.Warn("watch: %v", err)
				continue
			}
			processed++
		}
	}
	if s.onBatch != nil {
		s.onBatch(registered, processed)
	}
}
