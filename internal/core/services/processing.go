package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure ProcessingService implements the interface.
var _ driving.ProcessingService = (*ProcessingService)(nil)

// failurePrefix marks notes written by a failed processing attempt.
const failurePrefix = "processing failed: "

// ProcessingService extracts and indexes registered documents.
// Each document succeeds or fails on its own; a failure is recorded on the
// record and never stops the rest of a batch.
type ProcessingService struct {
	store     driven.RegistryStore
	log       driven.NotificationLog
	parsers   driven.ParserRegistry
	extractor *Extractor
	index     *KnowledgeIndex
	workers   int
	locks     *keyedMutex
}

// NewProcessingService creates a new processing service.
// workers bounds parallel extraction; values below 1 mean sequential.
func NewProcessingService(
	store driven.RegistryStore,
	log driven.NotificationLog,
	parsers driven.ParserRegistry,
	extractor *Extractor,
	index *KnowledgeIndex,
	workers int,
) *ProcessingService {
	if workers < 1 {
		workers = 1
	}
	return &ProcessingService{
		store:     store,
		log:       log,
		parsers:   parsers,
		extractor: extractor,
		index:     index,
		workers:   workers,
		locks:     newKeyedMutex(),
	}
}

// ProcessAllPending processes every unprocessed document. The outcome map
// has an entry for every pending document, keyed by content hash.
func (s *ProcessingService) ProcessAllPending(ctx context.Context) (map[string]driving.ProcessOutcome, error) {
	logger.Section("Process Pending")

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}

	var pending []domain.DocumentRecord
	for _, rec := range records {
		if rec.Processed {
			continue
		}
		if rec.ProcessingStatus == domain.StatusProcessing {
			rec = s.resetInterrupted(ctx, rec)
		}
		pending = append(pending, rec)
	}
	logger.Debug("%d pending documents, %d workers", len(pending), s.workers)

	outcomes := make(map[string]driving.ProcessOutcome, len(pending))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, rec := range pending {
		g.Go(func() error {
			var outcome driving.ProcessOutcome
			if err := gctx.Err(); err != nil {
				outcome = skippedOutcome(rec, err)
			} else {
				outcome = s.process(gctx, rec)
			}
			mu.Lock()
			outcomes[rec.ContentHash] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// ProcessOne processes a single registered document, even if it was
// processed before. The returned error mirrors a failed outcome.
func (s *ProcessingService) ProcessOne(ctx context.Context, contentHash string) (driving.ProcessOutcome, error) {
	rec, err := s.store.Get(ctx, contentHash)
	if err != nil {
		return driving.ProcessOutcome{ContentHash: contentHash, Status: string(domain.StatusFailed), Error: err.Error()},
			fmt.Errorf("process %s: %w", shortHash(contentHash), err)
	}

	outcome := s.process(ctx, *rec)
	if outcome.Error != "" {
		return outcome, fmt.Errorf("process %s: %s", rec.Filename, outcome.Error)
	}
	return outcome, nil
}

// process runs one document through parse, extract and index,
// recording the result on its record.
func (s *ProcessingService) process(ctx context.Context, rec domain.DocumentRecord) driving.ProcessOutcome {
	unlock := s.locks.Lock(rec.ContentHash)
	defer unlock()

	outcome := driving.ProcessOutcome{ContentHash: rec.ContentHash, Filename: rec.Filename}

	processing := domain.StatusProcessing
	if _, err := s.store.Update(ctx, rec.ContentHash, domain.RecordUpdate{ProcessingStatus: &processing}); err != nil {
		outcome.Status = string(rec.ProcessingStatus)
		outcome.Error = fmt.Sprintf("mark processing: %v", err)
		return outcome
	}

	result, err := s.extract(ctx, rec)
	if err == nil {
		err = s.index.Index(ctx, rec.ContentHash, result)
	}

	if err != nil {
		logger.Warn("%s: %v", rec.Filename, err)
		outcome.Status = string(domain.StatusFailed)
		outcome.Error = err.Error()
		s.markFailed(ctx, rec, err)
		return outcome
	}

	outcome.Status = string(domain.StatusCompleted)
	outcome.Chapters = len(result.Chapters)
	outcome.Tables = result.TableCount()

	completed := domain.StatusCompleted
	processed := true
	notes := withoutFailureNotes(rec.Notes)
	if _, err := s.store.Update(context.WithoutCancel(ctx), rec.ContentHash, domain.RecordUpdate{
		ProcessingStatus: &completed,
		Processed:        &processed,
		Notes:            &notes,
	}); err != nil {
		outcome.Status = string(domain.StatusFailed)
		outcome.Error = fmt.Sprintf("mark completed: %v", err)
		return outcome
	}

	logger.Info("Processed %s: %d chapters, %d tables", rec.Filename, outcome.Chapters, outcome.Tables)
	notify(ctx, s.log, domain.EventProcessingCompleted, rec.Filename,
		fmt.Sprintf("Extracted %d chapters and %d tables", outcome.Chapters, outcome.Tables),
		map[string]string{
			"content_hash": rec.ContentHash,
			"chapters":     strconv.Itoa(outcome.Chapters),
			"tables":       strconv.Itoa(outcome.Tables),
		})
	return outcome
}

// extract parses and extracts one document. A panic in a parser or the
// extractor becomes an error for this document only.
func (s *ProcessingService) extract(ctx context.Context, rec domain.DocumentRecord) (result *domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: panic: %v", domain.ErrParseFailure, r)
		}
	}()

	parser, err := s.parsers.ForPath(rec.Filepath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(rec.Filepath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rec.Filepath, err)
	}
	if HashBytes(content) != rec.ContentHash {
		return nil, fmt.Errorf("%w: %s changed since registration", domain.ErrIntegrityViolation, rec.Filepath)
	}

	doc, err := parser.Parse(ctx, rec.Filepath, content)
	if err != nil {
		if !errors.Is(err, domain.ErrParseFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrUnreadableDocument, err)
		}
		return nil, err
	}

	info := domain.GuidelineInfo{Title: rec.Title, Filename: rec.Filename}
	if rec.DocumentType != nil {
		info.DocumentType = *rec.DocumentType
	}
	if rec.DocumentYear != nil {
		info.DocumentYear = *rec.DocumentYear
	}
	return s.extractor.Extract(ctx, doc, info)
}

// resetInterrupted returns a record left in StatusProcessing by a run that
// never finished to StatusPending, so it is retried like any other pending document.
func (s *ProcessingService) resetInterrupted(ctx context.Context, rec domain.DocumentRecord) domain.DocumentRecord {
	logger.Warn("%s was left processing by an interrupted run, retrying", rec.Filename)
	pending := domain.StatusPending
	updated, err := s.store.Update(ctx, rec.ContentHash, domain.RecordUpdate{ProcessingStatus: &pending})
	if err != nil {
		logger.Error("reset %s: %v", rec.Filename, err)
		return rec
	}
	return *updated
}

func (s *ProcessingService) markFailed(ctx context.Context, rec domain.DocumentRecord, cause error) {
	// Record the failure even when the batch context was cancelled
	ctx = context.WithoutCancel(ctx)

	failed := domain.StatusFailed
	processed := false
	notes := withFailureNote(rec.Notes, cause.Error())
	if _, err := s.store.Update(ctx, rec.ContentHash, domain.RecordUpdate{
		ProcessingStatus: &failed,
		Processed:        &processed,
		Notes:            &notes,
	}); err != nil {
		logger.Error("record failure of %s: %v", rec.Filename, err)
	}
	notify(ctx, s.log, domain.EventProcessingFailed, rec.Filename,
		fmt.Sprintf("Processing failed: %v", cause),
		map[string]string{"content_hash": rec.ContentHash})
}

func skippedOutcome(rec domain.DocumentRecord, err error) driving.ProcessOutcome {
	return driving.ProcessOutcome{
		ContentHash: rec.ContentHash,
		Filename:    rec.Filename,
		Status:      string(rec.ProcessingStatus),
		Error:       fmt.Sprintf("not processed: %v", err),
	}
}

// withFailureNote replaces earlier failure notes with the latest one,
// keeping other notes such as classification follow-ups.
func withFailureNote(notes, msg string) string {
	kept := withoutFailureNotes(notes)
	if kept == "" {
		return failurePrefix + msg
	}
	return kept + "\n" + failurePrefix + msg
}

func withoutFailureNotes(notes string) string {
	var kept []string
	for _, line := range strings.Split(notes, "\n") {
		if line != "" && !strings.HasPrefix(line, failurePrefix) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
