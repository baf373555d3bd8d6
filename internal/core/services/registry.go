package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure RegistryService implements the interface.
var _ driving.RegistryService = (*RegistryService)(nil)

// RegistryService tracks every known source document by content hash.
type RegistryService struct {
	store      driven.RegistryStore
	log        driven.NotificationLog
	source     driven.DocumentSource
	parsers    driven.ParserRegistry
	classifier *Classifier
	now        func() time.Time
}

// NewRegistryService creates a new registry service.
func NewRegistryService(
	store driven.RegistryStore,
	log driven.NotificationLog,
	source driven.DocumentSource,
	parsers driven.ParserRegistry,
) *RegistryService {
	return &RegistryService{
		store:      store,
		log:        log,
		source:     source,
		parsers:    parsers,
		classifier: NewClassifier(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Scan lazily lists supported documents under location whose hash is unknown.
// Hashing or lookup failures are yielded with the path and never end the scan.
func (s *RegistryService) Scan(ctx context.Context, location string) iter.Seq2[domain.Candidate, error] {
	return func(yield func(domain.Candidate, error) bool) {
		for path, err := range s.source.Walk(ctx, location, s.parsers.Supports) {
			if err != nil {
				if !yield(domain.Candidate{Path: path, Filename: filepath.Base(path)}, err) {
					return
				}
				continue
			}

			candidate, err := CandidateFromPath(path)
			if err != nil {
				if !yield(domain.Candidate{Path: path, Filename: filepath.Base(path)}, err) {
					return
				}
				continue
			}

			known, err := s.store.Has(ctx, candidate.ContentHash)
			if err != nil {
				if !yield(candidate, fmt.Errorf("lookup %s: %w", path, err)) {
					return
				}
				continue
			}
			if known {
				logger.Debug("skip known document %s", path)
				continue
			}

			if !yield(candidate, nil) {
				return
			}
		}
	}
}

// CandidateFromPath hashes a file into a registration candidate.
func CandidateFromPath(path string) (domain.Candidate, error) {
	hash, size, err := HashFile(path)
	if err != nil {
		return domain.Candidate{}, err
	}
	return domain.Candidate{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentHash: hash,
		ByteSize:    size,
	}, nil
}

// Register inserts the candidate if its hash is absent and appends a
// new_document event. A known hash is a no-op returning the existing record.
func (s *RegistryService) Register(ctx context.Context, candidate domain.Candidate) (*driving.RegisterResult, error) {
	if candidate.ContentHash == "" {
		return nil, fmt.Errorf("%w: candidate has no content hash", domain.ErrInvalidInput)
	}

	if existing, err := s.store.Get(ctx, candidate.ContentHash); err == nil {
		return &driving.RegisterResult{IsNew: false, Record: *existing}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", candidate.ContentHash, err)
	}

	class := s.classifier.Classify(candidate.Filename, s.leadingText(ctx, candidate.Path))
	now := s.now()
	rec := domain.DocumentRecord{
		Filename:         candidate.Filename,
		Filepath:         candidate.Path,
		ContentHash:      candidate.ContentHash,
		ByteSize:         candidate.ByteSize,
		DetectedAt:       now,
		UpdatedAt:        now,
		Title:            class.Title,
		DocumentType:     class.DocumentType,
		DocumentYear:     class.DocumentYear,
		ProcessingStatus: domain.StatusPending,
		Notes:            UncertainNote(class),
	}

	inserted, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", candidate.Filename, err)
	}
	if !inserted {
		// Lost a race with an identical document
		existing, err := s.store.Get(ctx, candidate.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", candidate.ContentHash, err)
		}
		return &driving.RegisterResult{IsNew: false, Record: *existing}, nil
	}

	logger.Info("Registered %s (%s)", rec.Filename, shortHash(rec.ContentHash))
	if rec.Notes != "" {
		logger.Debug("%s: %s", rec.Filename, rec.Notes)
	}
	notify(ctx, s.log, domain.EventNewDocument, rec.Filename,
		fmt.Sprintf("New document detected: %s", rec.Title),
		map[string]string{"content_hash": rec.ContentHash, "filepath": rec.Filepath})

	return &driving.RegisterResult{IsNew: true, Record: rec}, nil
}

// ScanAndRegister scans location and registers every candidate,
// returning one outcome per visited path.
func (s *RegistryService) ScanAndRegister(ctx context.Context, location string) (map[string]driving.ScanOutcome, error) {
	logger.Section("Scan")
	logger.Debug("Location: %s", location)

	outcomes := make(map[string]driving.ScanOutcome)
	for candidate, err := range s.Scan(ctx, location) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomes, ctxErr
		}
		outcome := driving.ScanOutcome{Path: candidate.Path, ContentHash: candidate.ContentHash}
		if err != nil {
			logger.Warn("scan %s: %v", candidate.Path, err)
			outcome.Error = err.Error()
			outcomes[candidate.Path] = outcome
			continue
		}

		result, err := s.Register(ctx, candidate)
		if err != nil {
			logger.Warn("register %s: %v", candidate.Path, err)
			outcome.Error = err.Error()
		} else {
			outcome.IsNew = result.IsNew
		}
		outcomes[candidate.Path] = outcome
	}
	return outcomes, nil
}

// Update mutates an existing record. Returns domain.ErrNotFound for an unknown hash.
func (s *RegistryService) Update(ctx context.Context, contentHash string, update domain.RecordUpdate) error {
	if update.ProcessingStatus != nil && !update.ProcessingStatus.IsValid() {
		return fmt.Errorf("%w: processing status %q", domain.ErrInvalidInput, *update.ProcessingStatus)
	}
	if _, err := s.store.Update(ctx, contentHash, update); err != nil {
		return fmt.Errorf("update %s: %w", shortHash(contentHash), err)
	}
	return nil
}

// Get retrieves a record by hash.
func (s *RegistryService) Get(ctx context.Context, contentHash string) (*domain.DocumentRecord, error) {
	return s.store.Get(ctx, contentHash)
}

// List returns every record ordered by detection time.
func (s *RegistryService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.store.List(ctx)
}

// GetPending returns records not yet processed, in detection order.
func (s *RegistryService) GetPending(ctx context.Context) ([]domain.DocumentRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.DocumentRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Processed {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

// leadingText returns the start of the document text for classification.
// Parse failures degrade to filename-only classification.
func (s *RegistryService) leadingText(ctx context.Context, path string) (text string) {
	if s.parsers == nil || path == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("parse %s for classification: panic: %v", path, r)
			text = ""
		}
	}()
	parser, err := s.parsers.ForPath(path)
	if err != nil {
		return ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("read %s for classification: %v", path, err)
		return ""
	}
	doc, err := parser.Parse(ctx, path, content)
	if err != nil {
		logger.Debug("parse %s for classification: %v", path, err)
		return ""
	}

	var b strings.Builder
	for _, page := range doc.Pages {
		if b.Len() >= classifierTextLimit {
			break
		}
		b.WriteString(page.Text)
		b.WriteString("\n")
	}
	if title := doc.Metadata["title"]; title != "" {
		return title + "\n" + b.String()
	}
	return b.String()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
