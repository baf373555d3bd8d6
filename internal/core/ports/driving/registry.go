package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// RegisterResult reports the outcome of a registration.
type RegisterResult struct {
	// IsNew is false when the hash was already registered.
	IsNew bool

	// Record is the stored record (existing one when IsNew is false).
	Record domain.DocumentRecord
}

// ScanOutcome is the per-file result of a scan-and-register batch.
type ScanOutcome struct {
	Path        string `json:"path"`
	ContentHash string `json:"content_hash,omitempty"`
	IsNew       bool   `json:"is_new"`
	Error       string `json:"error,omitempty"`
}

// RegistryService tracks every known source document.
type RegistryService interface {
	// Scan lazily lists supported documents under location whose hash is not yet known.
	// Ranging over the sequence again restarts the walk. Per-file errors are yielded.
	Scan(ctx context.Context, location string) iter.Seq2[domain.Candidate, error]

	// Register inserts the candidate if its hash is absent.
	Register(ctx context.Context, candidate domain.Candidate) (*RegisterResult, error)

	// ScanAndRegister scans location and registers every candidate.
	// The outcome map is keyed by path.
	ScanAndRegister(ctx context.Context, location string) (map[string]ScanOutcome, error)

	// Update mutates an existing record. Returns domain.ErrNotFound for an unknown hash.
	Update(ctx context.Context, contentHash string, update domain.RecordUpdate) error

	// Get retrieves a record by hash.
	Get(ctx context.Context, contentHash string) (*domain.DocumentRecord, error)

	// List returns every record.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// GetPending returns records with processed=false.
	GetPending(ctx context.Context) ([]domain.DocumentRecord, error)
}
