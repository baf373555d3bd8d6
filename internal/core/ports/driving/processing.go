package driving

import "context"

// ProcessOutcome is the per-document result of batch processing.
type ProcessOutcome struct {
	ContentHash string `json:"content_hash"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Chapters    int    `json:"chapters"`
	Tables      int    `json:"tables"`
	Error       string `json:"error,omitempty"`
}

// ProcessingService extracts and indexes pending documents.
type ProcessingService interface {
	// ProcessAllPending processes every pending document, isolating failures.
	// The outcome map is keyed by content hash and has an entry for every pending document.
	ProcessAllPending(ctx context.Context) (map[string]ProcessOutcome, error)

	// ProcessOne processes a single registered document.
	ProcessOne(ctx context.Context, contentHash string) (ProcessOutcome, error)
}
