package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// RegistryStore persists DocumentRecords keyed by content hash.
// Implementations must replace their persisted state atomically.
type RegistryStore interface {
	// Insert stores the record if its hash is absent.
	// Returns false without modifying anything if the hash is already present.
	Insert(ctx context.Context, rec domain.DocumentRecord) (bool, error)

	// Update applies the update to an existing record.
	// Returns domain.ErrNotFound if the hash is unknown.
	Update(ctx context.Context, contentHash string, update domain.RecordUpdate) (*domain.DocumentRecord, error)

	// Get retrieves a record by content hash.
	Get(ctx context.Context, contentHash string) (*domain.DocumentRecord, error)

	// Has reports whether a hash is registered.
	Has(ctx context.Context, contentHash string) (bool, error)

	// List returns all records ordered by detection time, then hash.
	List(ctx context.Context) ([]domain.DocumentRecord, error)
}
