package jsonfile

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// RegistryFile is the registry document name.
const RegistryFile = "registry.json"

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

type recordMap = map[string]domain.DocumentRecord

func normalizeRecords(m recordMap) recordMap {
	if m == nil {
		return make(recordMap)
	}
	return m
}

// RegistryStore persists DocumentRecords as a map content_hash -> record.
type RegistryStore struct {
	doc *document[recordMap]
}

// NewRegistryStore opens (or creates) the registry in dataDir.
func NewRegistryStore(dataDir string) (*RegistryStore, error) {
	doc, err := openDocument(filepath.Join(dataDir, RegistryFile), normalizeRecords)
	if err != nil {
		return nil, err
	}
	return &RegistryStore{doc: doc}, nil
}

// Insert stores the record if its hash is absent.
func (s *RegistryStore) Insert(_ context.Context, rec domain.DocumentRecord) (bool, error) {
	inserted := false
	err := s.doc.update(func(records recordMap) (recordMap, error) {
		if _, ok := records[rec.ContentHash]; ok {
			return records, nil
		}
		records[rec.ContentHash] = rec
		inserted = true
		return records, nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// Update applies the update to an existing record.
func (s *RegistryStore) Update(
	_ context.Context, contentHash string, update domain.RecordUpdate,
) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	err := s.doc.update(func(records recordMap) (recordMap, error) {
		prev, ok := records[contentHash]
		if !ok {
			return records, domain.ErrNotFound
		}
		rec = prev
		update.Apply(&rec)
		rec.UpdatedAt = time.Now()
		records[contentHash] = rec
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get retrieves a record by content hash.
func (s *RegistryStore) Get(_ context.Context, contentHash string) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	err := s.doc.view(func(records recordMap) error {
		found, ok := records[contentHash]
		if !ok {
			return domain.ErrNotFound
		}
		rec = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Has reports whether a hash is registered.
func (s *RegistryStore) Has(_ context.Context, contentHash string) (bool, error) {
	var ok bool
	err := s.doc.view(func(records recordMap) error {
		_, ok = records[contentHash]
		return nil
	})
	return ok, err
}

// List returns all records ordered by detection time, then hash.
func (s *RegistryStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	var result []domain.DocumentRecord
	err := s.doc.view(func(records recordMap) error {
		result = make([]domain.DocumentRecord, 0, len(records))
		for _, rec := range records {
			result = append(result, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecords(result)
	return result, nil
}

func sortRecords(records []domain.DocumentRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].DetectedAt.Equal(records[j].DetectedAt) {
			return records[i].DetectedAt.Before(records[j].DetectedAt)
		}
		return records[i].ContentHash < records[j].ContentHash
	})
}
