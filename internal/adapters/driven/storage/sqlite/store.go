package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/guidekit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// DatabaseFile is the database filename inside the data directory.
const DatabaseFile = "knowledge.db"

// Store is a SQLite-backed knowledge index.
type Store struct {
	db   *sql.DB
	path string
}

// Ensure Store implements the interface.
var _ driven.KnowledgeStore = (*Store)(nil)

// NewStore opens (or creates) the knowledge database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets the search path read while the processor writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_knowledge.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Put replaces the entry for entry.ContentHash in one transaction.
func (s *Store) Put(ctx context.Context, entry domain.KnowledgeEntry) error {
	if entry.ContentHash == "" {
		return domain.ErrInvalidInput
	}

	unassigned, err := marshalJSON(entry.Tables)
	if err != nil {
		return fmt.Errorf("marshalling tables: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Deleting the guideline cascades to its chapters.
	if _, err := tx.ExecContext(ctx, "DELETE FROM guidelines WHERE content_hash = ?", entry.ContentHash); err != nil {
		return fmt.Errorf("clearing entry: %w", err)
	}

	info := entry.GuidelineInfo
	_, err = tx.ExecContext(ctx, `
		INSERT INTO guidelines (content_hash, title, filename, document_type, document_year,
			page_count, outline_used, extracted_at, unassigned_tables)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ContentHash, info.Title, info.Filename, info.DocumentType, info.DocumentYear,
		info.PageCount, info.OutlineUsed, info.ExtractedAt, unassigned)
	if err != nil {
		return fmt.Errorf("saving guideline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (content_hash, position, number, title, start_offset, end_offset,
			raw_text, keywords, tables, function_potential)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, ch := range entry.Chapters {
		keywords, err := marshalJSON(ch.Keywords)
		if err != nil {
			return fmt.Errorf("marshalling keywords: %w", err)
		}
		tables, err := marshalJSON(ch.Tables)
		if err != nil {
			return fmt.Errorf("marshalling chapter tables: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, entry.ContentHash, i, ch.Number, ch.Title,
			ch.StartOffset, ch.EndOffset, ch.RawText, keywords, tables,
			string(ch.FunctionPotential)); err != nil {
			return fmt.Errorf("saving chapter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves the entry for a content hash.
func (s *Store) Get(ctx context.Context, contentHash string) (*domain.KnowledgeEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content_hash, title, filename, document_type, document_year,
			page_count, outline_used, extracted_at, unassigned_tables
		FROM guidelines WHERE content_hash = ?
	`, contentHash)

	entry, err := scanGuideline(row)
	if err != nil {
		return nil, err
	}

	chapters, err := s.chapters(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	entry.Chapters = chapters
	return entry, nil
}

// List returns all entries ordered by content hash.
func (s *Store) List(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, title, filename, document_type, document_year,
			page_count, outline_used, extracted_at, unassigned_tables
		FROM guidelines ORDER BY content_hash
	`)
	if err != nil {
		return nil, fmt.Errorf("querying guidelines: %w", err)
	}

	var entries []domain.KnowledgeEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanGuideline(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating guidelines: %w", err)
	}
	rows.Close()

	for i := range entries {
		chapters, err := s.chapters(ctx, entries[i].ContentHash)
		if err != nil {
			return nil, err
		}
		entries[i].Chapters = chapters
	}
	return entries, nil
}

// Delete removes the entry for a content hash.
func (s *Store) Delete(ctx context.Context, contentHash string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM guidelines WHERE content_hash = ?", contentHash)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) chapters(ctx context.Context, contentHash string) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, title, start_offset, end_offset, raw_text, keywords, tables, function_potential
		FROM chapters WHERE content_hash = ?
		ORDER BY position
	`, contentHash)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	chapters := []domain.Chapter{}
	for rows.Next() {
		var (
			ch        domain.Chapter
			keywords  string
			tables    string
			potential string
		)
		if err := rows.Scan(&ch.Number, &ch.Title, &ch.StartOffset, &ch.EndOffset,
			&ch.RawText, &keywords, &tables, &potential); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &ch.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshalling keywords: %w", err)
		}
		if err := json.Unmarshal([]byte(tables), &ch.Tables); err != nil {
			return nil, fmt.Errorf("unmarshalling chapter tables: %w", err)
		}
		ch.FunctionPotential = domain.FunctionPotential(potential)
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGuideline(row scanner) (*domain.KnowledgeEntry, error) {
	var (
		entry      domain.KnowledgeEntry
		unassigned string
	)
	info := &entry.GuidelineInfo
	err := row.Scan(&entry.ContentHash, &info.Title, &info.Filename, &info.DocumentType,
		&info.DocumentYear, &info.PageCount, &info.OutlineUsed, &info.ExtractedAt, &unassigned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning guideline: %w", err)
	}
	if err := json.Unmarshal([]byte(unassigned), &entry.Tables); err != nil {
		return nil, fmt.Errorf("unmarshalling tables: %w", err)
	}
	return &entry, nil
}

// marshalJSON encodes v, writing nil slices as empty arrays.
func marshalJSON[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
