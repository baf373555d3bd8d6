// Package sqlite provides a SQLite-based implementation of the knowledge index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Guideline metadata and chapters are stored
// in separate tables so a chapter can be fetched without decoding the whole entry:
//
//   - guidelines: one row per content hash with guideline info and unassigned tables
//   - chapters: one row per chapter, cascaded on guideline deletion
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// The database is stored at <data_dir>/knowledge.db.
//
// # Thread Safety
//
// All operations are thread-safe. Each Put replaces an entry inside a single
// transaction, so readers never observe a partially written entry.
package sqlite
