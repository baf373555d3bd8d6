// Package jsonfile provides JSON-document implementations of the driven store ports.
//
// Each store persists its state as a single JSON document. Every mutation
// rewrites the document through a temporary file in the same directory
// followed by a rename, so an interrupted write never truncates the previous
// state.
//
// # Files
//
//   - registry.json: map content_hash -> DocumentRecord
//   - notifications.json: ordered array of NotificationEvent
//   - knowledge_index.json: map content_hash -> {guideline_info, chapters, tables}
//   - proposals.json: {function_proposals: {...}, web_proposals: {...}}
//
// Each document has a sibling <file>.lock used for advisory locking.
//
// # Thread Safety
//
// All operations are safe for concurrent use, including from several
// processes sharing one data directory (for example "mcp serve" next to a
// CLI "approve"). Every mutation re-reads the document under an exclusive
// file lock before applying its change; reads reload it when it changed on
// disk.
package jsonfile
