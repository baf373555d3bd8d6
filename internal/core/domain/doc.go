// Package domain defines the core business entities for guidekit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: A known source document, identified by its content hash
//   - NotificationEvent: An append-only registry event
//   - Chapter / Table: Structured content extracted from a document
//   - KnowledgeEntry: All extraction results for one content hash
//   - FunctionProposal / WebUpdateProposal: Pending work awaiting a human decision
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
