package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// DocumentParser turns raw document bytes into pages, an optional outline
// and optional native tables. Each parser handles specific file extensions.
type DocumentParser interface {
	// Name identifies the parser in logs.
	Name() string

	// SupportedExtensions returns lowercase extensions including the dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific parsers return 50-89, fallbacks 1-9.
	Priority() int

	// Parse parses the document. Errors wrap domain.ErrUnreadableDocument.
	Parse(ctx context.Context, path string, content []byte) (*domain.ParsedDocument, error)
}

// ParserRegistry selects the parser for a file.
type ParserRegistry interface {
	// Register adds a parser.
	Register(p DocumentParser)

	// ForPath returns the highest priority parser for the file's extension.
	// Returns domain.ErrUnsupportedType if none matches.
	ForPath(path string) (DocumentParser, error)

	// Supports reports whether any parser handles the file's extension.
	Supports(path string) bool
}
