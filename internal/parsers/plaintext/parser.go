// Package plaintext parses plain text guidelines.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles plain text documents. Form feeds separate pages.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse splits the content into pages. There is no outline and tables
// are left to text detection.
func (p *Parser) Parse(_ context.Context, _ string, content []byte) (*domain.ParsedDocument, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrUnreadableDocument
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	return &domain.ParsedDocument{
		Pages:    SplitPages(text),
		Metadata: map[string]string{"format": "plaintext"},
	}, nil
}

// SplitPages splits text on form feeds into 1-based pages.
// A trailing empty page (text ending in a form feed) is dropped.
func SplitPages(text string) []domain.Page {
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]domain.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, domain.Page{Number: i + 1, Text: part})
	}
	return pages
}
