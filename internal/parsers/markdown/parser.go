// Package markdown parses Markdown guidelines. ATX headings form the native
// outline and pipe tables are returned as native tables.
package markdown

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles Markdown documents.
type Parser struct{}

// New creates a new Markdown parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "markdown"
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Pre-compiled regular expressions for inline markup.
var (
	atxHeading   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	emphasis     = regexp.MustCompile(`(\*\*|__|\*)`)
	listMarker   = regexp.MustCompile(`^\s*[-*+]\s+`)
	blockquote   = regexp.MustCompile(`^>\s*`)
	horizontal   = regexp.MustCompile(`^[-*_]{3,}\s*$`)
	separatorRow = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?\s*$`)
)

// Parse converts the document into a single page of plain text.
// Heading lines keep their text so outline titles can be located, and
// table rows are rendered as cells separated by two spaces.
func (p *Parser) Parse(_ context.Context, _ string, content []byte) (*domain.ParsedDocument, error) {
	if !utf8.Valid(content) {
		return nil, domain.ErrUnreadableDocument
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	var (
		out      []string
		outline  []domain.OutlineNode
		tables   = []domain.TableRegion{}
		current  *domain.TableRegion
		inFence  bool
		docTitle string
	)

	closeTable := func() {
		if current != nil && len(current.Rows) > 0 {
			current.Region.LastLine = len(out) - 1
			tables = append(tables, *current)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			closeTable()
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}

		if isTableRow(trimmed) {
			if separatorRow.MatchString(trimmed) {
				continue
			}
			cells := splitRow(trimmed)
			if current == nil {
				current = &domain.TableRegion{
					Region: domain.BoundingRegion{Page: 1, FirstLine: len(out)},
					Anchor: strings.Join(cells, "  "),
				}
			}
			current.Rows = append(current.Rows, cells)
			if len(cells) > current.Region.Columns {
				current.Region.Columns = len(cells)
			}
			out = append(out, strings.Join(cells, "  "))
			continue
		}
		closeTable()

		if m := atxHeading.FindStringSubmatch(trimmed); m != nil {
			title := stripInline(m[2])
			level := len(m[1])
			outline = append(outline, domain.OutlineNode{Title: title, Level: level, Page: 1})
			if level == 1 && docTitle == "" {
				docTitle = title
			}
			out = append(out, title)
			continue
		}

		if horizontal.MatchString(trimmed) {
			out = append(out, "")
			continue
		}

		line = blockquote.ReplaceAllString(trimmed, "")
		line = listMarker.ReplaceAllString(line, "")
		out = append(out, stripInline(line))
	}
	closeTable()

	metadata := map[string]string{"format": "markdown"}
	if docTitle != "" {
		metadata["title"] = docTitle
	}

	return &domain.ParsedDocument{
		Pages: []domain.Page{{
			Number: 1,
			Text:   strings.Join(out, "\n"),
			Tables: tables,
		}},
		Outline:  outline,
		Metadata: metadata,
	}, nil
}

// isTableRow reports whether a line is a pipe table row.
func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2
}

// splitRow splits a pipe table row into trimmed cells.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, stripInline(strings.TrimSpace(part)))
	}
	return cells
}

// stripInline removes inline Markdown formatting.
func stripInline(s string) string {
	s = images.ReplaceAllString(s, "")
	s = links.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = emphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
