// Package html parses HTML guidelines, typically pages saved by a confirmed
// download. h1-h3 elements form the native outline and <table> elements
// become native tables.
package html

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles HTML documents.
type Parser struct{}

// New creates a new HTML parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "html"
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// skipTags are elements whose content is never guideline text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"nav":      true,
	"footer":   true,
	"iframe":   true,
	"template": true,
}

// blockTags start a new line in the extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "ul": true, "ol": true,
	"blockquote": true, "pre": true, "section": true, "article": true, "header": true,
	"main": true, "h4": true, "h5": true, "h6": true, "dt": true, "dd": true, "figcaption": true,
}

// Parse walks the node tree in document order.
func (p *Parser) Parse(_ context.Context, _ string, content []byte) (*domain.ParsedDocument, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	w := &walker{tables: []domain.TableRegion{}}
	w.walk(root)
	w.newline()

	metadata := map[string]string{"format": "html"}
	if w.title != "" {
		metadata["title"] = w.title
	}

	return &domain.ParsedDocument{
		Pages: []domain.Page{{
			Number: 1,
			Text:   strings.Join(w.lines, "\n"),
			Tables: w.tables,
		}},
		Outline:  w.outline,
		Metadata: metadata,
	}, nil
}

type walker struct {
	lines   []string
	current strings.Builder
	outline []domain.OutlineNode
	tables  []domain.TableRegion
	title   string
}

// newline flushes the pending inline text as a line.
func (w *walker) newline() {
	line := strings.Join(strings.Fields(w.current.String()), " ")
	w.current.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *walker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch {
		case skipTags[n.Data]:
			return
		case n.Data == "title":
			if w.title == "" {
				w.title = strings.TrimSpace(textContent(n))
			}
			return
		case n.Data == "h1" || n.Data == "h2" || n.Data == "h3":
			w.heading(n)
			return
		case n.Data == "table":
			w.table(n)
			return
		case blockTags[n.Data]:
			w.newline()
			defer w.newline()
		}
	}

	if n.Type == html.TextNode {
		w.current.WriteString(n.Data)
		w.current.WriteString(" ")
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) heading(n *html.Node) {
	w.newline()
	text := strings.Join(strings.Fields(textContent(n)), " ")
	if text == "" {
		return
	}
	level, _ := strconv.Atoi(strings.TrimPrefix(n.Data, "h"))
	w.outline = append(w.outline, domain.OutlineNode{Title: text, Level: level, Page: 1})
	w.lines = append(w.lines, text)
}

func (w *walker) table(n *html.Node) {
	w.newline()

	var (
		rows    [][]string
		caption string
	)
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "caption":
				caption = strings.Join(strings.Fields(textContent(c)), " ")
			case "tr":
				var row []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						row = append(row, strings.Join(strings.Fields(textContent(cell)), " "))
					}
				}
				if len(row) > 0 {
					rows = append(rows, row)
				}
			case "table":
				// Nested tables are flattened into their parent cell text.
			default:
				collect(c)
			}
		}
	}
	collect(n)

	if len(rows) == 0 {
		return
	}

	if caption != "" {
		w.lines = append(w.lines, caption)
	}
	region := domain.TableRegion{
		Title:  caption,
		Rows:   rows,
		Region: domain.BoundingRegion{Page: 1, FirstLine: len(w.lines)},
		Anchor: strings.Join(rows[0], "  "),
	}
	for _, row := range rows {
		w.lines = append(w.lines, strings.Join(row, "  "))
		if len(row) > region.Region.Columns {
			region.Region.Columns = len(row)
		}
	}
	region.Region.LastLine = len(w.lines) - 1
	w.tables = append(w.tables, region)
}

// textContent concatenates all descendant text nodes, skipping non-content elements.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && skipTags[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
