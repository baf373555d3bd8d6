// Package docx parses Word (OOXML) guidelines. Heading paragraph styles form
// the native outline and w:tbl elements become native tables.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles DOCX documents.
type Parser struct{}

// New creates a new DOCX parser.
func New() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "docx"
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse reads word/document.xml in document order.
func (p *Parser) Parse(_ context.Context, _ string, content []byte) (*domain.ParsedDocument, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	body, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	w := &walker{tables: []domain.TableRegion{}}
	if err := w.walk(xml.NewDecoder(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	metadata := map[string]string{"format": "docx"}
	if title := extractTitle(reader); title != "" {
		metadata["title"] = title
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

// walker accumulates text lines, outline nodes and tables from the token stream.
type walker struct {
	lines   []string
	outline []domain.OutlineNode
	tables  []domain.TableRegion

	para       strings.Builder
	style      string
	tableDepth int
	table      [][]string
	row        []string
	cell       []string
}

func (w *walker) walk(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(dec, t)
		case xml.EndElement:
			w.end(t)
		}
	}
}

func (w *walker) start(dec *xml.Decoder, t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		w.tableDepth++
		if w.tableDepth == 1 {
			w.table = nil
		}
	case "tr":
		if w.tableDepth == 1 {
			w.row = nil
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cell = nil
		}
	case "p":
		w.para.Reset()
		w.style = ""
	case "pStyle":
		for _, attr := range t.Attr {
			if attr.Name.Local == "val" {
				w.style = attr.Value
			}
		}
	case "t":
		var text string
		if err := dec.DecodeElement(&text, &t); err == nil {
			w.para.WriteString(text)
		}
	case "tab":
		w.para.WriteString("\t")
	case "br", "cr":
		w.para.WriteString(" ")
	}
}

func (w *walker) end(t xml.EndElement) {
	switch t.Name.Local {
	case "p":
		text := strings.TrimSpace(w.para.String())
		if w.tableDepth > 0 {
			if text != "" {
				w.cell = append(w.cell, text)
			}
			return
		}
		if level, ok := headingLevel(w.style); ok && text != "" {
			w.outline = append(w.outline, domain.OutlineNode{Title: text, Level: level, Page: 1})
		}
		w.lines = append(w.lines, text)
	case "tc":
		if w.tableDepth == 1 {
			w.row = append(w.row, strings.Join(w.cell, " "))
		}
	case "tr":
		if w.tableDepth == 1 && len(w.row) > 0 {
			w.table = append(w.table, w.row)
		}
	case "tbl":
		w.tableDepth--
		if w.tableDepth == 0 {
			w.flushTable()
		}
	}
}

// flushTable renders the finished table into the text and records it.
func (w *walker) flushTable() {
	if len(w.table) == 0 {
		return
	}
	region := domain.TableRegion{
		Rows:   w.table,
		Region: domain.BoundingRegion{Page: 1, FirstLine: len(w.lines)},
		Anchor: strings.Join(w.table[0], "  "),
	}
	for _, row := range w.table {
		w.lines = append(w.lines, strings.Join(row, "  "))
		if len(row) > region.Region.Columns {
			region.Region.Columns = len(row)
		}
	}
	region.Region.LastLine = len(w.lines) - 1
	w.tables = append(w.tables, region)
	w.table = nil
}

// headingLevel maps "Heading1".."Heading9" and "Title" to outline levels.
func headingLevel(style string) (int, bool) {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1, true
	}
	if !strings.HasPrefix(lower, "heading") {
		return 0, false
	}
	level, err := strconv.Atoi(strings.TrimPrefix(lower, "heading"))
	if err != nil || level < 1 {
		return 0, false
	}
	return level, true
}

func readEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml.
func extractTitle(reader *zip.Reader) string {
	content, err := readEntry(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
