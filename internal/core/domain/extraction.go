package domain

import "time"

// FunctionPotential classifies whether content looks structured enough
// for automatic conversion into executable logic.
type FunctionPotential string

// Function potential classes.
const (
	// PotentialRaw is content with no recognised structure.
	PotentialRaw FunctionPotential = "raw"

	// PotentialAutoGenerate is numeric scoring, recommendation tables
	// or explicit stepwise algorithms.
	PotentialAutoGenerate FunctionPotential = "auto_generate"

	// PotentialFlagged is multi-factor or composite decision content
	// that needs a human to structure it.
	PotentialFlagged FunctionPotential = "flagged"
)

// BoundingRegion locates a table within its page.
type BoundingRegion struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// FirstLine and LastLine are 0-based line indexes within the page.
	FirstLine int `json:"first_line"`
	LastLine  int `json:"last_line"`

	// Columns is the widest row's cell count.
	Columns int `json:"columns"`
}

// TableLocation is where a table starts in the document text.
type TableLocation struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// Offset is the byte offset into the concatenated document text.
	Offset int `json:"offset"`
}

// Table is a row/column data block extracted from a document.
// Owned exclusively by one Chapter, or by the entry's unassigned list.
type Table struct {
	Title             string            `json:"title"`
	Location          TableLocation     `json:"location"`
	Content           [][]string        `json:"content"`
	BoundingRegion    BoundingRegion    `json:"bounding_region"`
	FunctionPotential FunctionPotential `json:"function_potential"`
}

// Rows returns the number of rows in the table.
func (t Table) Rows() int {
	return len(t.Content)
}

// Chapter is a named, bounded section of extracted document text.
// Immutable once created; re-extraction replaces the whole set.
type Chapter struct {
	Number            string            `json:"number"`
	Title             string            `json:"title"`
	StartOffset       int               `json:"start_offset"`
	EndOffset         int               `json:"end_offset"`
	RawText           string            `json:"raw_text"`
	Keywords          []string          `json:"keywords"`
	Tables            []Table           `json:"tables"`
	FunctionPotential FunctionPotential `json:"function_potential"`
}

// Contains reports whether the offset falls within [StartOffset, EndOffset).
func (c Chapter) Contains(offset int) bool {
	return offset >= c.StartOffset && offset < c.EndOffset
}

// GuidelineInfo describes the document an extraction came from.
type GuidelineInfo struct {
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type,omitempty"`
	DocumentYear int       `json:"document_year,omitempty"`
	PageCount    int       `json:"page_count"`
	OutlineUsed  bool      `json:"outline_used"`
	ExtractedAt  time.Time `json:"extracted_at"`
}

// ExtractionResult is the output of extracting one document.
type ExtractionResult struct {
	GuidelineInfo GuidelineInfo `json:"guideline_info"`
	Chapters      []Chapter     `json:"chapters"`

	// Tables holds tables not contained in any chapter range.
	Tables []Table `json:"tables"`
}

// TableCount returns the number of tables across chapters and the unassigned list.
func (r ExtractionResult) TableCount() int {
	n := len(r.Tables)
	for i := range r.Chapters {
		n += len(r.Chapters[i].Tables)
	}
	return n
}

// KnowledgeEntry is the indexed extraction result for one content hash.
type KnowledgeEntry struct {
	ContentHash string `json:"content_hash"`
	ExtractionResult
}

// ParsedDocument is the output of a document-parsing collaborator.
type ParsedDocument struct {
	// Pages holds per-page plain text in reading order.
	Pages []Page

	// Outline is the native table of contents, empty if the format has none.
	Outline []OutlineNode

	// Metadata holds format-specific properties (e.g. a PDF title).
	Metadata map[string]string
}

// PageCount returns the number of pages.
func (d *ParsedDocument) PageCount() int {
	return len(d.Pages)
}

// Page is one page or region of plain text.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page's plain text.
	Text string

	// Tables are native tables supplied by the parser.
	// Nil means the extractor should detect tables from Text.
	Tables []TableRegion
}

// OutlineNode is one entry of a native outline.
type OutlineNode struct {
	Title string

	// Level is the 1-based depth (1 = top level).
	Level int

	// Page is the 1-based target page, 0 if unknown.
	Page int
}

// TableRegion is a table as seen by the parser.
type TableRegion struct {
	Title  string
	Rows   [][]string
	Region BoundingRegion

	// Anchor is text used to locate the table inside its page; usually the first row.
	Anchor string
}
