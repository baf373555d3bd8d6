package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Heading heuristics.
var (
	numberedHeading = regexp.MustCompile(`^(\d{1,2}(?:\.\d{1,2})*)\.?\s+(\p{Lu}.*)$`)
	leadingNumber   = regexp.MustCompile(`^(\d{1,2}(?:\.\d{1,2})*)\.?\s+`)
	cellSeparator   = regexp.MustCompile(`\t+|\s{2,}`)
	pipeSeparator   = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?\s*$`)
	tableCaption    = regexp.MustCompile(`(?i)^table\s+\S+`)
)

const (
	maxHeadingRunes = 100
	maxHeadingWords = 12
	maxShortCaps    = 3
	minShortCaps    = 3
)

// Extractor turns a parsed document into chapters and tables.
// Keywords and function potential are assigned by the post-processor pipeline.
type Extractor struct {
	pipeline driven.PostProcessorPipeline
	cfg      domain.ExtractSettings
	now      func() time.Time
}

// NewExtractor creates an extractor. The pipeline may be nil.
func NewExtractor(pipeline driven.PostProcessorPipeline, cfg domain.ExtractSettings) *Extractor {
	d := domain.DefaultSettings().Extract
	if cfg.OutlineDepth <= 0 {
		cfg.OutlineDepth = d.OutlineDepth
	}
	if cfg.MinCapsHeading <= 0 {
		cfg.MinCapsHeading = d.MinCapsHeading
	}
	return &Extractor{
		pipeline: pipeline,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// line is one line of the concatenated document text.
type line struct {
	text     string
	offset   int
	page     int
	pageLine int
}

// heading opens a chapter at offset.
type heading struct {
	number string
	title  string
	offset int
	level  int
}

// located is a table and where it starts.
type located struct {
	table domain.Table
	lines map[int]bool
}

// docText is the concatenated text of a parsed document.
type docText struct {
	text  string
	lines []line
}

// Extract parses chapters and tables out of doc.
// An unusable outline falls back to heading heuristics; a failing page
// loses only its tables.
func (e *Extractor) Extract(ctx context.Context, doc *domain.ParsedDocument, info domain.GuidelineInfo) (*domain.ExtractionResult, error) {
	if doc == nil || doc.PageCount() == 0 {
		return nil, fmt.Errorf("%w: no pages", domain.ErrUnreadableDocument)
	}

	dt := concatenate(doc.Pages)
	if strings.TrimSpace(dt.text) == "" {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrUnreadableDocument)
	}

	if info.Title == "" {
		info.Title = doc.Metadata["title"]
	}
	info.PageCount = doc.PageCount()
	if info.ExtractedAt.IsZero() {
		info.ExtractedAt = e.now()
	}

	tables := e.extractTables(doc.Pages, dt)
	tableLines := make(map[int]bool)
	for _, t := range tables {
		for idx := range t.lines {
			tableLines[idx] = true
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headings, outlineUsed := e.outlineHeadings(doc, dt)
	if !outlineUsed {
		headings = e.heuristicHeadings(dt, tableLines, len(doc.Pages))
	}
	info.OutlineUsed = outlineUsed

	result := &domain.ExtractionResult{
		GuidelineInfo: info,
		Chapters:      buildChapters(dt.text, headings, info.Title),
		Tables:        []domain.Table{},
	}
	assignTables(result, tables)

	logger.Debug("extracted %d chapters, %d tables (outline: %t)",
		len(result.Chapters), result.TableCount(), outlineUsed)

	if e.pipeline != nil {
		if err := e.pipeline.Process(ctx, result); err != nil {
			return nil, fmt.Errorf("post-process: %w", err)
		}
	}
	return result, nil
}

func concatenate(pages []domain.Page) docText {
	var b strings.Builder
	var lines []line
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		num := page.Number
		if num == 0 {
			num = i + 1
		}
		for j, text := range strings.Split(page.Text, "\n") {
			if j > 0 {
				b.WriteString("\n")
			}
			lines = append(lines, line{text: text, offset: b.Len(), page: num, pageLine: j})
			b.WriteString(text)
		}
	}
	return docText{text: b.String(), lines: lines}
}

// outlineHeadings locates shallow outline nodes in the text. It reports
// false when there is no outline or no node could be located.
func (e *Extractor) outlineHeadings(doc *domain.ParsedDocument, dt docText) (headings []heading, ok bool) {
	if len(doc.Outline) == 0 {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("outline walk failed, using heading heuristics: %v", r)
			headings, ok = nil, false
		}
	}()

	pageStart := make(map[int]int)
	for _, l := range dt.lines {
		if _, seen := pageStart[l.page]; !seen {
			pageStart[l.page] = l.offset
		}
	}

	pos := 0
	for _, node := range doc.Outline {
		if node.Level > e.cfg.OutlineDepth || strings.TrimSpace(node.Title) == "" {
			continue
		}
		from := pos
		if start, found := pageStart[node.Page]; found && start > from {
			from = start
		}
		idx := findTitle(dt.text[from:], node.Title)
		if idx < 0 && from > pos {
			// Page targets are hints; retry from the previous node
			idx = findTitle(dt.text[pos:], node.Title)
			from = pos
		}
		if idx < 0 {
			logger.Debug("outline node %q not found in text", node.Title)
			continue
		}
		offset := from + idx
		headings = append(headings, heading{
			number: chapterNumber(node.Title),
			title:  strings.Join(strings.Fields(node.Title), " "),
			offset: offset,
			level:  node.Level,
		})
		pos = offset + 1
	}

	if len(headings) == 0 {
		logger.Warn("no outline node could be located, using heading heuristics")
		return nil, false
	}
	return headings, true
}

// findTitle finds title in text ignoring case and whitespace differences.
func findTitle(text, title string) int {
	words := strings.Fields(title)
	if len(words) == 0 {
		return -1
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(words, `\s+`))
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// heuristicHeadings scans line by line for numbered, all-caps and short
// all-caps headings. Table lines and running page headers never qualify.
func (e *Extractor) heuristicHeadings(dt docText, tableLines map[int]bool, pages int) []heading {
	repeated := runningHeaders(dt.lines, pages)

	var headings []heading
	for i, l := range dt.lines {
		if tableLines[i] {
			continue
		}
		text := strings.Join(strings.Fields(l.text), " ")
		if text == "" || repeated[text] || strings.Contains(strings.TrimSpace(l.text), "  ") {
			continue
		}
		if utf8.RuneCountInString(text) > maxHeadingRunes {
			continue
		}

		if m := numberedHeading.FindStringSubmatch(text); m != nil {
			if len(strings.Fields(text)) <= maxHeadingWords && !strings.HasSuffix(text, ".") {
				headings = append(headings, heading{number: m[1], title: text, offset: l.offset, level: 1})
			}
			continue
		}

		letters, upper := letterCounts(text)
		if letters == 0 || letters != upper {
			continue
		}
		words := len(strings.Fields(text))
		if letters >= e.cfg.MinCapsHeading || (words <= maxShortCaps && letters >= minShortCaps) {
			headings = append(headings, heading{title: text, offset: l.offset, level: 1})
		}
	}
	return headings
}

// runningHeaders returns lines repeated on at least half of the pages
// (and at least three), such as journal headers.
func runningHeaders(lines []line, pages int) map[string]bool {
	repeated := make(map[string]bool)
	if pages < 3 {
		return repeated
	}
	pagesWith := make(map[string]map[int]bool)
	for _, l := range lines {
		text := strings.Join(strings.Fields(l.text), " ")
		if text == "" {
			continue
		}
		if pagesWith[text] == nil {
			pagesWith[text] = make(map[int]bool)
		}
		pagesWith[text][l.page] = true
	}
	for text, seen := range pagesWith {
		if len(seen) >= 3 && len(seen)*2 >= pages {
			repeated[text] = true
		}
	}
	return repeated
}

func letterCounts(s string) (letters, upper int) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters, upper
}

func chapterNumber(title string) string {
	if m := leadingNumber.FindStringSubmatch(strings.TrimSpace(title)); m != nil {
		return m[1]
	}
	return ""
}

// buildChapters bounds each heading by the next heading of the same or a
// higher level, or the end of the text. Without headings the whole text
// becomes one chapter titled after the guideline.
func buildChapters(text string, headings []heading, guidelineTitle string) []domain.Chapter {
	if len(headings) == 0 {
		title := guidelineTitle
		if title == "" {
			title = "Document"
		}
		return []domain.Chapter{newChapter("", title, text, 0, len(text))}
	}

	sort.SliceStable(headings, func(i, j int) bool { return headings[i].offset < headings[j].offset })

	chapters := make([]domain.Chapter, 0, len(headings))
	for i, h := range headings {
		end := len(text)
		for _, next := range headings[i+1:] {
			if next.level <= h.level && next.offset > h.offset {
				end = next.offset
				break
			}
		}
		chapters = append(chapters, newChapter(h.number, h.title, text, h.offset, end))
	}
	return chapters
}

func newChapter(number, title, text string, start, end int) domain.Chapter {
	return domain.Chapter{
		Number:            number,
		Title:             title,
		StartOffset:       start,
		EndOffset:         end,
		RawText:           strings.TrimSpace(text[start:end]),
		Keywords:          []string{},
		Tables:            []domain.Table{},
		FunctionPotential: domain.PotentialRaw,
	}
}

// assignTables gives each table to the innermost chapter containing its
// offset, or to the unassigned list.
func assignTables(result *domain.ExtractionResult, tables []located) {
	for _, t := range tables {
		best := -1
		for i, ch := range result.Chapters {
			if !ch.Contains(t.table.Location.Offset) {
				continue
			}
			if best < 0 || ch.EndOffset-ch.StartOffset < result.Chapters[best].EndOffset-result.Chapters[best].StartOffset {
				best = i
			}
		}
		if best < 0 {
			result.Tables = append(result.Tables, t.table)
			continue
		}
		result.Chapters[best].Tables = append(result.Chapters[best].Tables, t.table)
	}
}

// extractTables collects native or text-detected tables page by page.
func (e *Extractor) extractTables(pages []domain.Page, dt docText) []located {
	byPage := make(map[int][]int)
	for i, l := range dt.lines {
		byPage[l.page] = append(byPage[l.page], i)
	}

	var out []located
	for i, page := range pages {
		num := page.Number
		if num == 0 {
			num = i + 1
		}
		found, err := pageTables(page, num, dt, byPage[num])
		if err != nil {
			logger.Warn("page %d: skipping tables: %v", num, err)
			continue
		}
		out = append(out, found...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].table.Location.Offset < out[j].table.Location.Offset
	})
	return out
}

// pageTables isolates one page so a failure only loses that page's tables.
func pageTables(page domain.Page, num int, dt docText, lineIdx []int) (found []located, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if len(lineIdx) == 0 {
		return nil, nil
	}
	if page.Tables != nil {
		return nativeTables(page.Tables, num, dt, lineIdx), nil
	}
	return detectTables(num, dt, lineIdx), nil
}

func nativeTables(regions []domain.TableRegion, num int, dt docText, lineIdx []int) []located {
	pageOffset := dt.lines[lineIdx[0]].offset
	pageEnd := dt.lines[lineIdx[len(lineIdx)-1]].offset + len(dt.lines[lineIdx[len(lineIdx)-1]].text)

	out := make([]located, 0, len(regions))
	for _, region := range regions {
		if len(region.Rows) == 0 {
			continue
		}
		offset := pageOffset
		spanned := make(map[int]bool)
		first, last := region.Region.FirstLine, region.Region.LastLine
		switch {
		case first >= 0 && first < len(lineIdx) && last >= first:
			offset = dt.lines[lineIdx[first]].offset
			for l := first; l <= last && l < len(lineIdx); l++ {
				spanned[lineIdx[l]] = true
			}
		case region.Anchor != "":
			if idx := strings.Index(dt.text[pageOffset:pageEnd], region.Anchor); idx >= 0 {
				offset = pageOffset + idx
			}
		}

		bounds := region.Region
		bounds.Page = num
		out = append(out, located{
			table: domain.Table{
				Title:             region.Title,
				Location:          domain.TableLocation{Page: num, Offset: offset},
				Content:           region.Rows,
				BoundingRegion:    bounds,
				FunctionPotential: domain.PotentialRaw,
			},
			lines: spanned,
		})
	}
	return out
}

// detectTables finds runs of at least two consecutive lines that split into
// two or more cells, either on pipes or on runs of spaces and tabs.
func detectTables(num int, dt docText, lineIdx []int) []located {
	var out []located
	var rows [][]string
	var spanned []int

	flush := func() {
		if len(rows) >= 2 {
			first := spanned[0]
			cols := 0
			set := make(map[int]bool, len(spanned))
			for _, idx := range spanned {
				set[idx] = true
			}
			for _, r := range rows {
				if len(r) > cols {
					cols = len(r)
				}
			}
			out = append(out, located{
				table: domain.Table{
					Title:    captionBefore(dt, lineIdx, dt.lines[first].pageLine),
					Location: domain.TableLocation{Page: num, Offset: dt.lines[first].offset},
					Content:  rows,
					BoundingRegion: domain.BoundingRegion{
						Page:      num,
						FirstLine: dt.lines[first].pageLine,
						LastLine:  dt.lines[spanned[len(spanned)-1]].pageLine,
						Columns:   cols,
					},
					FunctionPotential: domain.PotentialRaw,
				},
				lines: set,
			})
		}
		rows, spanned = nil, nil
	}

	for _, idx := range lineIdx {
		text := strings.TrimSpace(dt.lines[idx].text)
		if pipeSeparator.MatchString(text) && strings.Contains(text, "-") && len(rows) > 0 {
			spanned = append(spanned, idx)
			continue
		}
		cells := splitCells(text)
		if len(cells) < 2 {
			flush()
			continue
		}
		rows = append(rows, cells)
		spanned = append(spanned, idx)
	}
	flush()
	return out
}

func splitCells(text string) []string {
	if text == "" {
		return nil
	}
	var parts []string
	if strings.HasPrefix(text, "|") && strings.Count(text, "|") >= 2 {
		parts = strings.Split(strings.Trim(text, "|"), "|")
	} else {
		parts = cellSeparator.Split(text, -1)
	}
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// captionBefore returns the nearest preceding non-empty line if it reads
// like a table caption ("Table 3 ...").
func captionBefore(dt docText, lineIdx []int, pageLine int) string {
	for l := pageLine - 1; l >= 0 && l < len(lineIdx); l-- {
		text := strings.TrimSpace(dt.lines[lineIdx[l]].text)
		if text == "" {
			continue
		}
		if tableCaption.MatchString(text) {
			return strings.Join(strings.Fields(text), " ")
		}
		return ""
	}
	return ""
}
