package services

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// Document types, most specific first.
const (
	DocTypeFocusedUpdate      = "focused_update"
	DocTypePocketGuideline    = "pocket_guideline"
	DocTypeSlideDeck          = "slide_deck"
	DocTypeExecutiveSummary   = "executive_summary"
	DocTypeConsensusStatement = "consensus_statement"
	DocTypeGuideline          = "guideline"
)

// classifierTextLimit bounds how much document text the classifier reads.
const classifierTextLimit = 4096

type typePattern struct {
	docType string
	re      *regexp.Regexp
}

// typePatterns are checked in order; the first match wins.
var typePatterns = []typePattern{
	{DocTypeFocusedUpdate, regexp.MustCompile(`(?i)focused[\s_-]*update`)},
	{DocTypePocketGuideline, regexp.MustCompile(`(?i)pocket[\s_-]*guide`)},
	{DocTypeSlideDeck, regexp.MustCompile(`(?i)(?:^|[^a-z])slides?(?:[^a-z]|$)|slide[\s_-]*set|presentation|\.(pptx?|key)$`)},
	{DocTypeExecutiveSummary, regexp.MustCompile(`(?i)executive[\s_-]*summary`)},
	{DocTypeConsensusStatement, regexp.MustCompile(`(?i)consensus|position[\s_-]*(paper|statement)|expert[\s_-]*(opinion|document)`)},
	{DocTypeGuideline, regexp.MustCompile(`(?i)guidelines?|recommendations`)},
}

var (
	yearPattern      = regexp.MustCompile(`(?:^|[^0-9])((?:19[89]|20[0-4])[0-9])(?:[^0-9]|$)`)
	separatorPattern = regexp.MustCompile(`[\s_]+`)
)

// Classifier derives heuristic (title, type, year) hints for a document.
// Every result is a hint for confirmation, never a guaranteed fact.
type Classifier struct{}

// NewClassifier creates a classifier with the built-in pattern tiers.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify inspects the filename first, then the leading document text.
// Fields that match no pattern stay unset.
func (c *Classifier) Classify(filename, text string) domain.Classification {
	text = truncateUTF8(text, classifierTextLimit)
	var result domain.Classification

	for _, source := range []string{filename, text} {
		if result.DocumentType == nil {
			if t, ok := matchType(source); ok {
				result.DocumentType = &t
			}
		}
		if result.DocumentYear == nil {
			if y, ok := matchYear(source); ok {
				result.DocumentYear = &y
			}
		}
	}

	result.Title = headingLine(text)
	if result.Title == "" {
		result.Title = cleanFilename(filename)
	}
	return result
}

// UncertainNote describes which fields need manual follow-up, or "" if none.
func UncertainNote(c domain.Classification) string {
	var missing []string
	if c.DocumentType == nil {
		missing = append(missing, "type")
	}
	if c.DocumentYear == nil {
		missing = append(missing, "year")
	}
	if len(missing) == 0 {
		return ""
	}
	return "classification uncertain: " + strings.Join(missing, " and ") + " not detected, confirm manually"
}

func matchType(s string) (string, bool) {
	for _, p := range typePatterns {
		if p.re.MatchString(s) {
			return p.docType, true
		}
	}
	return "", false
}

func matchYear(s string) (int, bool) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// headingLine returns the first line that reads like a title:
// 12 to 160 characters, mostly letters, not a bare number.
func headingLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		n := utf8.RuneCountInString(line)
		if n < 12 || n > 160 {
			continue
		}
		letters := 0
		for _, r := range line {
			if unicode.IsLetter(r) || r == ' ' {
				letters++
			}
		}
		if float64(letters)/float64(n) >= 0.7 && strings.Count(line, " ") >= 1 {
			return line
		}
	}
	return ""
}

func cleanFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(separatorPattern.ReplaceAllString(base, " "))
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) && len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
