// Package keywords tags chapters with domain vocabulary matches and salient
// title tokens.
package keywords

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// DefaultMaxKeywords is the default cap on keywords per chapter.
const DefaultMaxKeywords = 10

// minTitleToken is the shortest title token kept as a keyword.
const minTitleToken = 4

// defaultStopwords are used when no stop-word list is configured.
var defaultStopwords = []string{
	"about", "after", "also", "and", "from", "into", "other", "should", "than",
	"that", "their", "these", "this", "those", "under", "when", "which", "with",
}

// Processor assigns Chapter.Keywords.
// It implements the PostProcessor interface.
type Processor struct {
	maxKeywords int
	vocabulary  []string
	stopwords   map[string]bool
}

// Option configures the keyword processor.
type Option func(*Processor)

// WithMaxKeywords sets the per-chapter cap.
func WithMaxKeywords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxKeywords = n
		}
	}
}

// WithVocabulary sets the domain vocabulary. Terms are lowercased.
func WithVocabulary(terms []string) Option {
	return func(p *Processor) {
		p.vocabulary = normalise(terms)
	}
}

// WithStopwords replaces the stop-word list.
func WithStopwords(words []string) Option {
	return func(p *Processor) {
		p.stopwords = toSet(normalise(words))
	}
}

// New creates a new keyword processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxKeywords: DefaultMaxKeywords,
		stopwords:   toSet(defaultStopwords),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "keywords"
}

// Process replaces the keywords of every chapter.
func (p *Processor) Process(_ context.Context, result *domain.ExtractionResult) error {
	for i := range result.Chapters {
		ch := &result.Chapters[i]
		ch.Keywords = p.Keywords(ch.Title, ch.RawText)
	}
	return nil
}

// Keywords returns the sorted keyword set for a chapter.
// Vocabulary terms are ranked by occurrence count, then title tokens follow;
// the top maxKeywords are kept and returned in lexical order.
func (p *Processor) Keywords(title, text string) []string {
	haystack := strings.ToLower(title + "\n" + text)

	type hit struct {
		term  string
		count int
	}
	var hits []hit
	for _, term := range p.vocabulary {
		if n := CountTerm(haystack, term); n > 0 {
			hits = append(hits, hit{term: term, count: n})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].term < hits[j].term
	})

	seen := make(map[string]bool)
	var ranked []string
	for _, h := range hits {
		if !seen[h.term] {
			seen[h.term] = true
			ranked = append(ranked, h.term)
		}
	}
	for _, token := range p.titleTokens(title) {
		if !seen[token] {
			seen[token] = true
			ranked = append(ranked, token)
		}
	}

	if len(ranked) > p.maxKeywords {
		ranked = ranked[:p.maxKeywords]
	}
	sort.Strings(ranked)
	if ranked == nil {
		return []string{}
	}
	return ranked
}

// titleTokens returns salient title words: alphabetic, long enough, not stop words.
func (p *Processor) titleTokens(title string) []string {
	var tokens []string
	for _, field := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	}) {
		field = strings.Trim(field, "-")
		if len([]rune(field)) < minTitleToken || p.stopwords[field] {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// CountTerm counts whole-word occurrences of term in lowercased text.
func CountTerm(text, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(term)
		if boundary(text, start-1) && boundary(text, end) {
			count++
		}
		offset = start + 1
	}
	return count
}

// boundary reports whether position i is outside text or a non-word byte.
func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 0x80)
}

func normalise(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			out = append(out, term)
		}
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
