package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// fallbackStopwords are used when the vocabulary store has no stop-word list.
var fallbackStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "how", "in",
	"is", "it", "of", "on", "or", "the", "to", "what", "when", "which", "with",
}

// phraseSaturation is the phrase match count that earns the full phrase score.
const phraseSaturation = 3.0

// SearchService ranks indexed chapters against free-text queries.
type SearchService struct {
	index     *KnowledgeIndex
	settings  domain.SearchSettings
	stopwords map[string]bool
}

// NewSearchService creates a search service. vocab may be nil.
func NewSearchService(index *KnowledgeIndex, vocab driven.VocabularyStore, settings domain.SearchSettings) *SearchService {
	words := fallbackStopwords
	if vocab != nil {
		if loaded, err := vocab.Load(driven.VocabularyStopwords); err == nil && len(loaded) > 0 {
			words = loaded
		} else if err != nil {
			logger.Debug("stop words unavailable, using built-in list: %v", err)
		}
	}
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = domain.DefaultSettings().Search.DefaultLimit
	}

	stop := make(map[string]bool, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = true
	}
	return &SearchService{index: index, settings: settings, stopwords: stop}
}

// Search returns at most topK chapters ordered by score. Chapters scoring
// zero are dropped; equal scores keep index order (hash, then chapter).
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	if topK <= 0 {
		topK = s.settings.DefaultLimit
	}
	terms := s.queryTerms(query)
	if len(terms) == 0 {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	entries, err := s.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}

	q := newQuery(terms)
	var results []domain.SearchResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		boost := 1.0
		w := s.settings.Weights
		if w.RecentYear > 0 && entry.GuidelineInfo.DocumentYear >= w.RecentYear && w.RecentBoost > 0 {
			boost = w.RecentBoost
		}
		for _, ch := range entry.Chapters {
			score, matched := s.score(q, ch)
			if score <= 0 {
				continue
			}
			results = append(results, domain.SearchResult{
				ContentHash:     entry.ContentHash,
				GuidelineTitle:  entry.GuidelineInfo.Title,
				Chapter:         ch,
				Score:           score * boost,
				MatchedKeywords: matched,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// GetChapter finds a chapter by exact, case-insensitive title within one document.
func (s *SearchService) GetChapter(ctx context.Context, contentHash, title string) (*domain.Chapter, error) {
	return s.index.GetChapter(ctx, contentHash, title)
}

// query holds the normalised query terms.
type query struct {
	terms   []string
	set     map[string]bool
	phrases [][]string
}

func newQuery(terms []string) query {
	q := query{terms: terms, set: make(map[string]bool, len(terms))}
	for _, t := range terms {
		q.set[t] = true
	}
	if len(terms) > 1 {
		q.phrases = append(q.phrases, terms)
		if len(terms) > 2 {
			for i := 0; i+1 < len(terms); i++ {
				q.phrases = append(q.phrases, terms[i:i+2])
			}
		}
	}
	return q
}

// score combines, by decreasing weight: title overlap, keyword coverage,
// phrase matches and saturated term frequency. Each component is in [0,1].
func (s *SearchService) score(q query, ch domain.Chapter) (float64, []string) {
	w := s.settings.Weights

	title := jaccard(q.set, toSet(s.filter(tokenize(ch.Title))))

	matched := []string{}
	if len(ch.Keywords) > 0 {
		for _, kw := range ch.Keywords {
			if containsAll(q.set, tokenize(kw)) {
				matched = append(matched, kw)
			}
		}
	}
	var keywords float64
	if len(ch.Keywords) > 0 {
		keywords = float64(len(matched)) / float64(len(ch.Keywords))
	}

	body := tokenize(ch.RawText)
	counts := make(map[string]int, len(q.terms))
	for _, tok := range body {
		if q.set[tok] {
			counts[tok]++
		}
	}

	phraseCount := 0
	for _, p := range q.phrases {
		phraseCount += countSequence(body, p)
	}
	phrase := float64(phraseCount) / phraseSaturation
	if phrase > 1 {
		phrase = 1
	}

	var tf float64
	for _, t := range q.terms {
		c := float64(counts[t])
		tf += c / (c + 1.5)
	}
	tf /= float64(len(q.terms))

	total := w.Title*title + w.Keywords*keywords + w.Phrase*phrase + w.TermFrequency*tf
	return total, matched
}

// queryTerms lowercases, strips punctuation, removes stop words and duplicates.
func (s *SearchService) queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, t := range s.filter(tokenize(query)) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

func (s *SearchService) filter(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		if !s.stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// tokenize splits text into lowercase words of letters, digits and hyphens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func containsAll(set map[string]bool, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !set[t] {
			return false
		}
	}
	return true
}

func countSequence(tokens, seq []string) int {
	if len(seq) == 0 || len(tokens) < len(seq) {
		return 0
	}
	n := 0
	for i := 0; i+len(seq) <= len(tokens); i++ {
		match := true
		for j := range seq {
			if tokens[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}
