package domain

// SearchWeights configures relevance scoring.
// Only the relative ordering of the weights is a contract:
// title > keywords > phrase > term frequency.
type SearchWeights struct {
	Title         float64
	Keywords      float64
	Phrase        float64
	TermFrequency float64

	// RecentYear is the year at or after which the boost applies.
	RecentYear int

	// RecentBoost multiplies the score of recent documents.
	RecentBoost float64
}

// SearchResult is a ranked chapter.
type SearchResult struct {
	ContentHash     string   `json:"content_hash"`
	GuidelineTitle  string   `json:"guideline_title"`
	Chapter         Chapter  `json:"chapter"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}
