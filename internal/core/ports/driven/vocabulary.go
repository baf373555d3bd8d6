package driven

// Vocabulary names.
const (
	// VocabularyClinicalTerms is the domain vocabulary matched against chapter text.
	VocabularyClinicalTerms = "clinical_terms"

	// VocabularyStopwords is filtered out of queries and title tokens.
	VocabularyStopwords = "stopwords"
)

// VocabularyStore provides the word lists used for keyword tagging and
// query normalisation. Implementations may let users override the built-in lists.
type VocabularyStore interface {
	// Load returns the lowercased terms of the named vocabulary.
	Load(name string) ([]string, error)
}
