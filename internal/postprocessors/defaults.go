package postprocessors

import (
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/postprocessors/keywords"
	"github.com/custodia-labs/guidekit/internal/postprocessors/potential"
)

// Config keys understood by the default builders.
const (
	ConfigMaxKeywords = "max_keywords"
	ConfigVocabulary  = "vocabulary"
	ConfigStopwords   = "stopwords"
)

// DefaultOrder is the processor order used by the extractor.
var DefaultOrder = []string{"keywords", "potential"}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("keywords", buildKeywords)
	r.Register("potential", buildPotential)
}

// buildKeywords creates a keyword tagger from generic config.
// Supported config keys:
//   - max_keywords (int): cap per chapter (default: 10)
//   - vocabulary ([]string): domain terms matched against chapter text
//   - stopwords ([]string): words never used as title keywords
func buildKeywords(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []keywords.Option

	if cfg != nil {
		if n := getIntFromConfig(cfg, ConfigMaxKeywords); n > 0 {
			opts = append(opts, keywords.WithMaxKeywords(n))
		}
		if vocab := getStringSliceFromConfig(cfg, ConfigVocabulary); len(vocab) > 0 {
			opts = append(opts, keywords.WithVocabulary(vocab))
		}
		if stop := getStringSliceFromConfig(cfg, ConfigStopwords); len(stop) > 0 {
			opts = append(opts, keywords.WithStopwords(stop))
		}
	}

	return keywords.New(opts...), nil
}

// buildPotential creates the function potential classifier. It takes no config.
func buildPotential(_ map[string]any) (driven.PostProcessor, error) {
	return potential.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getStringSliceFromConfig extracts a []string, accepting []any from TOML.
func getStringSliceFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
