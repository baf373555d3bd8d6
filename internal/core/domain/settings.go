package domain

import "time"

// IndexBackend selects the knowledge index persistence.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendJSON stores the index as one JSON document replaced atomically.
	IndexBackendJSON IndexBackend = "json"

	// IndexBackendSQLite stores the index in SQLite, one transaction per upsert.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendJSON || b == IndexBackendSQLite
}

// PathSettings holds filesystem locations.
type PathSettings struct {
	// WatchDir is where source documents are scanned and downloads are saved.
	WatchDir string

	// DataDir holds the persisted stores.
	DataDir string

	// ArtifactDir receives approved generated code.
	ArtifactDir string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	Weights SearchWeights

	// DefaultLimit is used when a caller passes top_k <= 0.
	DefaultLimit int
}

// ExtractSettings holds extraction behaviour configuration.
type ExtractSettings struct {
	// OutlineDepth is the deepest outline level that becomes a chapter.
	OutlineDepth int

	// MaxKeywords caps per-chapter keywords.
	MaxKeywords int

	// Workers bounds parallel extraction in batch processing.
	Workers int

	// MinCapsHeading is the minimum letter count of an all-caps heading line.
	MinCapsHeading int
}

// WebSettings holds external update configuration.
type WebSettings struct {
	// Timeout bounds every network action.
	Timeout time.Duration

	// APIKey and EngineID configure the Custom Search API.
	APIKey   string
	EngineID string

	// TrustedSources are search domains in trust order.
	TrustedSources []string

	// RequestsPerSecond throttles web search calls.
	RequestsPerSecond float64
}

// ArtifactSettings holds generated-artifact configuration.
type ArtifactSettings struct {
	// Package is the Go package name of generated files.
	Package string
}

// Settings is the complete application configuration.
type Settings struct {
	Paths     PathSettings
	Index     IndexBackend
	Search    SearchSettings
	Extract   ExtractSettings
	Web       WebSettings
	Artifacts ArtifactSettings
}

// DefaultTrustedSources lists peer-reviewed and official guideline publishers in trust order.
var DefaultTrustedSources = []string{
	"escardio.org",
	"academic.oup.com",
	"ahajournals.org",
	"jacc.org",
	"nice.org.uk",
	"pubmed.ncbi.nlm.nih.gov",
}

// DefaultSettings returns settings with every default applied.
// Paths are left empty; the settings service resolves them under the config directory.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexBackendJSON,
		Search: SearchSettings{
			Weights: SearchWeights{
				Title:         0.45,
				Keywords:      0.30,
				Phrase:        0.15,
				TermFrequency: 0.10,
				RecentYear:    2020,
				RecentBoost:   1.10,
			},
			DefaultLimit: 5,
		},
		Extract: ExtractSettings{
			OutlineDepth:   2,
			MaxKeywords:    10,
			Workers:        4,
			MinCapsHeading: 8,
		},
		Web: WebSettings{
			Timeout:           20 * time.Second,
			TrustedSources:    append([]string(nil), DefaultTrustedSources...),
			RequestsPerSecond: 1,
		},
		Artifacts: ArtifactSettings{
			Package: "generated",
		},
	}
}
