package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyWatchDir          = "paths.watch_dir"
	keyDataDir           = "paths.data_dir"
	keyArtifactDir       = "paths.artifact_dir"
	keyIndexBackend      = "index.backend"
	keyWeightTitle       = "search.weight_title"
	keyWeightKeywords    = "search.weight_keywords"
	keyWeightPhrase      = "search.weight_phrase"
	keyWeightTermFreq    = "search.weight_term_frequency"
	keyRecentYear        = "search.recent_year"
	keyRecentBoost       = "search.recent_boost"
	keyDefaultLimit      = "search.default_limit"
	keyOutlineDepth      = "extract.outline_depth"
	keyMaxKeywords       = "extract.max_keywords"
	keyWorkers           = "extract.workers"
	keyMinCapsHeading    = "extract.min_caps_heading"
	keyWebTimeout        = "web.timeout_seconds"
	keyWebAPIKey         = "web.api_key"
	keyWebEngineID       = "web.engine_id"
	keyWebTrustedSources = "web.trusted_sources"
	keyWebRate           = "web.requests_per_second"
	keyArtifactPackage   = "artifacts.package"
)

// Default directory names under the base directory.
const (
	DefaultWatchDirName    = "guidelines"
	DefaultDataDirName     = "data"
	DefaultArtifactDirName = "generated"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindStringSlice
)

var settingKeys = map[string]keyKind{
	keyWatchDir:          kindString,
	keyDataDir:           kindString,
	keyArtifactDir:       kindString,
	keyIndexBackend:      kindString,
	keyWeightTitle:       kindFloat,
	keyWeightKeywords:    kindFloat,
	keyWeightPhrase:      kindFloat,
	keyWeightTermFreq:    kindFloat,
	keyRecentYear:        kindInt,
	keyRecentBoost:       kindFloat,
	keyDefaultLimit:      kindInt,
	keyOutlineDepth:      kindInt,
	keyMaxKeywords:       kindInt,
	keyWorkers:           kindInt,
	keyMinCapsHeading:    kindInt,
	keyWebTimeout:        kindInt,
	keyWebAPIKey:         kindString,
	keyWebEngineID:       kindString,
	keyWebTrustedSources: kindStringSlice,
	keyWebRate:           kindFloat,
	keyArtifactPackage:   kindString,
}

// SettingsService resolves application settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
}

// NewSettingsService creates a new settings service.
// baseDir anchors the default paths (usually ~/.guidekit).
func NewSettingsService(configStore driven.ConfigStore, baseDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
	}
}

// Get resolves the current settings. Missing or invalid values fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Paths: domain.PathSettings{
			WatchDir:    s.getPath(keyWatchDir, DefaultWatchDirName),
			DataDir:     s.getPath(keyDataDir, DefaultDataDirName),
			ArtifactDir: s.getPath(keyArtifactDir, DefaultArtifactDirName),
		},
		Index: s.getBackend(d.Index),
		Search: domain.SearchSettings{
			Weights: domain.SearchWeights{
				Title:         s.getPositiveFloat(keyWeightTitle, d.Search.Weights.Title),
				Keywords:      s.getPositiveFloat(keyWeightKeywords, d.Search.Weights.Keywords),
				Phrase:        s.getPositiveFloat(keyWeightPhrase, d.Search.Weights.Phrase),
				TermFrequency: s.getPositiveFloat(keyWeightTermFreq, d.Search.Weights.TermFrequency),
				RecentYear:    s.getPositiveInt(keyRecentYear, d.Search.Weights.RecentYear),
				RecentBoost:   s.getPositiveFloat(keyRecentBoost, d.Search.Weights.RecentBoost),
			},
			DefaultLimit: s.getPositiveInt(keyDefaultLimit, d.Search.DefaultLimit),
		},
		Extract: domain.ExtractSettings{
			OutlineDepth:   s.getPositiveInt(keyOutlineDepth, d.Extract.OutlineDepth),
			MaxKeywords:    s.getPositiveInt(keyMaxKeywords, d.Extract.MaxKeywords),
			Workers:        s.getPositiveInt(keyWorkers, d.Extract.Workers),
			MinCapsHeading: s.getPositiveInt(keyMinCapsHeading, d.Extract.MinCapsHeading),
		},
		Web: domain.WebSettings{
			Timeout:           time.Duration(s.getPositiveInt(keyWebTimeout, int(d.Web.Timeout/time.Second))) * time.Second,
			APIKey:            s.configStore.GetString(keyWebAPIKey),
			EngineID:          s.configStore.GetString(keyWebEngineID),
			TrustedSources:    d.Web.TrustedSources,
			RequestsPerSecond: s.getPositiveFloat(keyWebRate, d.Web.RequestsPerSecond),
		},
		Artifacts: domain.ArtifactSettings{
			Package: s.getString(keyArtifactPackage, d.Artifacts.Package),
		},
	}

	if sources := s.configStore.GetStringSlice(keyWebTrustedSources); len(sources) > 0 {
		settings.Web.TrustedSources = sources
	}

	return settings, nil
}

// Set parses value according to the key's type and persists it.
// Slice values are comma separated.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindStringSlice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		typed = items
	default:
		if key == keyIndexBackend && !domain.IndexBackend(value).IsValid() {
			return fmt.Errorf("%w: index backend must be %q or %q",
				domain.ErrInvalidInput, domain.IndexBackendJSON, domain.IndexBackendSQLite)
		}
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the recognised configuration keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getPositiveFloat(key string, defaultVal float64) float64 {
	if val := s.configStore.GetFloat(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(s.configStore.GetString(keyIndexBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getPath(key, defaultName string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return filepath.Join(s.baseDir, defaultName)
	}
	if val == "~" || strings.HasPrefix(val, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			val = filepath.Join(home, strings.TrimPrefix(val, "~"))
		}
	}
	if !filepath.IsAbs(val) {
		val = filepath.Join(s.baseDir, val)
	}
	return val
}
