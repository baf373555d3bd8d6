package driving

import "github.com/custodia-labs/guidekit/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves the current settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set stores one raw configuration value by key.
	Set(key, value string) error

	// Keys lists the recognised configuration keys.
	Keys() []string
}
