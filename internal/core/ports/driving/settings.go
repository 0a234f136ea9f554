package driving

import "github.com/custodia-labs/citeqa/internal/core/domain"

// SettingsService resolves application settings from the config file,
// the environment and built-in defaults.
type SettingsService interface {
	// Get resolves the current settings.
	// Environment overrides take precedence over the config file.
	Get() (*domain.Settings, error)

	// Entries lists every known key with its resolved value and source.
	Entries() ([]domain.SettingEntry, error)

	// Set validates and persists a single key. Unknown keys and values
	// of the wrong type return ErrValidation.
	Set(key, value string) error

	// SetAPIKey stores the API key for a provider on both the embedding
	// and LLM settings that use that provider.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// ConfigPath returns the path of the backing config file.
	ConfigPath() string
}
