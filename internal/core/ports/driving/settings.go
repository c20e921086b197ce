package driving

import "github.com/custodia-labs/docchat/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns settings merged from defaults, the config file and the environment.
	Get() (*domain.AppSettings, error)

	// Set stores one dotted config key (e.g. "retrieval.top_k").
	Set(key string, value any) error

	// Validate checks settings before services are built from them.
	Validate(settings *domain.AppSettings) error
}
