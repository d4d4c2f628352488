package driving

import "github.com/policyledger/fedledger/internal/core/domain"

// SettingsService resolves and persists configuration.
type SettingsService interface {
	// Resolve merges defaults, the config file and the environment,
	// then validates the result.
	Resolve() (domain.Settings, error)

	// Set persists a single key to the config file.
	Set(key, value string) error

	// Keys returns the configuration keys understood by Set.
	Keys() []string

	// Path returns the config file path.
	Path() string
}
