package driving

import "github.com/custodia-labs/blcat/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, filling unset keys with defaults.
	Get() (*domain.AppSettings, error)

	// Save persists settings.
	Save(settings *domain.AppSettings) error

	// SetBackend switches the storage backend. A DSN is required for postgres.
	SetBackend(backend domain.StorageBackend, dsn string) error

	// Validate checks that current settings can open a store.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
