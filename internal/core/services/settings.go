package services

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: key names, not credentials.
const (
	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
	keyPostgresDSN    = "storage.postgres_dsn"
	keyWatchDir       = "import.watch_dir"
	keyLogFile        = "log.file"
	keyLogVerbose     = "log.verbose"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		Storage: domain.StorageSettings{
			Backend:     s.getBackend(defaults.Storage.Backend),
			DataDir:     s.getString(keyStorageDataDir, defaults.Storage.DataDir),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
		},
		Import: domain.ImportSettings{
			WatchDir: s.getString(keyWatchDir, defaults.Import.WatchDir),
		},
		Log: domain.LogSettings{
			File:    s.configStore.GetString(keyLogFile),
			Verbose: s.configStore.GetBool(keyLogVerbose),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyStorageBackend, settings.Storage.Backend.String()},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyPostgresDSN, settings.Storage.PostgresDSN},
		{keyWatchDir, settings.Import.WatchDir},
		{keyLogFile, settings.Log.File},
		{keyLogVerbose, settings.Log.Verbose},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetBackend updates the storage backend.
func (s *SettingsService) SetBackend(backend domain.StorageBackend, dsn string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, backend)
	}
	if backend.RequiresDSN() && dsn == "" {
		return fmt.Errorf("%w: %s backend requires a DSN", domain.ErrInvalidInput, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Storage.Backend = backend
	if dsn != "" {
		settings.Storage.PostgresDSN = dsn
	}
	return s.Save(settings)
}

// Validate checks if current settings can open a store.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if raw := s.configStore.GetString(keyStorageBackend); raw != "" && !domain.StorageBackend(raw).IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q in %s", domain.ErrInvalidInput, raw, s.configStore.Path())
	}
	if settings.Storage.Backend.RequiresDSN() && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: %s is required for the %s backend",
			domain.ErrInvalidInput, keyPostgresDSN, settings.Storage.Backend)
	}
	return nil
}

// GetDefaults returns defaults rooted next to the config file.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings(filepath.Dir(s.configStore.Path()))
}

func (s *SettingsService) getBackend(def domain.StorageBackend) domain.StorageBackend {
	b := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !b.IsValid() {
		return def
	}
	return b
}

func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}
