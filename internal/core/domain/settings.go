package domain

import "path/filepath"

// StorageBackend selects the catalog store implementation.
type StorageBackend string

// Available storage backends.
const (
	// BackendSQLite is a local SQLite database with FTS5 search.
	BackendSQLite StorageBackend = "sqlite"

	// BackendPostgres is a PostgreSQL database reached through a DSN.
	BackendPostgres StorageBackend = "postgres"

	// BackendMemory keeps the catalog in process. Nothing is persisted.
	BackendMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case BackendSQLite, BackendPostgres, BackendMemory:
		return true
	default:
		return false
	}
}

// RequiresDSN returns true if the backend needs a connection string.
func (b StorageBackend) RequiresDSN() bool {
	return b == BackendPostgres
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case BackendSQLite:
		return "SQLite (local file, full-text search)"
	case BackendPostgres:
		return "PostgreSQL (shared server)"
	case BackendMemory:
		return "Memory (dry run, not persisted)"
	default:
		return "Unknown"
	}
}

// AllStorageBackends returns every supported backend.
func AllStorageBackends() []StorageBackend {
	return []StorageBackend{BackendSQLite, BackendPostgres, BackendMemory}
}

// StorageSettings configures where the catalog lives.
type StorageSettings struct {
	Backend     StorageBackend
	DataDir     string
	PostgresDSN string
}

// ImportSettings configures unattended imports.
type ImportSettings struct {
	// WatchDir is the drop directory used by `blcat watch` when no
	// directory argument is given.
	WatchDir string
}

// LogSettings configures logging.
type LogSettings struct {
	// File, when set, receives log output instead of stderr.
	File    string
	Verbose bool
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Storage StorageSettings
	Import  ImportSettings
	Log     LogSettings
}

// DefaultAppSettings returns settings rooted at configDir.
func DefaultAppSettings(configDir string) AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend: BackendSQLite,
			DataDir: filepath.Join(configDir, "data"),
		},
		Import: ImportSettings{
			WatchDir: filepath.Join(configDir, "drop"),
		},
	}
}
