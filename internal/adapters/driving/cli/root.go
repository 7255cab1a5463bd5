// Package cli implements the blcat command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
	"github.com/custodia-labs/blcat/internal/logger"
)

// Environment variables consulted between flags and the config file.
const (
	EnvDataDir     = "BLCAT_DATA_DIR"
	EnvPostgresDSN = "BLCAT_POSTGRES_DSN"
)

// skipServices marks commands that run without opening a store.
const skipServices = "skip-services"

// version is set at build time with -ldflags.
var version = "dev"

// Services bundles the ports commands use. Close releases the store.
type Services struct {
	Sync    driving.CatalogSync
	Catalog driving.CatalogService
	Close   func() error
}

// ServiceFactory opens a store for the resolved settings and wires services
// on top of it.
type ServiceFactory func(ctx context.Context, settings domain.AppSettings) (*Services, error)

var (
	globalBackend string
	globalDataDir string
	globalDSN     string
	globalVerbose bool
	globalLogFile string
)

var (
	serviceFactory  ServiceFactory
	settingsService driving.SettingsService

	catalogSync    driving.CatalogSync
	catalogService driving.CatalogService

	// closers run after the command, newest first.
	closers []io.Closer

	// fromFactory is set when the services above were opened by
	// serviceFactory and must be dropped on close.
	fromFactory bool
)

var rootCmd = &cobra.Command{
	Use:   "blcat",
	Short: "Local mirror of the parts catalog",
	Long: `blcat imports the vendor's catalog XML dumps (categories, colours,
parts and sets) into a local database and answers queries against it.

Parts keep their history across imports: parts missing from a new dump
are flagged stale rather than deleted. Other tables are replaced
wholesale on every import.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: closeServices,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalBackend, "backend", "", "storage backend: sqlite, postgres or memory")
	pf.StringVar(&globalDataDir, "data-dir", "", "directory holding the SQLite database (env "+EnvDataDir+")")
	pf.StringVar(&globalDSN, "dsn", "", "PostgreSQL connection string (env "+EnvPostgresDSN+")")
	pf.BoolVarP(&globalVerbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&globalLogFile, "log-file", "", "write logs to a rotated file instead of stderr")
}

// SetServiceFactory registers the function that opens the store.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetSettingsService registers the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServices injects ready-made services, bypassing the factory.
func SetServices(s *Services) {
	catalogSync = s.Sync
	catalogService = s.Catalog
}

// Execute runs the root command. The store is closed even when the
// command fails, since cobra skips post-run hooks on error.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeServices(nil, nil))
}

// resolveSettings layers flags over environment over the config file.
func resolveSettings(cmd *cobra.Command) (domain.AppSettings, error) {
	var settings domain.AppSettings
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return settings, fmt.Errorf("load settings: %w", err)
		}
		settings = *s
	} else {
		settings = domain.DefaultAppSettings(".blcat")
	}

	if v := os.Getenv(EnvDataDir); v != "" {
		settings.Storage.DataDir = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		settings.Storage.PostgresDSN = v
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		settings.Storage.Backend = domain.StorageBackend(globalBackend)
	}
	if flags.Changed("data-dir") {
		settings.Storage.DataDir = globalDataDir
	}
	if flags.Changed("dsn") {
		settings.Storage.PostgresDSN = globalDSN
	}
	if flags.Changed("verbose") {
		settings.Log.Verbose = globalVerbose
	}
	if flags.Changed("log-file") {
		settings.Log.File = globalLogFile
	}
	return settings, nil
}

// validateSettings checks that settings can open a store.
func validateSettings(settings domain.AppSettings) error {
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}
	if settings.Storage.Backend.RequiresDSN() && settings.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: the %s backend needs --dsn or %s",
			domain.ErrInvalidInput, settings.Storage.Backend, EnvPostgresDSN)
	}
	return nil
}

func setupServices(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipServices] == "true" {
		return nil
	}

	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	logger.SetVerbose(settings.Log.Verbose)
	if settings.Log.File != "" {
		closers = append(closers, logger.SetLogFile(settings.Log.File))
	}

	// Services injected directly (tests) take precedence.
	if catalogService != nil || serviceFactory == nil {
		return nil
	}

	logger.Debug("Opening %s store", settings.Storage.Backend)
	svc, err := serviceFactory(cmd.Context(), settings)
	if err != nil {
		return fmt.Errorf("open %s store: %w", settings.Storage.Backend, err)
	}
	SetServices(svc)
	fromFactory = true
	if svc.Close != nil {
		closers = append(closers, closerFunc(svc.Close))
	}
	return nil
}

func closeServices(_ *cobra.Command, _ []string) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i].Close())
	}
	closers = nil
	if fromFactory {
		catalogSync, catalogService = nil, nil
		fromFactory = false
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
