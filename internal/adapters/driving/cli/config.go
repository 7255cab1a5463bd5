package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

var configDSN string

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change settings",
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show effective settings",
	Long:        `Shows settings after applying flags and environment over the config file.`,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigShow,
}

var configBackendCmd = &cobra.Command{
	Use:   "backend <sqlite|postgres|memory>",
	Short: "Set the default storage backend",
	Long: `Sets the storage backend saved in the config file.

  sqlite   - local database under storage.data_dir (default)
  postgres - shared server, requires --dsn
  memory   - nothing persisted, for dry runs`,
	Annotations: map[string]string{skipServices: "true"},
	Args:        cobra.ExactArgs(1),
	RunE:        runConfigBackend,
}

func init() {
	configBackendCmd.Flags().StringVar(&configDSN, "dsn", "", "PostgreSQL connection string to save")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configBackendCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	cmd.Println("[Storage]")
	cmd.Printf("  Backend:  %s\n", settings.Storage.Backend.Description())
	switch settings.Storage.Backend {
	case domain.BackendSQLite:
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	case domain.BackendPostgres:
		cmd.Printf("  DSN:      %s\n", maskDSN(settings.Storage.PostgresDSN))
	}
	cmd.Println()
	cmd.Println("[Import]")
	cmd.Printf("  Watch dir: %s\n", settings.Import.WatchDir)
	cmd.Println()
	cmd.Println("[Log]")
	logFile := settings.Log.File
	if logFile == "" {
		logFile = "(stderr)"
	}
	cmd.Printf("  File:    %s\n", logFile)
	cmd.Printf("  Verbose: %t\n", settings.Log.Verbose)
	return nil
}

func runConfigBackend(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.StorageBackend(args[0])
	if err := settingsService.SetBackend(backend, configDSN); err != nil {
		return fmt.Errorf("set backend: %w", err)
	}
	cmd.Printf("Storage backend set to %s.\n", backend)
	return nil
}

// maskDSN hides the password in a URL or keyword/value connection string.
func maskDSN(dsn string) string {
	if dsn == "" {
		return "(not set)"
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=xxxxx"
		}
	}
	return strings.Join(fields, " ")
}
