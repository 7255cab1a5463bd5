// Package main is the blcat command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/blcat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/blcat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/blcat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/blcat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/blcat/internal/adapters/driving/cli"
	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
	"github.com/custodia-labs/blcat/internal/core/services"
	"github.com/custodia-labs/blcat/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetSettingsService(services.NewSettingsService(openConfigStore()))
	cli.SetServiceFactory(openServices)

	// cobra has already printed the error.
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openConfigStore opens ~/.blcat/config.toml, falling back to an unsaved
// in-memory config when the directory cannot be used.
func openConfigStore() driven.ConfigStore {
	store, err := file.NewConfigStore("")
	if err == nil {
		return store
	}

	fmt.Fprintf(os.Stderr, "Warning: %v; settings will not be saved\n", err)
	dir, dirErr := file.DefaultDir()
	if dirErr != nil {
		dir = ".blcat"
	}
	return memory.NewConfigStore(dir)
}

// openServices opens the configured backend and wires the services on it.
func openServices(ctx context.Context, settings domain.AppSettings) (*cli.Services, error) {
	var (
		catalog driven.CatalogStore
		reader  driven.CatalogReader
		runs    driven.ImportRunStore
		closeFn func() error
	)

	switch settings.Storage.Backend {
	case domain.BackendSQLite:
		store, err := sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Opened %s", store.Path())
		catalog, reader, runs, closeFn = store.CatalogStore(), store.CatalogReader(), store.ImportRunStore(), store.Close
	case domain.BackendPostgres:
		store, err := postgres.NewStore(ctx, settings.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		catalog, reader, runs, closeFn = store.CatalogStore(), store.CatalogReader(), store.ImportRunStore(), store.Close
	case domain.BackendMemory:
		store := memory.NewCatalogStore()
		catalog, reader, runs, closeFn = store, store, memory.NewImportRunStore(), store.Close
	default:
		return nil, fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}

	return &cli.Services{
		Sync:    services.NewCatalogSynchronizer(catalog, runs),
		Catalog: services.NewCatalogService(reader),
		Close:   closeFn,
	}, nil
}
