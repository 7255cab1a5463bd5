package driving

import (
	"context"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// CatalogSync runs synchronisation passes from vendor XML dumps.
type CatalogSync interface {
	// Start launches a pass for one table on its own goroutine.
	// Returns domain.ErrSyncInProgress when a pass for the same table is running.
	Start(ctx context.Context, kind domain.Kind, path string) (ImportTask, error)

	// Import runs a pass to completion, calling progress with each new percentage.
	// progress may be nil.
	Import(ctx context.Context, kind domain.Kind, path string, progress func(int)) (*domain.ImportResult, error)

	// Status returns the state of the pass for a table.
	Status(kind domain.Kind) SyncStatus

	// Runs returns import history, newest first.
	Runs(ctx context.Context, limit int) ([]domain.ImportRun, error)
}

// ImportTask is a running synchronisation pass.
type ImportTask interface {
	// Progress delivers monotonically increasing percentages in 0..100.
	// The channel is closed when the pass ends.
	Progress() <-chan int

	// Done is closed when the pass ends.
	Done() <-chan struct{}

	// Wait blocks until the pass ends and returns its outcome.
	Wait() (*domain.ImportResult, error)
}

// SyncStatus represents the current state of a pass.
type SyncStatus struct {
	Kind domain.Kind

	// Running indicates if a pass is currently in progress.
	Running bool

	// Expected is the pre-scanned item count.
	Expected int

	// Processed is the count of items consumed so far.
	Processed int

	// Written is the count of records written so far.
	Written int
}
