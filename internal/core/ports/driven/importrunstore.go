package driven

import (
	"context"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// ImportRunStore persists import run history.
type ImportRunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.ImportRun) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.ImportRun, error)

	// List returns the most recent runs first. A limit of zero returns all runs.
	List(ctx context.Context, limit int) ([]domain.ImportRun, error)
}
