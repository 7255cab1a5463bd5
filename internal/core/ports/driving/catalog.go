package driving

import (
	"context"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// CatalogService answers catalog queries for the CLI and MCP adapters.
type CatalogService interface {
	// SearchParts runs a full-text query over parts.
	SearchParts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error)

	// SearchSets runs a full-text query over sets.
	SearchSets(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error)

	// GetPart retrieves a part by id.
	GetPart(ctx context.Context, id string) (*domain.Part, error)

	// SetsByPrefix returns sets whose id starts with prefix.
	SetsByPrefix(ctx context.Context, prefix string) ([]domain.Set, error)

	// GetColor retrieves a colour, falling back to the "not applicable"
	// colour when id is unknown.
	GetColor(ctx context.Context, id int) (*domain.Color, error)

	// ListColors returns all colours.
	ListColors(ctx context.Context) ([]domain.Color, error)

	// Categories returns all categories, or only those used by kind when
	// usedBy is set.
	Categories(ctx context.Context, usedBy domain.Kind) ([]domain.Category, error)

	// RecentParts returns parts added in the latest import.
	RecentParts(ctx context.Context) ([]domain.Part, error)

	// Counts returns the number of rows in every table.
	Counts(ctx context.Context) (map[domain.Kind]int, error)
}
