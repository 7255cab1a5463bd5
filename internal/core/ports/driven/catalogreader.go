package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// CatalogReader answers queries against the synchronised catalog.
type CatalogReader interface {
	// GetPart retrieves a part by its natural key.
	GetPart(ctx context.Context, id string) (*domain.Part, error)

	// SearchParts runs a full-text query over part id, name and category name.
	SearchParts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error)

	// SearchSets runs a full-text query over set name and category name.
	SearchSets(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error)

	// SetsByPrefix returns sets whose id starts with prefix, ordered by id.
	SetsByPrefix(ctx context.Context, prefix string) ([]domain.Set, error)

	// GetColor retrieves a colour by id.
	GetColor(ctx context.Context, id int) (*domain.Color, error)

	// ListColors returns all colours ordered by id.
	ListColors(ctx context.Context) ([]domain.Color, error)

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// CategoriesUsedBy returns the categories referenced by at least one
	// record of kind (parts or sets), ordered by name.
	CategoriesUsedBy(ctx context.Context, kind domain.Kind) ([]domain.Category, error)

	// RecentParts returns parts created within window of the newest part.
	RecentParts(ctx context.Context, window time.Duration) ([]domain.Part, error)

	// Count returns the number of rows in a table.
	Count(ctx context.Context, kind domain.Kind) (int, error)
}
