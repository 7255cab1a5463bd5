package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
	"github.com/custodia-labs/blcat/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService answers catalog queries.
type CatalogService struct {
	reader driven.CatalogReader
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(reader driven.CatalogReader) *CatalogService {
	return &CatalogService{reader: reader}
}

// SearchParts runs a full-text query over parts.
func (s *CatalogService) SearchParts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error) {
	logger.Debug("Searching parts for %q (category=%d, limit=%d, stale=%t)",
		query, opts.CategoryID, opts.EffectiveLimit(), opts.IncludeStale)

	parts, err := s.reader.SearchParts(ctx, strings.TrimSpace(query), opts)
	if err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}
	return parts, nil
}

// SearchSets runs a full-text query over sets.
func (s *CatalogService) SearchSets(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error) {
	logger.Debug("Searching sets for %q (category=%d, limit=%d)", query, opts.CategoryID, opts.EffectiveLimit())

	sets, err := s.reader.SearchSets(ctx, strings.TrimSpace(query), opts)
	if err != nil {
		return nil, fmt.Errorf("search sets: %w", err)
	}
	return sets, nil
}

// GetPart retrieves a part by id.
func (s *CatalogService) GetPart(ctx context.Context, id string) (*domain.Part, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: part id is required", domain.ErrInvalidInput)
	}
	return s.reader.GetPart(ctx, id)
}

// SetsByPrefix returns sets whose id starts with prefix.
func (s *CatalogService) SetsByPrefix(ctx context.Context, prefix string) ([]domain.Set, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: set id prefix is required", domain.ErrInvalidInput)
	}
	return s.reader.SetsByPrefix(ctx, prefix)
}

// GetColor retrieves a colour. Unknown ids resolve to domain.NoColor.
func (s *CatalogService) GetColor(ctx context.Context, id int) (*domain.Color, error) {
	c, err := s.reader.GetColor(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) || id == domain.NoColor {
		return nil, err
	}

	logger.Debug("Colour %d not found, using %d", id, domain.NoColor)
	return s.reader.GetColor(ctx, domain.NoColor)
}

// ListColors returns all colours.
func (s *CatalogService) ListColors(ctx context.Context) ([]domain.Color, error) {
	return s.reader.ListColors(ctx)
}

// Categories returns all categories, or those used by parts or sets.
func (s *CatalogService) Categories(ctx context.Context, usedBy domain.Kind) ([]domain.Category, error) {
	if usedBy == "" {
		return s.reader.ListCategories(ctx)
	}
	return s.reader.CategoriesUsedBy(ctx, usedBy)
}

// RecentParts returns parts added within domain.RecentWindow of the newest part.
func (s *CatalogService) RecentParts(ctx context.Context) ([]domain.Part, error) {
	return s.reader.RecentParts(ctx, domain.RecentWindow)
}

// Counts returns the number of rows in every table.
func (s *CatalogService) Counts(ctx context.Context) (map[domain.Kind]int, error) {
	counts := make(map[domain.Kind]int, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		n, err := s.reader.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}
