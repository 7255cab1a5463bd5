package mcp

import (
	"context"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
// It records the last query and options it was given.
type mockCatalogService struct {
	parts      []domain.Part
	sets       []domain.Set
	part       *domain.Part
	color      *domain.Color
	categories []domain.Category
	counts     map[domain.Kind]int
	err        error

	lastQuery  string
	lastOpts   domain.SearchOptions
	lastUsedBy domain.Kind
	lastPrefix string
}

var _ driving.CatalogService = (*mockCatalogService)(nil)

func (m *mockCatalogService) SearchParts(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.parts, m.err
}

func (m *mockCatalogService) SearchSets(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.sets, m.err
}

func (m *mockCatalogService) GetPart(_ context.Context, _ string) (*domain.Part, error) {
	return m.part, m.err
}

func (m *mockCatalogService) SetsByPrefix(_ context.Context, prefix string) ([]domain.Set, error) {
	m.lastPrefix = prefix
	return m.sets, m.err
}

func (m *mockCatalogService) GetColor(_ context.Context, _ int) (*domain.Color, error) {
	return m.color, m.err
}

func (m *mockCatalogService) ListColors(_ context.Context) ([]domain.Color, error) {
	return nil, m.err
}

func (m *mockCatalogService) Categories(_ context.Context, usedBy domain.Kind) ([]domain.Category, error) {
	m.lastUsedBy = usedBy
	return m.categories, m.err
}

func (m *mockCatalogService) RecentParts(_ context.Context) ([]domain.Part, error) {
	return m.parts, m.err
}

func (m *mockCatalogService) Counts(_ context.Context) (map[domain.Kind]int, error) {
	return m.counts, m.err
}

// mockCatalogSync is a mock implementation of driving.CatalogSync that only
// serves import history.
type mockCatalogSync struct {
	runs []domain.ImportRun
	err  error
}

var _ driving.CatalogSync = (*mockCatalogSync)(nil)

func (m *mockCatalogSync) Start(context.Context, domain.Kind, string) (driving.ImportTask, error) {
	return nil, m.err
}

func (m *mockCatalogSync) Import(context.Context, domain.Kind, string, func(int)) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockCatalogSync) Status(kind domain.Kind) driving.SyncStatus {
	return driving.SyncStatus{Kind: kind}
}

func (m *mockCatalogSync) Runs(_ context.Context, _ int) ([]domain.ImportRun, error) {
	return m.runs, m.err
}
