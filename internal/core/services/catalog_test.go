package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/blcat/internal/core/domain"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *memory.CatalogStore) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewCatalogStore()

	for _, rec := range []domain.Record{
		&domain.Category{ID: 5, Name: "Brick"},
		&domain.Category{ID: 186, Name: "Castle"},
		&domain.Category{ID: 300, Name: "Unused"},
		&domain.Part{ID: "3001", Name: "Brick 2 x 4", CategoryID: 5, CategoryName: "Brick"},
		&domain.Set{ID: "6080-1", Name: "King's Castle", CategoryID: 186, CategoryName: "Castle"},
		&domain.Color{ID: 0, Name: "(Not Applicable)", RGB: "#000000"},
		&domain.Color{ID: 1, Name: "White", RGB: "#FFFFFF"},
	} {
		require.NoError(t, store.Insert(ctx, rec))
	}
	require.NoError(t, store.RebuildSearchIndex(ctx, domain.KindPart))
	require.NoError(t, store.RebuildSearchIndex(ctx, domain.KindSet))

	return NewCatalogService(store), store
}

func TestCatalogService_Search(t *testing.T) {
	ctx := context.Background()
	svc, store := newCatalogFixture(t)

	parts, err := svc.SearchParts(ctx, "  brick  ", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "3001", parts[0].ID)

	sets, err := svc.SearchSets(ctx, "castle", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, sets, 1)

	t.Run("index unavailable", func(t *testing.T) {
		require.NoError(t, store.DropSearchIndex(ctx, domain.KindPart))
		_, err := svc.SearchParts(ctx, "brick", domain.SearchOptions{})
		assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	})
}

func TestCatalogService_Lookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t)

	part, err := svc.GetPart(ctx, " 3001 ")
	require.NoError(t, err)
	assert.Equal(t, "Brick 2 x 4", part.Name)

	_, err = svc.GetPart(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.GetPart(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sets, err := svc.SetsByPrefix(ctx, "6080")
	require.NoError(t, err)
	assert.Len(t, sets, 1)

	_, err = svc.SetsByPrefix(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalogService_GetColorFallback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t)

	c, err := svc.GetColor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "White", c.Name)

	c, err = svc.GetColor(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, domain.NoColor, c.ID)

	t.Run("no fallback colour stored", func(t *testing.T) {
		svc := NewCatalogService(memory.NewCatalogStore())
		_, err := svc.GetColor(ctx, 12345)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCatalogService_Categories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t)

	all, err := svc.Categories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	used, err := svc.Categories(ctx, domain.KindPart)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 5, Name: "Brick"}}, used)

	used, err = svc.Categories(ctx, domain.KindSet)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 186, Name: "Castle"}}, used)
}

func TestCatalogService_RecentAndCounts(t *testing.T) {
	ctx := context.Background()
	svc, store := newCatalogFixture(t)
	require.NoError(t, store.Insert(ctx, &domain.Part{ID: "old", CreatedAt: time.Now().Add(-24 * time.Hour)}))

	recent, err := svc.RecentParts(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "3001", recent[0].ID)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Kind]int{
		domain.KindCategory: 3,
		domain.KindColor:    2,
		domain.KindPart:     2,
		domain.KindSet:      1,
	}, counts)

	colors, err := svc.ListColors(ctx)
	require.NoError(t, err)
	assert.Len(t, colors, 2)
}

// failingReader fails every Count call.
type failingReader struct {
	*memory.CatalogStore
}

func (failingReader) Count(context.Context, domain.Kind) (int, error) {
	return 0, errors.New("connection lost")
}

func TestCatalogService_CountsError(t *testing.T) {
	svc := NewCatalogService(failingReader{memory.NewCatalogStore()})
	_, err := svc.Counts(context.Background())
	assert.ErrorContains(t, err, "connection lost")
}
