package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

func seedCatalog(t *testing.T) *CatalogStore {
	t.Helper()
	ctx := context.Background()
	s := NewCatalogStore()

	for _, rec := range []domain.Record{
		&domain.Category{ID: 5, Name: "Brick"},
		&domain.Category{ID: 26, Name: "Plate"},
		&domain.Category{ID: 186, Name: "Castle"},
		&domain.Part{ID: "3001", Name: "Brick 2 x 4", CategoryID: 5, CategoryName: "Brick"},
		&domain.Part{ID: "3003", Name: "Brick 2 x 2", CategoryID: 5, CategoryName: "Brick"},
		&domain.Part{ID: "3020", Name: "Plate 2 x 4", CategoryID: 26, CategoryName: "Plate"},
		&domain.Set{ID: "6080-1", Name: "King's Castle", CategoryID: 186, CategoryName: "Castle", Year: 1984},
		&domain.Set{ID: "6080-2", Name: "King's Castle Reissue", CategoryID: 186, CategoryName: "Castle"},
		&domain.Color{ID: 0, Name: "(Not Applicable)", RGB: "#000000"},
		&domain.Color{ID: 3, Name: "Yellow", RGB: "#F2CD37"},
	} {
		require.NoError(t, s.Insert(ctx, rec))
	}
	require.NoError(t, s.RebuildSearchIndex(ctx, domain.KindPart))
	require.NoError(t, s.RebuildSearchIndex(ctx, domain.KindSet))
	return s
}

func TestCatalogStore_InsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore()

	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "3001", Name: "Brick", Stale: true}))

	rec, err := s.LookupByKey(ctx, domain.KindPart, "3001")
	require.NoError(t, err)
	part := rec.(*domain.Part)
	assert.Equal(t, "Brick", part.Name)
	assert.False(t, part.Stale)
	assert.False(t, part.CreatedAt.IsZero())

	t.Run("lookup returns a copy", func(t *testing.T) {
		part.Name = "mutated"
		again, err := s.LookupByKey(ctx, domain.KindPart, "3001")
		require.NoError(t, err)
		assert.Equal(t, "Brick", again.(*domain.Part).Name)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := s.LookupByKey(ctx, domain.KindPart, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate insert", func(t *testing.T) {
		err := s.Insert(ctx, &domain.Part{ID: "3001"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.LookupByKey(ctx, domain.Kind("x"), "1")
		assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
	})
}

func TestCatalogStore_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore()
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "3001", Name: "old", CreatedAt: created}))
	require.NoError(t, s.Update(ctx, &domain.Part{ID: "3001", Name: "new", Stale: true}))

	rec, err := s.LookupByKey(ctx, domain.KindPart, "3001")
	require.NoError(t, err)
	part := rec.(*domain.Part)
	assert.Equal(t, "new", part.Name)
	assert.Equal(t, created, part.CreatedAt)
	assert.False(t, part.Stale)
	assert.True(t, part.UpdatedAt.After(created))

	err = s.Update(ctx, &domain.Part{ID: "9999"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogStore_ResolveCategoryName(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	name, err := s.ResolveCategoryName(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Brick", name)

	name, err = s.ResolveCategoryName(ctx, 424242)
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestCatalogStore_TransactionCommit(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, domain.KindPart)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAllStale(ctx))
	require.NoError(t, tx.Update(ctx, &domain.Part{ID: "3001", Name: "Brick 2 x 4 v2"}))
	require.NoError(t, tx.Insert(ctx, &domain.Part{ID: "4000", Name: "New"}))

	// Uncommitted writes are invisible outside the transaction.
	_, err = s.LookupByKey(ctx, domain.KindPart, "4000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	inTx, err := tx.LookupByKey(ctx, domain.KindPart, "4000")
	require.NoError(t, err)
	assert.Equal(t, "New", inTx.(*domain.Part).Name)

	require.NoError(t, tx.Commit())

	p, err := s.GetPart(ctx, "3001")
	require.NoError(t, err)
	assert.False(t, p.Stale)
	assert.Equal(t, "Brick 2 x 4 v2", p.Name)

	p, err = s.GetPart(ctx, "3003")
	require.NoError(t, err)
	assert.True(t, p.Stale)

	n, err := s.Count(ctx, domain.KindPart)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
	assert.Error(t, tx.Commit())
}

func TestCatalogStore_TransactionRollback(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, domain.KindPart)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAllStale(ctx))
	require.NoError(t, tx.Insert(ctx, &domain.Part{ID: "4000"}))
	require.NoError(t, tx.Rollback())

	n, err := s.Count(ctx, domain.KindPart)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p, err := s.GetPart(ctx, "3001")
	require.NoError(t, err)
	assert.False(t, p.Stale)

	// A new transaction can be opened once the previous one has finished.
	tx2, err := s.Begin(ctx, domain.KindPart)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback())
}

func TestCatalogStore_OneTransactionPerTable(t *testing.T) {
	s := NewCatalogStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx, domain.KindPart)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	_, err = s.Begin(ctx, domain.KindPart)
	assert.Error(t, err)

	other, err := s.Begin(ctx, domain.KindSet)
	require.NoError(t, err)
	require.NoError(t, other.Rollback())

	err = tx.Insert(ctx, &domain.Set{ID: "1-1"})
	assert.Error(t, err, "transaction is scoped to one table")
}

func TestCatalogStore_DropAndRecreate(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	require.NoError(t, s.DropAndRecreate(ctx, domain.KindSet))

	n, err := s.Count(ctx, domain.KindSet)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, s.HasSearchIndex(domain.KindSet))

	_, err = s.SearchSets(ctx, "castle", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	require.NoError(t, s.RebuildSearchIndex(ctx, domain.KindSet))
	sets, err := s.SearchSets(ctx, "castle", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestCatalogStore_SearchIndexIsSnapshot(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "3004", Name: "Brick 1 x 2"}))

	parts, err := s.SearchParts(ctx, "brick", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, parts, 2, "index reflects the last rebuild")

	require.NoError(t, s.RebuildSearchIndex(ctx, domain.KindPart))
	parts, err = s.SearchParts(ctx, "brick", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, parts, 3)
}

func TestCatalogStore_SearchParts(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	t.Run("all terms must match", func(t *testing.T) {
		parts, err := s.SearchParts(ctx, "brick 2 x 4", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "3001", parts[0].ID)
	})

	t.Run("matches category name", func(t *testing.T) {
		parts, err := s.SearchParts(ctx, "plate", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "3020", parts[0].ID)
	})

	t.Run("category filter and limit", func(t *testing.T) {
		parts, err := s.SearchParts(ctx, "2", domain.SearchOptions{CategoryID: 5, Limit: 1})
		require.NoError(t, err)
		require.Len(t, parts, 1)
		assert.Equal(t, "3001", parts[0].ID)
	})

	t.Run("stale parts hidden by default", func(t *testing.T) {
		tx, err := s.Begin(ctx, domain.KindPart)
		require.NoError(t, err)
		require.NoError(t, tx.MarkAllStale(ctx))
		require.NoError(t, tx.Commit())

		parts, err := s.SearchParts(ctx, "brick", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, parts)

		parts, err = s.SearchParts(ctx, "brick", domain.SearchOptions{IncludeStale: true})
		require.NoError(t, err)
		assert.Len(t, parts, 2)
	})
}

func TestCatalogStore_Readers(t *testing.T) {
	s := seedCatalog(t)
	ctx := context.Background()

	t.Run("sets by prefix", func(t *testing.T) {
		sets, err := s.SetsByPrefix(ctx, "6080")
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Equal(t, "6080-1", sets[0].ID)
	})

	t.Run("colors", func(t *testing.T) {
		c, err := s.GetColor(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Yellow", c.Name)

		_, err = s.GetColor(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		colors, err := s.ListColors(ctx)
		require.NoError(t, err)
		require.Len(t, colors, 2)
		assert.Equal(t, 0, colors[0].ID)
	})

	t.Run("categories ordered by name", func(t *testing.T) {
		cats, err := s.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 3)
		assert.Equal(t, []string{"Brick", "Castle", "Plate"},
			[]string{cats[0].Name, cats[1].Name, cats[2].Name})
	})

	t.Run("categories used by", func(t *testing.T) {
		cats, err := s.CategoriesUsedBy(ctx, domain.KindSet)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "Castle", cats[0].Name)

		cats, err = s.CategoriesUsedBy(ctx, domain.KindPart)
		require.NoError(t, err)
		assert.Len(t, cats, 2)

		_, err = s.CategoriesUsedBy(ctx, domain.KindColor)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("part not found", func(t *testing.T) {
		_, err := s.GetPart(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCatalogStore_RecentParts(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore()
	newest := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "old", CreatedAt: newest.Add(-time.Hour)}))
	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "edge", CreatedAt: newest.Add(-domain.RecentWindow)}))
	require.NoError(t, s.Insert(ctx, &domain.Part{ID: "new", CreatedAt: newest}))

	parts, err := s.RecentParts(ctx, domain.RecentWindow)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "edge", parts[0].ID)
	assert.Equal(t, "new", parts[1].ID)
}
