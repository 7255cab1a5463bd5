package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// seedCatalog fills the memory store and builds its search indexes.
func seedCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := t.Context()
	now := time.Now()

	for _, rec := range []domain.Record{
		&domain.Category{ID: 5, Name: "Brick"},
		&domain.Category{ID: 11, Name: "Plate"},
		&domain.Category{ID: 186, Name: "Castle"},
		&domain.Part{ID: "3001", Name: "Brick 2 x 4", CategoryID: 5, CategoryName: "Brick",
			Weight: 2.32, DimX: 2, DimY: 4, DimZ: 1, CreatedAt: now},
		&domain.Part{ID: "3020", Name: "Plate 2 x 4", CategoryID: 11, CategoryName: "Plate",
			CreatedAt: now.Add(-48 * time.Hour)},
		&domain.Set{ID: "6080-1", Name: "King's Castle", CategoryID: 186, CategoryName: "Castle", Year: 1984},
		&domain.Set{ID: "60800-1", Name: "Brick Castle", CategoryID: 186, CategoryName: "Castle", Year: 2010},
		&domain.Color{ID: 0, Name: "(Not Applicable)", RGB: "#000000"},
		&domain.Color{ID: 1, Name: "White", RGB: "#FFFFFF", Type: "Solid", YearFrom: 1950, YearTo: 2024},
	} {
		require.NoError(t, env.store.Insert(ctx, rec))
	}

	// Only 3001 survives a replace-all pass, leaving 3020 stale.
	tx, err := env.store.Begin(ctx, domain.KindPart)
	require.NoError(t, err)
	require.NoError(t, tx.MarkAllStale(ctx))
	rec, err := tx.LookupByKey(ctx, domain.KindPart, "3001")
	require.NoError(t, err)
	require.NoError(t, tx.Update(ctx, rec))
	require.NoError(t, tx.Commit())

	require.NoError(t, env.store.RebuildSearchIndex(ctx, domain.KindPart))
	require.NoError(t, env.store.RebuildSearchIndex(ctx, domain.KindSet))
}

func TestSearchCmd_Structure(t *testing.T) {
	assert.Equal(t, "search", searchCmd.Use)

	flag := searchCmd.PersistentFlags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "50", flag.DefValue)

	assert.NotNil(t, searchPartsCmd.Flags().Lookup("include-stale"))
	assert.Nil(t, searchSetsCmd.Flags().Lookup("include-stale"))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "parts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchPartsCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "matches name",
			args:     []string{"search", "parts", "brick"},
			contains: []string{"3001", "Brick 2 x 4", "[Brick]"},
			excludes: []string{"3020"},
		},
		{
			name:     "stale parts hidden by default",
			args:     []string{"search", "parts", "plate"},
			contains: []string{"No parts found."},
		},
		{
			name:     "include stale",
			args:     []string{"search", "parts", "plate", "--include-stale"},
			contains: []string{"3020", "(stale)"},
		},
		{
			name:     "category filter",
			args:     []string{"search", "parts", "2", "x", "4", "--include-stale", "-c", "11"},
			contains: []string{"3020"},
			excludes: []string{"3001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSearchSetsCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	out, err := execute(t, "search", "sets", "castle", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(19")
	assert.Equal(t, 1, countLines(out))

	out, err = execute(t, "search", "sets", "castle", "--json")
	require.NoError(t, err)
	var sets []domain.Set
	require.NoError(t, json.Unmarshal([]byte(out), &sets))
	assert.Len(t, sets, 2)
}

// A replace-all pass drops the parts index until it finishes.
func TestSearchCmd_IndexUnavailable(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)
	require.NoError(t, env.store.DropSearchIndex(t.Context(), domain.KindPart))

	_, err := execute(t, "search", "parts", "brick")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
