package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

func TestPartCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	out, err := execute(t, "part", "3001")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:     Brick 2 x 4")
	assert.Contains(t, out, "Category: Brick (5)")
	assert.Contains(t, out, "Weight:   2.32g")
	assert.Contains(t, out, "Size:     2 x 4 x 1")
	assert.NotContains(t, out, "stale")

	out, err = execute(t, "part", "3020")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   stale")

	_, err = execute(t, "part", "9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetsCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	out, err := execute(t, "sets", "6080")
	require.NoError(t, err)
	assert.Contains(t, out, "6080-1")
	assert.Contains(t, out, "60800-1")

	out, err = execute(t, "sets", "999")
	require.NoError(t, err)
	assert.Contains(t, out, "No sets found.")
}

func TestColorCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	tests := []struct {
		name     string
		args     []string
		contains []string
		wantErr  error
	}{
		{"known", []string{"color", "1"}, []string{"Colour: 1 White", "RGB:    #FFFFFF", "Years:  1950-2024"}, nil},
		{"alias", []string{"colour", "1"}, []string{"White"}, nil},
		{"fallback", []string{"color", "77"}, []string{"Colour 77 not found, showing 0.", "(Not Applicable)"}, nil},
		{"not a number", []string{"color", "red"}, nil, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestCategoriesCmd(t *testing.T) {
	env := setupTestServices(t)
	seedCatalog(t, env)

	out, err := execute(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Brick")
	assert.Contains(t, out, "Castle")
	assert.Contains(t, out, "Plate")

	out, err = execute(t, "categories", "--used-by", "sets")
	require.NoError(t, err)
	assert.Contains(t, out, "Castle")
	assert.NotContains(t, out, "Brick")

	_, err = execute(t, "categories", "--used-by", "wheels")
	assert.ErrorIs(t, err, domain.ErrUnsupportedKind)
}

func TestRecentCmd(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "No parts found.")

	seedCatalog(t, env)
	out, err = execute(t, "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "3001")
	assert.NotContains(t, out, "3020")
}
