package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

func TestDefaultTheme_EveryKindHasABar(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[Gradient]domain.Kind)
	for _, kind := range domain.Kinds() {
		g, ok := theme.Bars[kind]
		require.True(t, ok, "no bar for %s", kind)
		assert.NotEmpty(t, g.From)
		assert.NotEmpty(t, g.To)

		prev, dup := seen[g]
		assert.False(t, dup, "%s shares its bar with %s", kind, prev)
		seen[g] = kind
	}
}

func TestTheme_BarFor(t *testing.T) {
	theme := DefaultTheme()

	assert.Equal(t, theme.Bars[domain.KindSet], theme.BarFor(domain.KindSet))
	assert.Equal(t, theme.Fallback, theme.BarFor("minifigs"))
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()
	assert.Same(t, theme, NewStyles(theme).Theme())

	s := NewStyles(nil)
	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme().Bad, s.Theme().Bad)
}

func TestStyles_Render(t *testing.T) {
	s := NewStyles(nil)

	assert.Contains(t, s.KindHeading(domain.KindPart, "Importing parts"), "Importing parts")
	assert.Contains(t, s.Bad.Render("boom"), "boom")
	assert.Contains(t, s.Hint.Render("q cancel"), "q cancel")
}
