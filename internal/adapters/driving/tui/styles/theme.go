// Package styles holds the colours used when rendering import progress.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// Gradient is the start and end colour of a progress bar.
type Gradient struct {
	From lipgloss.Color
	To   lipgloss.Color
}

// Theme is the colour palette. Each catalog table gets its own bar
// gradient so consecutive passes in import-all are easy to tell apart.
type Theme struct {
	Bars map[domain.Kind]Gradient

	// Fallback is used for kinds missing from Bars.
	Fallback Gradient

	Text    lipgloss.Color
	Dim     lipgloss.Color
	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Bars: map[domain.Kind]Gradient{
			domain.KindCategory: {From: "#89B4FA", To: "#74C7EC"},
			domain.KindColor:    {From: "#F5C2E7", To: "#EBA0AC"},
			domain.KindPart:     {From: "#7C3AED", To: "#06B6D4"},
			domain.KindSet:      {From: "#FAB387", To: "#F9E2AF"},
		},
		Fallback: Gradient{From: "#7C3AED", To: "#06B6D4"},
		Text:     "#CDD6F4",
		Dim:      "#6C7086",
		Good:     "#A6E3A1",
		Caution:  "#F9E2AF",
		Bad:      "#F38BA8",
	}
}

// BarFor returns the bar gradient for kind.
func (t *Theme) BarFor(kind domain.Kind) Gradient {
	if g, ok := t.Bars[kind]; ok {
		return g
	}
	return t.Fallback
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	theme *Theme

	Heading lipgloss.Style
	Dim     lipgloss.Style
	Good    lipgloss.Style
	Caution lipgloss.Style
	Bad     lipgloss.Style

	// Hint renders the key help line.
	Hint lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme:   theme,
		Heading: lipgloss.NewStyle().Bold(true).Foreground(theme.Text),
		Dim:     lipgloss.NewStyle().Foreground(theme.Dim),
		Good:    lipgloss.NewStyle().Foreground(theme.Good),
		Caution: lipgloss.NewStyle().Foreground(theme.Caution),
		Bad:     lipgloss.NewStyle().Bold(true).Foreground(theme.Bad),
		Hint:    lipgloss.NewStyle().Foreground(theme.Dim).Italic(true),
	}
}

// KindHeading renders label in the leading colour of kind's bar.
func (s *Styles) KindHeading(kind domain.Kind, label string) string {
	return s.Heading.Foreground(s.theme.BarFor(kind).From).Render(label)
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
