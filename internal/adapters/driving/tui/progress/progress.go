// Package progress renders a live progress bar for a synchronisation pass.
package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/blcat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/blcat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
)

const (
	padding  = 2
	maxWidth = 60
)

// PercentMsg carries a new completion percentage.
type PercentMsg int

// DoneMsg carries the outcome of the pass.
type DoneMsg struct {
	Result *domain.ImportResult
	Err    error
}

// Model is the bubbletea model for one pass.
type Model struct {
	kind   domain.Kind
	source string
	cancel context.CancelFunc

	bar    progress.Model
	styles *styles.Styles
	keys   *keymap.KeyMap

	percent    int
	cancelling bool
	hidden     bool
	done       bool
	result     *domain.ImportResult
	err        error
}

// Ensure Model implements tea.Model.
var _ tea.Model = Model{}

// New creates a progress model. cancel is called when the user cancels.
func New(kind domain.Kind, source string, cancel context.CancelFunc) Model {
	s := styles.NewStyles(nil)
	g := s.Theme().BarFor(kind)
	bar := progress.New(
		progress.WithGradient(string(g.From), string(g.To)),
		progress.WithWidth(maxWidth),
	)

	return Model{
		kind:   kind,
		source: source,
		cancel: cancel,
		bar:    bar,
		styles: s,
		keys:   keymap.DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-padding*2, maxWidth)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
		case key.Matches(msg, m.keys.Hide):
			m.hidden = true
			return m, tea.Quit
		}

	case PercentMsg:
		if int(msg) > m.percent {
			m.percent = min(int(msg), 100)
		}

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.hidden {
		return ""
	}

	pad := strings.Repeat(" ", padding)
	var b strings.Builder

	b.WriteString("\n" + pad + m.styles.KindHeading(m.kind, "Importing "+string(m.kind)))
	b.WriteString(" " + m.styles.Dim.Render(m.source) + "\n\n")
	b.WriteString(pad + m.bar.ViewAs(float64(m.percent)/100) + "\n\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(pad + m.styles.Bad.Render("Failed: "+m.err.Error()) + "\n")
	case m.done && m.result != nil && m.result.Aborted:
		b.WriteString(pad + m.styles.Caution.Render("Feed was empty, nothing changed") + "\n")
	case m.done && m.result != nil:
		b.WriteString(pad + m.styles.Good.Render(fmt.Sprintf("%d records written", m.result.Written)) + "\n")
	case m.cancelling:
		b.WriteString(pad + m.styles.Caution.Render("Cancelling...") + "\n")
	default:
		b.WriteString(pad + m.styles.Hint.Render(m.help()) + "\n")
	}

	return b.String()
}

func (m Model) help() string {
	parts := make([]string, 0, 2)
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Percent returns the last reported percentage.
func (m Model) Percent() int { return m.percent }

// Cancelling reports whether the user asked to cancel.
func (m Model) Cancelling() bool { return m.cancelling }

// Run shows the bar until task ends and returns its outcome. If the user
// hides the bar, Run keeps waiting for the pass without rendering.
func Run(kind domain.Kind, source string, task driving.ImportTask, cancel context.CancelFunc,
	opts ...tea.ProgramOption) (*domain.ImportResult, error) {
	p := tea.NewProgram(New(kind, source, cancel), opts...)

	go func() {
		for pct := range task.Progress() {
			p.Send(PercentMsg(pct))
		}
		result, err := task.Wait()
		p.Send(DoneMsg{Result: result, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		_, _ = task.Wait()
		return nil, fmt.Errorf("progress view: %w", err)
	}
	return task.Wait()
}
