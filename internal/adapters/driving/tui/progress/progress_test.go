package progress

import (
	"bytes"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// fakeTask is a finished pass with buffered progress.
type fakeTask struct {
	progress chan int
	done     chan struct{}
	result   *domain.ImportResult
	err      error
}

func newFakeTask(result *domain.ImportResult, err error, pcts ...int) *fakeTask {
	t := &fakeTask{
		progress: make(chan int, len(pcts)),
		done:     make(chan struct{}),
		result:   result,
		err:      err,
	}
	for _, p := range pcts {
		t.progress <- p
	}
	close(t.progress)
	close(t.done)
	return t
}

func (t *fakeTask) Progress() <-chan int  { return t.progress }
func (t *fakeTask) Done() <-chan struct{} { return t.done }
func (t *fakeTask) Wait() (*domain.ImportResult, error) {
	<-t.done
	return t.result, t.err
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_PercentIsMonotonic(t *testing.T) {
	m := New(domain.KindPart, "parts.xml", nil)

	m, _ = update(t, m, PercentMsg(40))
	m, _ = update(t, m, PercentMsg(20))
	assert.Equal(t, 40, m.Percent())

	m, _ = update(t, m, PercentMsg(140))
	assert.Equal(t, 100, m.Percent())
}

func TestModel_CancelCallsOnce(t *testing.T) {
	calls := 0
	m := New(domain.KindPart, "parts.xml", func() { calls++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, 1, calls)
	assert.True(t, m.Cancelling())
	assert.Contains(t, m.View(), "Cancelling")
}

func TestModel_Hide(t *testing.T) {
	m := New(domain.KindSet, "sets.xml", nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowResize(t *testing.T) {
	m := New(domain.KindSet, "sets.xml", nil)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Equal(t, 26, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 10})
	assert.Equal(t, maxWidth, m.bar.Width)
}

func TestModel_DoneView(t *testing.T) {
	tests := []struct {
		name string
		msg  DoneMsg
		want string
	}{
		{"written", DoneMsg{Result: &domain.ImportResult{Written: 12}}, "12 records written"},
		{"aborted", DoneMsg{Result: &domain.ImportResult{Aborted: true}}, "Feed was empty"},
		{"failed", DoneMsg{Err: errors.New("disk full")}, "Failed: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(domain.KindColor, "colors.xml", nil)
			m, cmd := update(t, m, tt.msg)

			require.NotNil(t, cmd)
			assert.Contains(t, m.View(), tt.want)
			assert.Contains(t, m.View(), "Importing colors")
		})
	}
}

func TestModel_HelpFooter(t *testing.T) {
	m := New(domain.KindPart, "parts.xml", nil)
	assert.Contains(t, m.View(), "q cancel")
}

func TestRun(t *testing.T) {
	want := &domain.ImportResult{Kind: domain.KindPart, Written: 3}
	task := newFakeTask(want, nil, 33, 66, 100)

	var out bytes.Buffer
	done := make(chan struct{})
	var got *domain.ImportResult
	var err error
	go func() {
		defer close(done)
		got, err = Run(domain.KindPart, "parts.xml", task, func() {},
			tea.WithInput(nil), tea.WithOutput(&out))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_PassError(t *testing.T) {
	task := newFakeTask(nil, domain.ErrStream)

	var out bytes.Buffer
	_, err := Run(domain.KindSet, "sets.xml", task, func() {},
		tea.WithInput(nil), tea.WithOutput(&out))
	assert.ErrorIs(t, err, domain.ErrStream)
}
