package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

type importCall struct {
	kind domain.Kind
	path string
}

// fakeImporter records calls; the first busy calls per kind report
// ErrSyncInProgress.
type fakeImporter struct {
	mu    sync.Mutex
	calls []importCall
	busy  map[domain.Kind]int
}

func (f *fakeImporter) Import(_ context.Context, kind domain.Kind, path string, _ func(int)) (*domain.ImportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, importCall{kind, path})
	if f.busy[kind] > 0 {
		f.busy[kind]--
		return nil, domain.ErrSyncInProgress
	}
	return &domain.ImportResult{Kind: kind, Written: 1}, nil
}

func (f *fakeImporter) Calls() []importCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]importCall(nil), f.calls...)
}

// startWatcher runs a watcher on a temp dir and returns the dir, the
// collected events and a stop func.
func startWatcher(t *testing.T, imp Importer) (string, func() []Event, func()) {
	t.Helper()
	dir := t.TempDir()

	var mu sync.Mutex
	var events []Event
	w := New(dir, imp,
		WithDebounce(50*time.Millisecond),
		WithEventHandler(func(e Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give fsnotify a moment to register the directory.
	time.Sleep(50 * time.Millisecond)

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
	collected := func() []Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]Event(nil), events...)
	}
	return dir, collected, stop
}

func TestKindForFile(t *testing.T) {
	tests := []struct {
		path string
		want domain.Kind
		ok   bool
	}{
		{"/drop/parts.xml", domain.KindPart, true},
		{"Sets.XML", domain.KindSet, true},
		{"categories.xml", domain.KindCategory, true},
		{"colors.xml", domain.KindColor, true},
		{"parts.xml.tmp", "", false},
		{"minifigs.xml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := KindForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	imp := &fakeImporter{}
	dir, events, stop := startWatcher(t, imp)
	defer stop()

	path := filepath.Join(dir, "parts.xml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("<CATALOG/>"), 0600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	require.Eventually(t, func() bool { return len(events()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	calls := imp.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.KindPart, calls[0].kind)
	assert.Equal(t, path, calls[0].path)

	got := events()[0]
	assert.NoError(t, got.Err)
	assert.Equal(t, 1, got.Result.Written)
}

func TestWatcher_KindsAreIndependent(t *testing.T) {
	imp := &fakeImporter{}
	dir, events, stop := startWatcher(t, imp)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.xml"), nil, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sets.xml"), nil, 0600))

	require.Eventually(t, func() bool { return len(events()) == 2 }, 2*time.Second, 10*time.Millisecond)

	kinds := map[domain.Kind]bool{}
	for _, c := range imp.Calls() {
		kinds[c.kind] = true
	}
	assert.Equal(t, map[domain.Kind]bool{domain.KindCategory: true, domain.KindSet: true}, kinds)
}

func TestWatcher_RetriesBusyTable(t *testing.T) {
	imp := &fakeImporter{busy: map[domain.Kind]int{domain.KindColor: 2}}
	dir, events, stop := startWatcher(t, imp)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "colors.xml"), nil, 0600))

	require.Eventually(t, func() bool { return len(events()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, imp.Calls(), 3)
	assert.NoError(t, events()[0].Err)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), &fakeImporter{})
	err := w.Run(context.Background())
	assert.ErrorContains(t, err, "watch")
}
