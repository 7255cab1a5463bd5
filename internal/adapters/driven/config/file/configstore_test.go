package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	_, ok := store.Get("storage.backend")
	assert.False(t, ok)
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", ".blcat")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	_, err := NewConfigStore(filepath.Join(blocker, "sub"))
	assert.ErrorContains(t, err, "create config directory")
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[storage\nbackend ="), 0600))

	_, err := NewConfigStore(dir)
	assert.ErrorContains(t, err, "parse")
}

func TestConfigStore_LoadNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[storage]
backend = "postgres"
postgres_dsn = "postgres://localhost/blcat"

[import]
watch_dir = "/srv/drop"

[log]
verbose = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", store.GetString("storage.backend"))
	assert.Equal(t, "postgres://localhost/blcat", store.GetString("storage.postgres_dsn"))
	assert.Equal(t, "/srv/drop", store.GetString("import.watch_dir"))
	assert.True(t, store.GetBool("log.verbose"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.backend", "sqlite"))
	require.NoError(t, store.Set("log.verbose", true))
	require.NoError(t, store.Set("search.limit", 50))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("storage.backend"), "sqlite"},
		{"bool", store.GetBool("log.verbose"), true},
		{"int", store.GetInt("search.limit"), 50},
		{"string wrong type", store.GetString("log.verbose"), ""},
		{"bool wrong type", store.GetBool("storage.backend"), false},
		{"int wrong type", store.GetInt("storage.backend"), 0},
		{"missing string", store.GetString("nope"), ""},
		{"missing int", store.GetInt("nope"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.backend", "memory"))
	require.NoError(t, store.Set("storage.data_dir", "/data"))
	require.NoError(t, store.Set("log.verbose", true))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[storage]")
	assert.Contains(t, string(raw), "[log]")

	// Reopen and read back; TOML integers come back as int64.
	require.NoError(t, store.Set("search.limit", 7))
	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "memory", reopened.GetString("storage.backend"))
	assert.Equal(t, "/data", reopened.GetString("storage.data_dir"))
	assert.True(t, reopened.GetBool("log.verbose"))
	assert.Equal(t, 7, reopened.GetInt("search.limit"))

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadDiscardsUnsavedValues(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("storage.backend", "sqlite"))

	other, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, other.Set("storage.backend", "postgres"))

	require.NoError(t, store.Load())
	assert.Equal(t, "postgres", store.GetString("storage.backend"))
}

func TestConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := store.Get("storage.backend")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("log.verbose", true)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetBool("log.verbose")
		}()
	}
	wg.Wait()

	assert.True(t, store.GetBool("log.verbose"))
}

func TestNestMap(t *testing.T) {
	got := nestMap(map[string]any{
		"storage.backend":  "sqlite",
		"storage.data_dir": "/d",
		"top":              1,
	})

	assert.Equal(t, map[string]any{
		"storage": map[string]any{"backend": "sqlite", "data_dir": "/d"},
		"top":     1,
	}, got)
	assert.Equal(t, map[string]any{"storage.backend": "sqlite", "storage.data_dir": "/d", "top": 1},
		flattenMap(got, ""))
}
