package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(t *testing.T, s *ConfigStore, key string) any {
	t.Helper()
	v, ok := s.Lookup(key)
	require.True(t, ok, "missing %s", key)
	return v
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, ConfigFile), store.Path())
}

func TestNewConfigStore_BadDirectory(t *testing.T) {
	_, err := NewConfigStore("/invalid\x00path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating config directory")
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("[ocr\nengine = "), 0o600))

	_, err := NewConfigStore(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_ReadsTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[ocr]
engine = "command"
languages = ["eng", "fra"]
min_confidence = 0.5

[ingest]
recursive = true
workers = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "command", lookup(t, store, "ocr.engine"))
	assert.Equal(t, []any{"eng", "fra"}, lookup(t, store, "ocr.languages"))
	assert.InDelta(t, 0.5, lookup(t, store, "ocr.min_confidence"), 1e-9)
	assert.Equal(t, true, lookup(t, store, "ingest.recursive"))
	assert.Equal(t, int64(3), lookup(t, store, "ingest.workers"))

	_, ok := store.Lookup("ocr")
	assert.False(t, ok, "tables are not values")
	_, ok = store.Lookup("ocr.engine.name")
	assert.False(t, ok)
}

func TestConfigStore_UpdateWritesTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Update(map[string]any{
		"ocr.engine":   "vision",
		"search.limit": 25,
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[ocr]")
	assert.Contains(t, text, "[search]")
	assert.NotContains(t, text, "ocr.engine")

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()

	first, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Update(map[string]any{
		"ocr.engine":       "command",
		"ocr.command_args": []string{"--json"},
		"ingest.workers":   4,
	}))

	second, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "command", lookup(t, second, "ocr.engine"))
	assert.Equal(t, []any{"--json"}, lookup(t, second, "ocr.command_args"))
	assert.Equal(t, int64(4), lookup(t, second, "ingest.workers"))
}

func TestConfigStore_NilRemovesAndPrunes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Update(map[string]any{"search.limit": 5, "ocr.engine": "command"}))

	require.NoError(t, store.Update(map[string]any{"search.limit": nil, "watch.rescan": nil}))

	_, ok := store.Lookup("search.limit")
	assert.False(t, ok)
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[search]")
	assert.NotContains(t, string(data), "[watch]")
	assert.Contains(t, string(data), "[ocr]")
}

func TestConfigStore_ConflictLeavesStateUntouched(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Update(map[string]any{"ocr": "scalar"}))

	err = store.Update(map[string]any{"ocr.engine": "vision", "search.limit": 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")

	_, ok := store.Lookup("search.limit")
	assert.False(t, ok, "a failed update writes nothing")

	assert.Error(t, store.Update(map[string]any{"a..b": 1}))
}

func TestConfigStore_Reload(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("[search]\nmode = \"fuzzy\"\n"), 0o600))

	require.NoError(t, store.Reload())

	assert.Equal(t, "fuzzy", lookup(t, store, "search.mode"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.Update(map[string]any{"search.limit": n}))
			_, _ = store.Lookup("search.limit")
		}(i)
	}
	wg.Wait()
	_, ok := store.Lookup("search.limit")
	assert.True(t, ok)
}

func TestAssign(t *testing.T) {
	root := table{}
	require.NoError(t, assign(root, "a.b.c", 1))
	require.NoError(t, assign(root, "a.d", "x"))
	assert.Equal(t, table{"a": table{"b": table{"c": 1}, "d": "x"}}, root)

	require.NoError(t, assign(root, "a.b.c", nil))
	assert.Equal(t, table{"a": table{"d": "x"}}, root)

	assert.Error(t, assign(root, "a", 2), "a is a table")
}
