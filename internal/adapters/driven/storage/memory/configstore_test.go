package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_UpdateAndLookup(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Update(map[string]any{
		"ocr.engine":     "vision",
		"ingest.workers": int64(4),
	}))

	v, ok := store.Lookup("ocr.engine")
	require.True(t, ok)
	assert.Equal(t, "vision", v)

	_, ok = store.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, store.Writes())
}

func TestConfigStore_NilDeletes(t *testing.T) {
	store := NewConfigStore()
	store.Set("search.limit", 25)

	require.NoError(t, store.Update(map[string]any{"search.limit": nil}))

	_, ok := store.Lookup("search.limit")
	assert.False(t, ok)
	assert.Empty(t, store.Snapshot())
}

func TestConfigStore_SnapshotIsCopy(t *testing.T) {
	store := NewConfigStore()
	store.Set("k", "v")

	snap := store.Snapshot()
	snap["k"] = "changed"

	v, _ := store.Lookup("k")
	assert.Equal(t, "v", v)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", n)
			store.Set(key, n)
			v, ok := store.Lookup(key)
			assert.True(t, ok)
			assert.Equal(t, n, v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, store.Writes())
}
