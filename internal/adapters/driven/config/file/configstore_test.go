package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "anthropic"))
	require.NoError(t, store.Set("retrieval.top_k", 6))
	require.NoError(t, store.Set("ingestion.summarise_texts", true))
	require.NoError(t, store.Set("ingestion.paths", []string{"a", "b"}))

	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, 6, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("ingestion.summarise_texts"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("ingestion.paths"))

	// Missing keys and wrong types return zero values.
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, "", store.GetString("retrieval.top_k"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.False(t, store.GetBool("llm.provider"))
	assert.Nil(t, store.GetStringSlice("llm.provider"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("ingestion.summary_rps", 2.5))
	require.NoError(t, store.Set("retrieval.top_k", 4))

	assert.InDelta(t, 2.5, store.GetFloat("ingestion.summary_rps"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("retrieval.top_k"), 1e-9)
}

func TestConfigStore_PersistsAsTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Set("storage.backend", "postgres"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[retrieval]")
	assert.Contains(t, string(raw), "[storage]")

	// A fresh store reads the nested file back into dotted keys.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.GetInt("retrieval.top_k"))
	assert.Equal(t, "postgres", reloaded.GetString("storage.backend"))
	assert.Equal(t, []string{"retrieval.top_k", "storage.backend"}, reloaded.Keys())
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[embedding]
model = "text-embedding-3-large"

[ingestion]
summary_rps = 2.5
workers = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-large", store.GetString("embedding.model"))
	assert.Equal(t, 3, store.GetInt("ingestion.workers"))
	val, ok := store.Get("ingestion.summary_rps")
	require.True(t, ok)
	assert.InDelta(t, 2.5, val, 1e-9)
}

func TestConfigStore_SetInvalidKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", " ", ".a", "a."} {
		assert.Error(t, store.Set(key, 1), "key %q", key)
	}
}

func TestConfigStore_SetConflictRollsBack(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval", "flat"))
	assert.Error(t, store.Set("retrieval.top_k", 4))

	_, ok := store.Get("retrieval.top_k")
	assert.False(t, ok)
	assert.Equal(t, "flat", store.GetString("retrieval"))
}

func TestNestAndFlatten(t *testing.T) {
	nested, err := nest(map[string]any{"a.b": 1, "a.c": "x", "d": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1, "c": "x"},
		"d": true,
	}, nested)

	flat := make(map[string]any)
	flatten(flat, nested, "")
	assert.Equal(t, map[string]any{"a.b": 1, "a.c": "x", "d": true}, flat)
}
