package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues_Getters(t *testing.T) {
	v := NewValues(map[string]any{
		"a.string": "v",
		"a.int":    int64(7),
		"a.float":  0.5,
		"a.whole":  3.0,
		"a.bool":   true,
		"a.slice":  []any{"x", 1, "y"},
		"a.num":    "12",
	})

	assert.Equal(t, "v", v.GetString("a.string"))
	assert.Equal(t, 7, v.GetInt("a.int"))
	assert.Equal(t, 3, v.GetInt("a.whole"))
	assert.Equal(t, 0, v.GetInt("a.float"))
	assert.Equal(t, 12, v.GetInt("a.num"))
	assert.InDelta(t, 0.5, v.GetFloat("a.float"), 1e-9)
	assert.InDelta(t, 7.0, v.GetFloat("a.int"), 1e-9)
	assert.True(t, v.GetBool("a.bool"))
	assert.Equal(t, []string{"x", "y"}, v.GetStringSlice("a.slice"))

	assert.Empty(t, v.GetString("missing"))
	assert.Nil(t, v.GetStringSlice("a.string"))
	assert.False(t, v.GetBool("missing"))
}

func TestValues_SetAndKeys(t *testing.T) {
	v := NewValues(nil)

	require.NoError(t, v.Set("storage.backend", "memory"))
	require.NoError(t, v.Set("retrieval.top_k", 9))

	assert.Equal(t, 9, v.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"retrieval.top_k", "storage.backend"}, v.Keys())
}

func TestValues_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"a": "1"}
	v := NewValues(seed)
	seed["a"] = "2"

	assert.Equal(t, "1", v.GetString("a"))
}

func TestValidKey(t *testing.T) {
	for _, key := range []string{"", " a", ".a", "a.", "a..b"} {
		assert.Error(t, ValidKey(key), key)
	}
	assert.NoError(t, ValidKey("llm.model"))
}

func TestValues_UpdateRollsBack(t *testing.T) {
	v := NewValues(map[string]any{"a": "1"})

	err := v.Update(func(data map[string]any) error {
		data["a"] = "2"
		data["b"] = "3"
		return errors.New("disk full")
	})

	require.Error(t, err)
	assert.Equal(t, "1", v.GetString("a"))
	_, ok := v.Get("b")
	assert.False(t, ok)
}
