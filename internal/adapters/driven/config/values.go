// Package config holds configuration as flat dotted keys ("retrieval.top_k").
//
// Values is the in-memory store. The file subpackage persists it as TOML.
// Getters coerce what a TOML decoder or a CLI parser produces: TOML
// integers arrive as int64, arrays as []any.
package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*Values)(nil)

// Values is a concurrency-safe map of dotted keys.
type Values struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewValues copies seed into a new store. seed may be nil.
func NewValues(seed map[string]any) *Values {
	v := &Values{data: make(map[string]any, len(seed))}
	maps.Copy(v.data, seed)
	return v
}

// ValidKey reports whether key is a usable dotted key.
func ValidKey(key string) error {
	if key == "" || strings.TrimSpace(key) != key || strings.HasPrefix(key, ".") ||
		strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid config key %q", key)
	}
	return nil
}

func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

func (v *Values) GetString(key string) string {
	val, _ := v.Get(key)
	switch s := val.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return ""
}

// GetInt accepts any integer type and floats without a fraction.
func (v *Values) GetInt(key string) int {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return 0
}

func (v *Values) GetFloat(key string) float64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return 0
}

func (v *Values) GetBool(key string) bool {
	val, _ := v.Get(key)
	switch b := val.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

// GetStringSlice drops non-string elements.
func (v *Values) GetStringSlice(key string) []string {
	val, _ := v.Get(key)
	switch s := val.(type) {
	case []string:
		return slices.Clone(s)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func (v *Values) Set(key string, value any) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
	return nil
}

// Keys returns every key, sorted.
func (v *Values) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.data))
}

// Update applies fn to the underlying map under the write lock. If fn
// fails, the map is restored.
func (v *Values) Update(fn func(data map[string]any) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	before := maps.Clone(v.data)
	if err := fn(v.data); err != nil {
		v.data = before
		return err
	}
	return nil
}
