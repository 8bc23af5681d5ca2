// Package kv holds flat, dot-keyed configuration values.
//
// Both config stores keep their values in a Map. Typed reads go through
// spf13/cast, so a hand-edited file with top_k = "5" still reads as 5.
package kv

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cast"
)

// Map is a concurrency-safe set of "table.key" values.
type Map struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates an empty Map.
func New() *Map {
	return &Map{data: make(map[string]any)}
}

// Get returns the raw value stored under key.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set stores value under key.
func (m *Map) Set(key string, value any) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

// Replace swaps in a new flat value set.
func (m *Map) Replace(flat map[string]any) {
	if flat == nil {
		flat = make(map[string]any)
	}
	m.mu.Lock()
	m.data = flat
	m.mu.Unlock()
}

// Snapshot returns a copy of the current values.
func (m *Map) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}

// GetString reads key as a string.
func (m *Map) GetString(key string) string {
	v, _ := m.Get(key)
	return cast.ToString(v)
}

// GetInt reads key as an int. Unconvertible values read as 0.
func (m *Map) GetInt(key string) int {
	v, _ := m.Get(key)
	return cast.ToInt(v)
}

// GetFloat reads key as a float64.
func (m *Map) GetFloat(key string) float64 {
	v, _ := m.Get(key)
	return cast.ToFloat64(v)
}

// GetBool reads key as a bool.
func (m *Map) GetBool(key string) bool {
	v, _ := m.Get(key)
	return cast.ToBool(v)
}

// GetStringSlice reads key as a string list. Missing keys read as nil.
func (m *Map) GetStringSlice(key string) []string {
	v, ok := m.Get(key)
	if !ok {
		return nil
	}
	return cast.ToStringSlice(v)
}

// Flatten turns nested tables into dot keys: {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", nested)
	return flat
}

func flattenInto(dst map[string]any, prefix string, src map[string]any) {
	for k, v := range src {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flattenInto(dst, k, table)
			continue
		}
		dst[k] = v
	}
}

// Nest is the inverse of Flatten. When a key is both a value and a table
// prefix, the value wins.
func Nest(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		parts := strings.Split(key, ".")
		if table := descend(root, parts[:len(parts)-1]); table != nil {
			table[parts[len(parts)-1]] = flat[key]
		}
	}
	return root
}

// descend walks path from root, creating tables as needed. It returns nil
// if a value already occupies part of the path.
func descend(root map[string]any, path []string) map[string]any {
	node := root
	for _, part := range path {
		child, ok := node[part]
		if !ok {
			next := make(map[string]any)
			node[part] = next
			node = next
			continue
		}
		next, isTable := child.(map[string]any)
		if !isTable {
			return nil
		}
		node = next
	}
	return node
}
