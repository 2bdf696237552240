package config

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MemorySource keeps values in a map. It is safe for concurrent use.
type MemorySource struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemorySource creates a source holding values. Nested maps are
// flattened into dotted keys.
func NewMemorySource(values map[string]any) *MemorySource {
	m := &MemorySource{values: map[string]any{}}
	flatten("", values, m.values)
	return m
}

// LoadYAML reads a YAML document into a new MemorySource.
func LoadYAML(r io.Reader) (*MemorySource, error) {
	var values map[string]any
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return NewMemorySource(values), nil
}

func (m *MemorySource) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[normalizeKey(key)] = value
}

func (m *MemorySource) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, normalizeKey(key))
}

func (m *MemorySource) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.values))
}

func (m *MemorySource) ContainsKey(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *MemorySource) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values) == 0
}

func (m *MemorySource) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[normalizeKey(key)]
	return v, ok
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := normalizeKey(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
