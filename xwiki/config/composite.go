package config

import (
	"maps"
	"slices"
)

// CompositeSource layers sources; the first source containing a key wins.
type CompositeSource struct {
	sources []Source
}

func NewCompositeSource(sources ...Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

// Add appends a source with the lowest priority.
func (c *CompositeSource) Add(src Source) {
	c.sources = append(c.sources, src)
}

// Keys returns the union of the keys of all sources.
func (c *CompositeSource) Keys() []string {
	keys := map[string]struct{}{}
	for _, src := range c.sources {
		for _, k := range src.Keys() {
			keys[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(keys))
}

func (c *CompositeSource) ContainsKey(key string) bool {
	for _, src := range c.sources {
		if src.ContainsKey(key) {
			return true
		}
	}
	return false
}

func (c *CompositeSource) IsEmpty() bool {
	for _, src := range c.sources {
		if !src.IsEmpty() {
			return false
		}
	}
	return true
}

func (c *CompositeSource) Get(key string) (any, bool) {
	for _, src := range c.sources {
		if v, ok := src.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}
