// Package config reads settings from layered configuration sources.
//
// A Source only knows how to return raw values. Typed access goes through
// the package level getters, which convert with spf13/cast and fall back to
// a default when the key is missing or cannot be converted.
package config

import (
	"github.com/spf13/cast"
)

// Source is a read-only view of configuration values. Keys are dotted and
// case-insensitive, e.g. "model.wiki.default".
type Source interface {
	Keys() []string
	ContainsKey(key string) bool
	IsEmpty() bool
	Get(key string) (any, bool)
}

func String(src Source, key, def string) string {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return def
	}
	return s
}

func Int(src Source, key string, def int) int {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return i
}

func Bool(src Source, key string, def bool) bool {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// StringSlice accepts lists as well as comma separated strings.
func StringSlice(src Source, key string, def []string) []string {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	if s, isString := v.(string); isString {
		return splitList(s)
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return def
	}
	return list
}
