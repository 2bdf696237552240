package component

import (
	"fmt"
	"reflect"
)

// Lookup returns the component of role T with the given hint.
func Lookup[T any](m *Manager, hint string) (T, error) {
	var zero T
	role := reflect.TypeFor[T]()
	v, err := m.Lookup(role, hint)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &LookupError{Role: role, Hint: normalizeHint(hint),
			Err: fmt.Errorf("%w: %T does not implement the role", ErrComponentLookup, v)}
	}
	return t, nil
}

// LookupList returns every component of role T, ordered by hint.
func LookupList[T any](m *Manager) ([]T, error) {
	values, err := m.LookupList(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		out = append(out, v.(T))
	}
	return out, nil
}

// LookupMap returns every component of role T keyed by hint.
func LookupMap[T any](m *Manager) (map[string]T, error) {
	values, err := m.LookupMap(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(values))
	for hint, v := range values {
		out[hint] = v.(T)
	}
	return out, nil
}

// Register registers a factory for role T.
func Register[T any](m *Manager, hint string, inst Instantiation, factory func() (T, error), reqs ...Requirement) error {
	return m.RegisterComponent(Descriptor{
		Role:          reflect.TypeFor[T](),
		Hint:          hint,
		Instantiation: inst,
		Factory:       func() (any, error) { return factory() },
		Requirements:  reqs,
	})
}

// RegisterValue registers an existing instance for role T.
func RegisterValue[T any](m *Manager, hint string, instance T) error {
	return m.RegisterInstance(Descriptor{Role: reflect.TypeFor[T](), Hint: hint}, instance)
}
