package component

import (
	"fmt"
	"reflect"
)

// DefaultHint is the hint of components registered without one.
const DefaultHint = "default"

// Instantiation controls how many instances a descriptor produces.
type Instantiation int

const (
	// Singleton components are created once and shared.
	Singleton Instantiation = iota
	// PerLookup components are created on every lookup.
	PerLookup
)

func (i Instantiation) String() string {
	if i == PerLookup {
		return "per-lookup"
	}
	return "singleton"
}

// RequirementKind selects what is injected for a requirement.
type RequirementKind int

const (
	// Single injects the component with the requirement hint.
	Single RequirementKind = iota
	// List injects all components of the role as []any.
	List
	// Map injects all components of the role as map[string]any keyed by hint.
	Map
)

// Requirement is a dependency injected into new instances of a component.
type Requirement struct {
	Role   reflect.Type
	Hint   string
	Kind   RequirementKind
	Inject func(target, dep any) error
}

// Descriptor describes how to create a component.
type Descriptor struct {
	Role          reflect.Type
	Hint          string
	Instantiation Instantiation
	Factory       func() (any, error)
	Requirements  []Requirement
}

// RoleName returns the package path qualified name of role.
func RoleName(role reflect.Type) string {
	if role == nil {
		return "<nil>"
	}
	if role.Name() != "" && role.PkgPath() != "" {
		return role.PkgPath() + "." + role.Name()
	}
	return role.String()
}

// BeanName returns the registry key of a role and hint.
func BeanName(role reflect.Type, hint string) string {
	return RoleName(role) + "|" + normalizeHint(hint)
}

func normalizeHint(hint string) string {
	if hint == "" {
		return DefaultHint
	}
	return hint
}

func (d Descriptor) RoleName() string {
	return RoleName(d.Role)
}

func (d Descriptor) BeanName() string {
	return BeanName(d.Role, d.Hint)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.BeanName(), d.Instantiation)
}

// Requires builds a Single requirement on T whose dependency is handed to set.
func Requires[C, T any](hint string, set func(c C, dep T)) Requirement {
	return Requirement{
		Role: reflect.TypeFor[T](),
		Hint: hint,
		Kind: Single,
		Inject: func(target, dep any) error {
			c, ok := target.(C)
			if !ok {
				return fmt.Errorf("%w: target %T is not a %v", ErrInvalidDescriptor, target, reflect.TypeFor[C]())
			}
			d, ok := dep.(T)
			if !ok {
				return fmt.Errorf("%w: dependency %T is not a %v", ErrInvalidDescriptor, dep, reflect.TypeFor[T]())
			}
			set(c, d)
			return nil
		},
	}
}

// RequiresList builds a List requirement on T.
func RequiresList[C, T any](set func(c C, deps []T)) Requirement {
	return Requirement{
		Role: reflect.TypeFor[T](),
		Kind: List,
		Inject: func(target, dep any) error {
			c, ok := target.(C)
			if !ok {
				return fmt.Errorf("%w: target %T is not a %v", ErrInvalidDescriptor, target, reflect.TypeFor[C]())
			}
			var deps []T
			for _, d := range dep.([]any) {
				deps = append(deps, d.(T))
			}
			set(c, deps)
			return nil
		},
	}
}

// RequiresMap builds a Map requirement on T.
func RequiresMap[C, T any](set func(c C, deps map[string]T)) Requirement {
	return Requirement{
		Role: reflect.TypeFor[T](),
		Kind: Map,
		Inject: func(target, dep any) error {
			c, ok := target.(C)
			if !ok {
				return fmt.Errorf("%w: target %T is not a %v", ErrInvalidDescriptor, target, reflect.TypeFor[C]())
			}
			deps := map[string]T{}
			for hint, d := range dep.(map[string]any) {
				deps[hint] = d.(T)
			}
			set(c, deps)
			return nil
		},
	}
}

// Initializable components are initialized after their requirements are injected.
type Initializable interface {
	Initialize() error
}

// Disposable components are disposed when unregistered or released.
type Disposable interface {
	Dispose() error
}

// Notifier is told about registrations.
type Notifier interface {
	ComponentRegistered(desc Descriptor)
	ComponentUnregistered(desc Descriptor)
}
