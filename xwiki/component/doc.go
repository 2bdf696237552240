// Package component is an explicit component registry.
//
// Components are registered under a role (usually an interface type) and a
// hint. Each registration is stored under the bean name "<role>|<hint>", where
// the role name is the package path qualified type name and the hint defaults
// to "default". Lookups try the bean name first and then the bare hint, so
// instances registered with RegisterNamed can satisfy role lookups.
//
// After a component is instantiated its requirements are injected and, if it
// implements Initializable, it is initialized. A failing requirement fails the
// lookup unless the manager was created with WithLenientRequirements.
package component
