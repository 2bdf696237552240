package component

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrComponentLookup is returned when no component matches a role and hint.
	ErrComponentLookup = errors.New("component lookup failed")
	// ErrInvalidDescriptor is returned for descriptors that cannot be registered.
	ErrInvalidDescriptor = errors.New("invalid component descriptor")
	// ErrCyclicRequirement is returned when a component requires itself, directly or not.
	ErrCyclicRequirement = errors.New("cyclic component requirement")
)

// LookupError reports a failed lookup together with the requested role and hint.
type LookupError struct {
	Role reflect.Type
	Hint string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to look up component [%s] with hint [%s]: %v", RoleName(e.Role), e.Hint, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
