package reference

import "errors"

var (
	// ErrInvalidArgument is returned when a reference, type or class violates the
	// structural contract of the reference hierarchy.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState is returned when a lookup table has no entry for a value that
	// should always be mapped, or when a builder lacks a required level.
	ErrIllegalState = errors.New("illegal state")
)

// Must panics if err is non-nil and returns v otherwise. It is meant for
// references built from constants, e.g. in tests and package-level vars.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
