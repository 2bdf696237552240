package ids

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchElement is returned by an exhausted DocumentIDIterator.
	ErrNoSuchElement = errors.New("no such element")
	// ErrCountOutOfRange reports a collision or object count not fitting its bit width.
	ErrCountOutOfRange = errors.New("count out of range")
	// ErrObjectsExhausted reports a document without free object ids.
	ErrObjectsExhausted = errors.New("object ids exhausted")
)

// IDComputationError describes a failed id computation together with the
// values it was computed from.
type IDComputationError struct {
	Op             string
	Document       string
	Language       string
	CollisionCount int
	ObjectCount    int
	Err            error
}

func (e *IDComputationError) Error() string {
	return fmt.Sprintf("%s failed for document %q (lang %q, collision %d, object %d): %v",
		e.Op, e.Document, e.Language, e.CollisionCount, e.ObjectCount, e.Err)
}

func (e *IDComputationError) Unwrap() error {
	return e.Err
}
