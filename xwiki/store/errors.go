package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for documents that do not exist.
	ErrNotFound = errors.New("document not found")
	// ErrIDCollision is returned when every collision count of a document id
	// is taken by other documents.
	ErrIDCollision = errors.New("document id collision")
	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("store closed")
)

// SaveError reports a failed save of a document.
type SaveError struct {
	Document string
	Language string
	Err      error
}

func (e *SaveError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("failed to save %s (%s): %v", e.Document, e.Language, e.Err)
	}
	return fmt.Sprintf("failed to save %s: %v", e.Document, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
