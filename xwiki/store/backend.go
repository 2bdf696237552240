package store

import (
	"context"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
)

// Backend persists documents. Documents are identified by reference and
// language; ids are assigned by the Store before Put.
type Backend interface {
	// DocumentByID returns the document with the given id or ErrNotFound.
	DocumentByID(ctx context.Context, id int64) (*types.Document, error)

	// FindDocument returns the document translation or ErrNotFound.
	FindDocument(ctx context.Context, ref reference.DocumentReference, lang string) (*types.Document, error)

	// Put inserts or replaces the document. Removed objects are dropped.
	Put(ctx context.Context, doc *types.Document) error

	// Delete removes the document translation or returns ErrNotFound.
	Delete(ctx context.Context, ref reference.DocumentReference, lang string) error

	// List returns documents ordered by reference and language.
	List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error)

	Close() error
}
