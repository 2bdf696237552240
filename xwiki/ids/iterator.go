package ids

import (
	"iter"

	"github.com/celements/wikibridge/reference"
)

// DocumentIDIterator yields the ids of a document for increasing collision
// counts until the collision count field overflows.
type DocumentIDIterator struct {
	computer *UniqueHashComputer
	doc      reference.DocumentReference
	lang     string
	next     int
}

func (it *DocumentIDIterator) HasNext() bool {
	return it.next <= MaxCollisionCount
}

// Next returns the id for the next collision count, or ErrNoSuchElement once
// every collision count has been produced.
func (it *DocumentIDIterator) Next() (int64, error) {
	if !it.HasNext() {
		return 0, &IDComputationError{
			Op:             "next document id",
			Document:       it.doc.String(),
			Language:       it.lang,
			CollisionCount: it.next,
			Err:            ErrNoSuchElement,
		}
	}
	id, err := it.computer.ComputeID(it.doc, it.lang, it.next, 0)
	if err != nil {
		return 0, err
	}
	it.next++
	return id, nil
}

// All drains the iterator, yielding collision count and id pairs.
func (it *DocumentIDIterator) All() iter.Seq2[int, int64] {
	return func(yield func(int, int64) bool) {
		for it.HasNext() {
			count := it.next
			id, err := it.Next()
			if err != nil || !yield(count, id) {
				return
			}
		}
	}
}
