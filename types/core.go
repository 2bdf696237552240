package types

import (
	"slices"
	"strings"
	"time"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/xwiki/ids"
)

// Document is a stored wiki document in one language.
type Document struct {
	Reference reference.DocumentReference
	Language  string        // empty for the default translation
	ID        int64         // 0 until the first save
	IDVersion ids.IDVersion // algorithm ID was computed with
	Title     string
	Content   string
	Objects   []*Object
	// RemovedObjects are objects deleted since the last save; their ids stay
	// reserved until the save completes.
	RemovedObjects []*Object
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Object is an instance of a class attached to a document.
type Object struct {
	Reference  reference.ObjectReference
	ID         int64 // 0 until assigned on save
	Properties map[string]any
}

// NewDocument creates an unsaved document.
func NewDocument(ref reference.DocumentReference, lang string) *Document {
	return &Document{Reference: ref, Language: strings.TrimSpace(lang)}
}

// Key returns the identity of the document within a store.
func (d *Document) Key() DocumentKey {
	return DocumentKey{Reference: d.Reference.String(), Language: d.Language}
}

// IsNew reports whether the document has never been saved.
func (d *Document) IsNew() bool {
	return d.ID == 0
}

// AddObject appends a new object of class classRef and returns it. The object
// number is one above the highest number in use for that class.
func (d *Document) AddObject(classRef reference.DocumentReference) (*Object, error) {
	next := 0
	className := reference.SerializeLocal(classRef)
	for _, o := range slices.Concat(d.Objects, d.RemovedObjects) {
		if o.Reference.ClassName() != className {
			continue
		}
		if n, ok := o.Reference.Number(); ok && n >= next {
			next = n + 1
		}
	}
	ref, err := reference.NewObjectReference(classRef, next, d.Reference)
	if err != nil {
		return nil, err
	}
	obj := &Object{Reference: ref, Properties: map[string]any{}}
	d.Objects = append(d.Objects, obj)
	return obj, nil
}

// RemoveObject moves the object with the given reference to RemovedObjects.
func (d *Document) RemoveObject(ref reference.ObjectReference) bool {
	for i, o := range d.Objects {
		if o.Reference.Equal(ref) {
			d.Objects = slices.Delete(d.Objects, i, i+1)
			d.RemovedObjects = append(d.RemovedObjects, o)
			return true
		}
	}
	return false
}

// Object returns the object with the given reference.
func (d *Document) Object(ref reference.ObjectReference) (*Object, bool) {
	for _, o := range d.Objects {
		if o.Reference.Equal(ref) {
			return o, true
		}
	}
	return nil, false
}

func (d *Document) DocumentRef() reference.DocumentReference { return d.Reference }

func (d *Document) DocumentLanguage() string { return d.Language }

func (d *Document) DocumentID() (int64, ids.IDVersion, bool) {
	return d.ID, d.IDVersion, d.ID != 0
}

// ExistingObjectIDs returns the assigned ids of current and removed objects.
func (d *Document) ExistingObjectIDs() []int64 {
	var out []int64
	for _, o := range slices.Concat(d.Objects, d.RemovedObjects) {
		if o.ID != 0 {
			out = append(out, o.ID)
		}
	}
	return out
}

var _ ids.ObjectHolder = (*Document)(nil)

// DocumentKey identifies a document translation.
type DocumentKey struct {
	Reference string
	Language  string
}

// ListOptions configures how documents are listed
type ListOptions struct {
	// Wiki restricts the result to one wiki; empty lists all wikis
	Wiki string

	// Space restricts the result to one space of Wiki
	Space string

	// Limit specifies the maximum number of results to return
	// nil or negative values mean no limit
	Limit *int

	// Offset specifies the number of results to skip
	Offset *int
}

// Apply filters and pages docs, which must already be sorted.
func (o ListOptions) Apply(docs []*Document) []*Document {
	var out []*Document
	for _, d := range docs {
		if o.Wiki != "" && d.Reference.WikiReference().Name() != o.Wiki {
			continue
		}
		if o.Space != "" && d.Reference.SpaceReference().Name() != o.Space {
			continue
		}
		out = append(out, d)
	}
	if o.Offset != nil && *o.Offset > 0 {
		if *o.Offset >= len(out) {
			return nil
		}
		out = out[*o.Offset:]
	}
	if o.Limit != nil && *o.Limit >= 0 && *o.Limit < len(out) {
		out = out[:*o.Limit]
	}
	return out
}

// SortDocuments orders documents by reference, then language.
func SortDocuments(docs []*Document) {
	slices.SortFunc(docs, func(a, b *Document) int {
		if c := a.Reference.Compare(b.Reference); c != 0 {
			return c
		}
		return strings.Compare(a.Language, b.Language)
	})
}
