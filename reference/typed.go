package reference

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// LocaleParameter is the parameter key holding the locale of a document reference.
const LocaleParameter = "locale"

// checkTyped verifies that r has type want and that its parent chain is the
// complete, correctly typed path up to a parentless wiki.
func checkTyped(r *EntityReference, want EntityType) error {
	if r == nil {
		return fmt.Errorf("%w: expected a %s reference but got nil", ErrInvalidArgument, want)
	}
	if r.typ != want {
		return fmt.Errorf("%w: expected type %s but got %s for [%s]", ErrInvalidArgument, want, r.typ, r)
	}
	parentType, hasParent := want.Parent()
	if !hasParent {
		if r.parent != nil {
			return fmt.Errorf("%w: %s reference [%s] must not have a parent but got [%s]",
				ErrInvalidArgument, want, r.name, r.parent)
		}
		return nil
	}
	if r.parent == nil {
		return fmt.Errorf("%w: %s reference [%s] requires a %s parent", ErrInvalidArgument, want, r.name, parentType)
	}
	if r.parent.typ != parentType {
		return fmt.Errorf("%w: invalid parent of [%s]: expected %s but got %s",
			ErrInvalidArgument, r, parentType, r.parent.typ)
	}
	return checkTyped(r.parent, parentType)
}

func newTyped(name string, typ EntityType, parent Reference, params map[string]string) (*EntityReference, error) {
	e, err := newEntityReference(name, typ, entityOf(parent), params)
	if err != nil {
		return nil, err
	}
	if err := checkTyped(e, typ); err != nil {
		return nil, err
	}
	return e, nil
}

func replaceTyped[T Reference](r *EntityReference, oldParent, newParent Reference) (T, error) {
	e, err := r.ReplaceParent(oldParent, newParent)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](e)
}

// WikiReference is the absolute reference of a wiki.
type WikiReference struct{ *EntityReference }

func NewWikiReference(name string) (WikiReference, error) {
	e, err := newTyped(name, TypeWiki, nil, nil)
	if err != nil {
		return WikiReference{}, err
	}
	return WikiReference{e}, nil
}

func AsWikiReference(ref Reference) (WikiReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeWiki); err != nil {
		return WikiReference{}, err
	}
	return WikiReference{e}, nil
}

// SpaceReference is the absolute reference of a space.
type SpaceReference struct{ *EntityReference }

func NewSpaceReference(name string, wiki WikiReference) (SpaceReference, error) {
	e, err := newTyped(name, TypeSpace, wiki, nil)
	if err != nil {
		return SpaceReference{}, err
	}
	return SpaceReference{e}, nil
}

func AsSpaceReference(ref Reference) (SpaceReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeSpace); err != nil {
		return SpaceReference{}, err
	}
	return SpaceReference{e}, nil
}

func (r SpaceReference) WikiReference() WikiReference {
	return WikiReference{r.parent}
}

func (r SpaceReference) ReplaceParent(oldParent, newParent Reference) (SpaceReference, error) {
	return replaceTyped[SpaceReference](r.EntityReference, oldParent, newParent)
}

// DocumentReference is the absolute reference of a document.
type DocumentReference struct{ *EntityReference }

func NewDocumentReference(wiki, space, page string) (DocumentReference, error) {
	w, err := NewWikiReference(wiki)
	if err != nil {
		return DocumentReference{}, err
	}
	s, err := NewSpaceReference(space, w)
	if err != nil {
		return DocumentReference{}, err
	}
	return NewDocumentReferenceIn(page, s)
}

func NewDocumentReferenceIn(page string, space SpaceReference) (DocumentReference, error) {
	e, err := newTyped(page, TypeDocument, space, nil)
	if err != nil {
		return DocumentReference{}, err
	}
	return DocumentReference{e}, nil
}

func AsDocumentReference(ref Reference) (DocumentReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeDocument); err != nil {
		return DocumentReference{}, err
	}
	return DocumentReference{e}, nil
}

func (r DocumentReference) SpaceReference() SpaceReference {
	return SpaceReference{r.parent}
}

func (r DocumentReference) WikiReference() WikiReference {
	return WikiReference{r.parent.parent}
}

// Locale returns the canonical locale tag of the reference, empty if unset.
func (r DocumentReference) Locale() string {
	v, _ := r.Parameter(LocaleParameter)
	return v
}

// WithLocale returns a copy of r carrying the given locale. The tag is
// canonicalised as BCP 47; an empty tag removes the locale.
func (r DocumentReference) WithLocale(tag string) (DocumentReference, error) {
	params := maps.Clone(r.params)
	if params == nil {
		params = map[string]string{}
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		delete(params, LocaleParameter)
	} else {
		parsed, err := language.Parse(tag)
		if err != nil {
			return DocumentReference{}, fmt.Errorf("%w: invalid locale %q for [%s]: %v", ErrInvalidArgument, tag, r, err)
		}
		params[LocaleParameter] = parsed.String()
	}
	e, err := newTyped(r.name, TypeDocument, r.parent, params)
	if err != nil {
		return DocumentReference{}, err
	}
	return DocumentReference{e}, nil
}

func (r DocumentReference) ReplaceParent(oldParent, newParent Reference) (DocumentReference, error) {
	return replaceTyped[DocumentReference](r.EntityReference, oldParent, newParent)
}

// AttachmentReference is the absolute reference of a file attached to a document.
type AttachmentReference struct{ *EntityReference }

func NewAttachmentReference(name string, doc DocumentReference) (AttachmentReference, error) {
	e, err := newTyped(name, TypeAttachment, doc, nil)
	if err != nil {
		return AttachmentReference{}, err
	}
	return AttachmentReference{e}, nil
}

func AsAttachmentReference(ref Reference) (AttachmentReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeAttachment); err != nil {
		return AttachmentReference{}, err
	}
	return AttachmentReference{e}, nil
}

func (r AttachmentReference) DocumentReference() DocumentReference {
	return DocumentReference{r.parent}
}

func (r AttachmentReference) ReplaceParent(oldParent, newParent Reference) (AttachmentReference, error) {
	return replaceTyped[AttachmentReference](r.EntityReference, oldParent, newParent)
}

// ObjectReference is the absolute reference of an object attached to a
// document. Its name has the form "Space.Class[number]".
type ObjectReference struct{ *EntityReference }

// NewObjectReference creates the reference of object number of class classRef
// on doc.
func NewObjectReference(classRef DocumentReference, number int, doc DocumentReference) (ObjectReference, error) {
	if classRef.EntityReference == nil {
		return ObjectReference{}, fmt.Errorf("%w: missing class reference for object on [%s]", ErrInvalidArgument, doc)
	}
	if number < 0 {
		return ObjectReference{}, fmt.Errorf("%w: negative object number %d for class [%s]", ErrInvalidArgument, number, classRef)
	}
	return NewObjectReferenceNamed(SerializeLocal(classRef)+"["+strconv.Itoa(number)+"]", doc)
}

func NewObjectReferenceNamed(name string, doc DocumentReference) (ObjectReference, error) {
	e, err := newTyped(name, TypeObject, doc, nil)
	if err != nil {
		return ObjectReference{}, err
	}
	return ObjectReference{e}, nil
}

func AsObjectReference(ref Reference) (ObjectReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeObject); err != nil {
		return ObjectReference{}, err
	}
	return ObjectReference{e}, nil
}

func (r ObjectReference) DocumentReference() DocumentReference {
	return DocumentReference{r.parent}
}

// ClassName returns the local class reference part of the object name.
func (r ObjectReference) ClassName() string {
	if i := strings.LastIndexByte(r.name, '['); i > 0 && strings.HasSuffix(r.name, "]") {
		return r.name[:i]
	}
	return r.name
}

// Number returns the object number if the name carries one.
func (r ObjectReference) Number() (int, bool) {
	i := strings.LastIndexByte(r.name, '[')
	if i < 0 || !strings.HasSuffix(r.name, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(r.name[i+1 : len(r.name)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ClassReference resolves the class name against the wiki of the object.
func (r ObjectReference) ClassReference() (DocumentReference, error) {
	return ResolveDocument(r.ClassName(), r.DocumentReference().WikiReference())
}

func (r ObjectReference) ReplaceParent(oldParent, newParent Reference) (ObjectReference, error) {
	return replaceTyped[ObjectReference](r.EntityReference, oldParent, newParent)
}

// ObjectPropertyReference is the absolute reference of a property of an object.
type ObjectPropertyReference struct{ *EntityReference }

func NewObjectPropertyReference(name string, obj ObjectReference) (ObjectPropertyReference, error) {
	e, err := newTyped(name, TypeObjectProperty, obj, nil)
	if err != nil {
		return ObjectPropertyReference{}, err
	}
	return ObjectPropertyReference{e}, nil
}

func AsObjectPropertyReference(ref Reference) (ObjectPropertyReference, error) {
	e := entityOf(ref)
	if err := checkTyped(e, TypeObjectProperty); err != nil {
		return ObjectPropertyReference{}, err
	}
	return ObjectPropertyReference{e}, nil
}

func (r ObjectPropertyReference) ObjectReference() ObjectReference {
	return ObjectReference{r.parent}
}

func (r ObjectPropertyReference) DocumentReference() DocumentReference {
	return DocumentReference{r.parent.parent}
}

func (r ObjectPropertyReference) ReplaceParent(oldParent, newParent Reference) (ObjectPropertyReference, error) {
	return replaceTyped[ObjectPropertyReference](r.EntityReference, oldParent, newParent)
}
