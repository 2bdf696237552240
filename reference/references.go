package reference

import (
	"fmt"
	"maps"
)

var wrappers = map[EntityType]func(*EntityReference) Reference{
	TypeWiki:           func(e *EntityReference) Reference { return WikiReference{e} },
	TypeSpace:          func(e *EntityReference) Reference { return SpaceReference{e} },
	TypeDocument:       func(e *EntityReference) Reference { return DocumentReference{e} },
	TypeAttachment:     func(e *EntityReference) Reference { return AttachmentReference{e} },
	TypeObject:         func(e *EntityReference) Reference { return ObjectReference{e} },
	TypeObjectProperty: func(e *EntityReference) Reference { return ObjectPropertyReference{e} },
}

// As converts ref into T. Typed targets require ref to be an absolute
// reference of the matching type; the generic *EntityReference accepts
// anything non-nil.
func As[T Reference](ref Reference) (T, error) {
	var zero T
	e := entityOf(ref)
	if e == nil {
		return zero, fmt.Errorf("%w: cannot convert a nil reference to %s", ErrInvalidArgument, className[T]())
	}
	if isGeneric[T]() {
		return any(e).(T), nil
	}
	want := TypeOf[T]()
	if want == TypeNone {
		return zero, fmt.Errorf("%w: unsupported reference class %s", ErrInvalidArgument, className[T]())
	}
	if err := checkTyped(e, want); err != nil {
		return zero, fmt.Errorf("cannot convert [%s] of type %s to %s: %w", e, e.typ, className[T](), err)
	}
	return wrappers[want](e).(T), nil
}

// Typed returns ref wrapped in the most specific reference struct available:
// the typed reference for absolute references, the entity itself otherwise.
func Typed(ref Reference) Reference {
	e := entityOf(ref)
	if e == nil {
		return nil
	}
	if IsAbsoluteRef(e) {
		return wrappers[e.typ](e)
	}
	return e
}

// IsAbsoluteRef reports whether ref has a complete, correctly typed parent
// chain ending in a wiki.
func IsAbsoluteRef(ref Reference) bool {
	e := entityOf(ref)
	return e != nil && checkTyped(e, e.typ) == nil
}

// CloneRef returns a deep copy of the reference chain.
func CloneRef(ref Reference) *EntityReference {
	e := entityOf(ref)
	if e == nil {
		return nil
	}
	return &EntityReference{
		name:   e.name,
		typ:    e.typ,
		parent: CloneRef(e.parent),
		params: maps.Clone(e.params),
	}
}

func CloneRefAs[T Reference](ref T) (T, error) {
	return As[T](CloneRef(ref))
}

// CompleteRef combines refs into an absolute reference of type T. The result
// is absent when refs do not supply every level. Completing the generic
// *EntityReference is an error since it has no terminal type.
func CompleteRef[T Reference](refs ...Reference) (T, bool, error) {
	var zero T
	if isGeneric[T]() {
		return zero, false, fmt.Errorf("%w: cannot complete to the generic %s", ErrInvalidArgument, className[T]())
	}
	combined, ok := combine(TypeOf[T](), refs)
	if !ok || !IsAbsoluteRef(combined) {
		return zero, false, nil
	}
	v, err := As[T](combined)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// CombineRef merges refs into a reference of the type of the first non-nil
// ref. For every level the first ref providing it wins. The result may be
// relative. No refs, or only nil refs, yield an absent result.
func CombineRef(refs ...Reference) (*EntityReference, bool) {
	for _, r := range refs {
		if e := entityOf(r); e != nil {
			return combine(e.typ, refs)
		}
	}
	return nil, false
}

// CombineRefOf is CombineRef with an explicit target type.
func CombineRefOf(t EntityType, refs ...Reference) (*EntityReference, bool) {
	return combine(t, refs)
}

// CombineRefAs combines refs into T. For typed T the combination must be
// absolute to be present.
func CombineRefAs[T Reference](refs ...Reference) (T, bool) {
	var zero T
	var combined *EntityReference
	var ok bool
	if isGeneric[T]() {
		combined, ok = CombineRef(refs...)
	} else {
		combined, ok = combine(TypeOf[T](), refs)
	}
	if !ok {
		return zero, false
	}
	v, err := As[T](combined)
	if err != nil {
		return zero, false
	}
	return v, true
}

func combine(t EntityType, refs []Reference) (*EntityReference, bool) {
	if !t.IsValid() {
		return nil, false
	}
	var entities []*EntityReference
	for _, r := range refs {
		if e := entityOf(r); e != nil {
			entities = append(entities, e)
		}
	}
	if len(entities) == 0 {
		return nil, false
	}
	var levels []*EntityReference
	for typ := range IterateAt(t) {
		found := false
		for _, e := range entities {
			if x, ok := e.ExtractRef(typ); ok {
				levels = append(levels, x)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	if len(levels) == 0 {
		return nil, false
	}
	var parent *EntityReference
	for i := len(levels) - 1; i >= 0; i-- {
		parent = &EntityReference{
			name:   levels[i].name,
			typ:    levels[i].typ,
			parent: parent,
			params: maps.Clone(levels[i].params),
		}
	}
	return parent, true
}

// AdjustRef moves ref onto the hierarchy implied by toRef. If toRef is or
// contains an entity of ref's own type, that entity replaces ref. Otherwise
// the nearest ancestor level of ref that toRef provides is spliced into ref's
// parent chain, grafting it above the root for relative references. A nil
// toRef leaves ref unchanged.
func AdjustRef[T Reference](ref T, toRef Reference) (T, error) {
	var zero T
	e, to := entityOf(ref), entityOf(toRef)
	if e == nil {
		return zero, fmt.Errorf("%w: cannot adjust a nil reference", ErrInvalidArgument)
	}
	if to == nil {
		return ref, nil
	}
	if x, ok := to.ExtractRef(e.typ); ok {
		return As[T](x)
	}
	for typ := range IterateFrom(e.typ) {
		x, ok := to.ExtractRef(typ)
		if !ok {
			continue
		}
		var adjusted *EntityReference
		var err error
		if old, has := e.ExtractRef(typ); has {
			adjusted, err = e.ReplaceParent(old, x)
		} else {
			adjusted, err = e.AppendParent(x)
		}
		if err != nil {
			return zero, err
		}
		return As[T](adjusted)
	}
	return ref, nil
}

// AsCompleteRef converts ref into T, requiring ref to already be absolute.
func AsCompleteRef[T Reference](ref Reference) (T, error) {
	var zero T
	e := entityOf(ref)
	if e == nil {
		return zero, fmt.Errorf("%w: cannot complete a nil reference as %s", ErrInvalidArgument, className[T]())
	}
	if !IsAbsoluteRef(e) {
		return zero, fmt.Errorf("%w: [%s] is relative, expected an absolute %s", ErrInvalidArgument, e, className[T]())
	}
	if want := TypeOf[T](); !isGeneric[T]() && want != e.typ {
		got, _ := ClassForType(e.typ)
		return zero, fmt.Errorf("%w: [%s] resolves to %v, expected %s", ErrInvalidArgument, e, got, className[T]())
	}
	return As[T](e)
}

// Extract returns the ancestor-or-self of ref matching T. Typed results must
// be absolute; a relative ancestor is reported as absent. For the generic
// *EntityReference the reference itself is returned.
func Extract[T Reference](ref Reference) (T, bool) {
	var zero T
	e := entityOf(ref)
	if e == nil {
		return zero, false
	}
	if isGeneric[T]() {
		return any(e).(T), true
	}
	x, ok := e.ExtractRef(TypeOf[T]())
	if !ok {
		return zero, false
	}
	v, err := As[T](x)
	if err != nil {
		return zero, false
	}
	return v, true
}
