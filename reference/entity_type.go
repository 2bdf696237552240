package reference

import (
	"fmt"
	"iter"
	"strings"
)

// EntityType identifies the level of an entity in the reference hierarchy.
// The declaration order is significant: it is used for ordering references and
// for walking from a level towards the root.
type EntityType int

const (
	// TypeNone stands for "no type" where a start type is optional.
	TypeNone EntityType = iota - 1
	TypeWiki
	TypeSpace
	TypeDocument
	TypeAttachment
	TypeObject
	TypeObjectProperty
)

var entityTypeNames = [...]string{
	TypeWiki:           "WIKI",
	TypeSpace:          "SPACE",
	TypeDocument:       "DOCUMENT",
	TypeAttachment:     "ATTACHMENT",
	TypeObject:         "OBJECT",
	TypeObjectProperty: "OBJECT_PROPERTY",
}

// EntityTypes returns all entity types in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{TypeWiki, TypeSpace, TypeDocument, TypeAttachment, TypeObject, TypeObjectProperty}
}

// LastType returns the lowest-order entity type.
func LastType() EntityType {
	return TypeObjectProperty
}

// IsValid reports whether t is one of the declared entity types.
func (t EntityType) IsValid() bool {
	return t >= TypeWiki && t <= TypeObjectProperty
}

func (t EntityType) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
	return entityTypeNames[t]
}

// ParseEntityType parses the name of an entity type, case-insensitively.
func ParseEntityType(s string) (EntityType, error) {
	for _, t := range EntityTypes() {
		if strings.EqualFold(t.String(), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("%w: unknown entity type %q", ErrInvalidArgument, s)
}

// Parent returns the type of the entity directly above t. Attachments and
// objects both hang off documents, so neither is an ancestor of the other.
func (t EntityType) Parent() (EntityType, bool) {
	switch t {
	case TypeSpace:
		return TypeWiki, true
	case TypeDocument:
		return TypeSpace, true
	case TypeAttachment, TypeObject:
		return TypeDocument, true
	case TypeObjectProperty:
		return TypeObject, true
	default:
		return TypeNone, false
	}
}

// IsAncestorOf reports whether t lies on the path from other up to the root,
// other excluded.
func (t EntityType) IsAncestorOf(other EntityType) bool {
	for typ := range IterateFrom(other) {
		if typ == t {
			return true
		}
	}
	return false
}

// IterateAt walks from start (inclusive) towards the root. TypeNone starts at
// LastType.
func IterateAt(start EntityType) iter.Seq[EntityType] {
	if start == TypeNone {
		start = LastType()
	}
	return func(yield func(EntityType) bool) {
		if !start.IsValid() {
			return
		}
		for t, ok := start, true; ok; t, ok = t.Parent() {
			if !yield(t) {
				return
			}
		}
	}
}

// IterateFrom walks from the parent type of start towards the root, start
// itself excluded. TypeNone starts from LastType.
func IterateFrom(start EntityType) iter.Seq[EntityType] {
	return func(yield func(EntityType) bool) {
		first := true
		for t := range IterateAt(start) {
			if first {
				first = false
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}
