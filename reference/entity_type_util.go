package reference

import (
	"fmt"
	"reflect"
	"regexp"
)

// Name patterns used to sniff what kind of entity a free-form string denotes.
// Each pattern builds on the previous one.
const (
	RegexWord     = `[a-zA-Z0-9_-]+`
	RegexWikiName = `[a-zA-Z0-9-]+`
	RegexSpace    = `(` + RegexWikiName + `:)?` + RegexWord
	RegexDoc      = RegexSpace + `\.` + RegexWord
	RegexAtt      = RegexDoc + `@.+`
)

var typePatterns = map[EntityType]*regexp.Regexp{
	TypeWiki:       regexp.MustCompile(`^(?:` + RegexWikiName + `)$`),
	TypeSpace:      regexp.MustCompile(`^(?:` + RegexSpace + `)$`),
	TypeDocument:   regexp.MustCompile(`^(?:` + RegexDoc + `)$`),
	TypeAttachment: regexp.MustCompile(`^(?:` + RegexAtt + `)$`),
}

var (
	entityReferenceClass = reflect.TypeFor[*EntityReference]()

	classesByType = map[EntityType]reflect.Type{
		TypeWiki:           reflect.TypeFor[WikiReference](),
		TypeSpace:          reflect.TypeFor[SpaceReference](),
		TypeDocument:       reflect.TypeFor[DocumentReference](),
		TypeAttachment:     reflect.TypeFor[AttachmentReference](),
		TypeObject:         reflect.TypeFor[ObjectReference](),
		TypeObjectProperty: reflect.TypeFor[ObjectPropertyReference](),
	}

	typesByClass = func() map[reflect.Type]EntityType {
		m := make(map[reflect.Type]EntityType, len(classesByType))
		for t, c := range classesByType {
			m[c] = t
		}
		return m
	}()
)

// ClassForType returns the typed reference struct backing t.
func ClassForType(t EntityType) (reflect.Type, error) {
	if c, ok := classesByType[t]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: no reference class for entity type %s", ErrIllegalState, t)
}

// TypeForClass returns the entity type of a typed reference struct. The generic
// *EntityReference has no entity type of its own.
func TypeForClass(c reflect.Type) (EntityType, error) {
	if t, ok := typesByClass[c]; ok {
		return t, nil
	}
	return TypeNone, fmt.Errorf("%w: no entity type for reference class %v", ErrInvalidArgument, c)
}

// TypeOf returns the entity type of the typed reference T, or TypeNone for the
// generic *EntityReference.
func TypeOf[T Reference]() EntityType {
	t, err := TypeForClass(reflect.TypeFor[T]())
	if err != nil {
		return TypeNone
	}
	return t
}

func isGeneric[T Reference]() bool {
	return reflect.TypeFor[T]() == entityReferenceClass
}

func className[T Reference]() string {
	return reflect.TypeFor[T]().String()
}

// MatchesPattern reports whether name fully matches the pattern registered for
// t. Types without a pattern (objects and properties) never match.
func MatchesPattern(name string, t EntityType) bool {
	p, ok := typePatterns[t]
	return ok && p.MatchString(name)
}

// DetectTypeFromName returns the first entity type, in declaration order, whose
// pattern matches name. A plain word therefore detects as a wiki even though it
// is a valid space name as well.
func DetectTypeFromName(name string) (EntityType, bool) {
	for _, t := range EntityTypes() {
		if MatchesPattern(name, t) {
			return t, true
		}
	}
	return TypeNone, false
}
