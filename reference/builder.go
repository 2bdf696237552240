package reference

import (
	"fmt"
	"maps"
	"slices"
)

// Defaults supplies names for levels a builder was not given, typically the
// current wiki and space of the model context.
type Defaults interface {
	Default(t EntityType) (string, bool)
}

// StaticDefaults is a fixed set of default names.
type StaticDefaults map[EntityType]string

func (d StaticDefaults) Default(t EntityType) (string, bool) {
	name, ok := d[t]
	return name, ok && name != ""
}

// RefBuilder accumulates names per level and builds references from them.
// Later values replace earlier ones on the same level. A builder is not safe
// for concurrent use.
type RefBuilder struct {
	names    map[EntityType]string
	params   map[EntityType]map[string]string
	defaults Defaults
}

func NewRefBuilder() *RefBuilder {
	return &RefBuilder{
		names:  map[EntityType]string{},
		params: map[EntityType]map[string]string{},
	}
}

// RefBuilderFrom starts a builder with every level of ref.
func RefBuilderFrom(ref Reference) *RefBuilder {
	return NewRefBuilder().With(ref)
}

func (b *RefBuilder) Wiki(name string) *RefBuilder     { return b.WithType(TypeWiki, name) }
func (b *RefBuilder) Space(name string) *RefBuilder    { return b.WithType(TypeSpace, name) }
func (b *RefBuilder) Doc(name string) *RefBuilder      { return b.WithType(TypeDocument, name) }
func (b *RefBuilder) Att(name string) *RefBuilder      { return b.WithType(TypeAttachment, name) }
func (b *RefBuilder) Object(name string) *RefBuilder   { return b.WithType(TypeObject, name) }
func (b *RefBuilder) Property(name string) *RefBuilder { return b.WithType(TypeObjectProperty, name) }

// WithType sets the name of one level. An empty name clears the level.
func (b *RefBuilder) WithType(t EntityType, name string) *RefBuilder {
	if !t.IsValid() {
		return b
	}
	if name == "" {
		delete(b.names, t)
		delete(b.params, t)
		return b
	}
	b.names[t] = name
	return b
}

// With sets every level present in the chain of ref, including parameters.
func (b *RefBuilder) With(ref Reference) *RefBuilder {
	e := entityOf(ref)
	if e == nil {
		return b
	}
	for _, node := range e.Chain() {
		b.names[node.typ] = node.name
		if len(node.params) > 0 {
			b.params[node.typ] = maps.Clone(node.params)
		} else {
			delete(b.params, node.typ)
		}
	}
	return b
}

func (b *RefBuilder) WithParameter(t EntityType, key, value string) *RefBuilder {
	if !t.IsValid() || key == "" {
		return b
	}
	if b.params[t] == nil {
		b.params[t] = map[string]string{}
	}
	b.params[t][key] = value
	return b
}

func (b *RefBuilder) Defaults(d Defaults) *RefBuilder {
	b.defaults = d
	return b
}

// Depth returns the number of levels set on the builder.
func (b *RefBuilder) Depth() int {
	return len(b.names)
}

func (b *RefBuilder) Clone() *RefBuilder {
	c := &RefBuilder{
		names:    maps.Clone(b.names),
		params:   make(map[EntityType]map[string]string, len(b.params)),
		defaults: b.defaults,
	}
	for t, p := range b.params {
		c.params[t] = maps.Clone(p)
	}
	return c
}

// Build returns an absolute reference of type t. Levels that were not set
// fall back to the defaults; a level without either is an error.
func (b *RefBuilder) Build(t EntityType) (*EntityReference, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: cannot build a reference of type %s", ErrInvalidArgument, t)
	}
	types := slices.Collect(IterateAt(t))
	slices.Reverse(types)
	var parent *EntityReference
	for _, typ := range types {
		name, ok := b.name(typ)
		if !ok {
			return nil, fmt.Errorf("%w: no %s name given to build a %s reference", ErrIllegalState, typ, t)
		}
		ref, err := newEntityReference(name, typ, parent, b.params[typ])
		if err != nil {
			return nil, err
		}
		parent = ref
	}
	return parent, nil
}

// BuildRelative returns a reference of type t made of the set levels only,
// starting at t and stopping at the first level that is missing.
func (b *RefBuilder) BuildRelative(t EntityType) (*EntityReference, error) {
	if _, ok := b.names[t]; !ok {
		return nil, fmt.Errorf("%w: no %s name given", ErrIllegalState, t)
	}
	var types []EntityType
	for typ := range IterateAt(t) {
		if _, ok := b.names[typ]; !ok {
			break
		}
		types = append(types, typ)
	}
	var parent *EntityReference
	for _, typ := range slices.Backward(types) {
		ref, err := newEntityReference(b.names[typ], typ, parent, b.params[typ])
		if err != nil {
			return nil, err
		}
		parent = ref
	}
	return parent, nil
}

func (b *RefBuilder) name(t EntityType) (string, bool) {
	if name, ok := b.names[t]; ok {
		return name, true
	}
	if b.defaults != nil {
		return b.defaults.Default(t)
	}
	return "", false
}

// BuildRef builds the absolute typed reference T.
func BuildRef[T Reference](b *RefBuilder) (T, error) {
	var zero T
	if isGeneric[T]() {
		return zero, fmt.Errorf("%w: cannot build the generic %s", ErrInvalidArgument, className[T]())
	}
	e, err := b.Build(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	return As[T](e)
}
