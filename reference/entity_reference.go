package reference

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Reference is implemented by *EntityReference and by every typed reference.
type Reference interface {
	// Entity returns the underlying reference node, nil for zero values.
	Entity() *EntityReference
}

// EntityReference is one level of a hierarchical wiki address. It is immutable:
// every operation that changes the chain returns a new reference.
type EntityReference struct {
	name   string
	typ    EntityType
	parent *EntityReference
	params map[string]string
}

// NewEntityReference creates a reference of the given type below parent. The
// parent chain is not checked for completeness; use the typed constructors for
// absolute references.
func NewEntityReference(name string, typ EntityType, parent Reference) (*EntityReference, error) {
	return newEntityReference(name, typ, entityOf(parent), nil)
}

// NewEntityReferenceWithParams is NewEntityReference with additional
// parameters attached to the new node.
func NewEntityReferenceWithParams(name string, typ EntityType, parent Reference, params map[string]string) (*EntityReference, error) {
	return newEntityReference(name, typ, entityOf(parent), params)
}

func newEntityReference(name string, typ EntityType, parent *EntityReference, params map[string]string) (*EntityReference, error) {
	r := &EntityReference{}
	if err := r.setName(name); err != nil {
		return nil, err
	}
	if err := r.setType(typ); err != nil {
		return nil, err
	}
	if err := r.setParams(params); err != nil {
		return nil, err
	}
	r.parent = parent
	return r, nil
}

func (r *EntityReference) setName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: an entity reference name must not be empty", ErrInvalidArgument)
	}
	r.name = name
	return nil
}

func (r *EntityReference) setType(typ EntityType) error {
	if !typ.IsValid() {
		return fmt.Errorf("%w: invalid entity type %s", ErrInvalidArgument, typ)
	}
	r.typ = typ
	return nil
}

func (r *EntityReference) setParams(params map[string]string) error {
	if len(params) == 0 {
		return nil
	}
	for k := range params {
		if k == "" {
			return fmt.Errorf("%w: empty parameter key on [%s]", ErrInvalidArgument, r.name)
		}
	}
	r.params = maps.Clone(params)
	return nil
}

func entityOf(r Reference) *EntityReference {
	if r == nil {
		return nil
	}
	return r.Entity()
}

// Entity implements Reference.
func (r *EntityReference) Entity() *EntityReference {
	return r
}

func (r *EntityReference) Name() string {
	return r.name
}

func (r *EntityReference) Type() EntityType {
	return r.typ
}

// Parent returns the next higher-order reference, nil at the root.
func (r *EntityReference) Parent() *EntityReference {
	return r.parent
}

// Root returns the top-most reference of the chain.
func (r *EntityReference) Root() *EntityReference {
	cur := r
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Parameter returns a single parameter value.
func (r *EntityReference) Parameter(key string) (string, bool) {
	v, ok := r.params[key]
	return v, ok
}

// Parameters returns a copy of the parameters of this node.
func (r *EntityReference) Parameters() map[string]string {
	return maps.Clone(r.params)
}

// ParameterKeys returns the parameter keys in sorted order.
func (r *EntityReference) ParameterKeys() []string {
	return slices.Sorted(maps.Keys(r.params))
}

// Chain returns the references from the root down to r.
func (r *EntityReference) Chain() []*EntityReference {
	var chain []*EntityReference
	for cur := r; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	slices.Reverse(chain)
	return chain
}

// ExtractRef returns the first reference of the given type, starting at r and
// walking up the parent chain.
func (r *EntityReference) ExtractRef(typ EntityType) (*EntityReference, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		if cur.typ == typ {
			return cur, true
		}
	}
	return nil, false
}

// ReplaceParent returns a copy of r where oldParent, which must be part of the
// parent chain, is substituted with newParent. A nil oldParent denotes the
// position above the current root.
func (r *EntityReference) ReplaceParent(oldParent, newParent Reference) (*EntityReference, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: cannot replace the parent of a nil reference", ErrInvalidArgument)
	}
	oldRef, newRef := entityOf(oldParent), entityOf(newParent)
	if r.Equal(oldRef) {
		return nil, fmt.Errorf("%w: the replaced reference [%s] must not be the reference itself", ErrInvalidArgument, r)
	}
	return r.replaceParent(oldRef, newRef)
}

func (r *EntityReference) replaceParent(oldRef, newRef *EntityReference) (*EntityReference, error) {
	var parent *EntityReference
	switch {
	case r.parent == nil:
		if oldRef != nil {
			return nil, fmt.Errorf("%w: the old reference [%s] does not belong to the parent chain of [%s]",
				ErrInvalidArgument, oldRef, r)
		}
		parent = newRef
	case r.parent.Equal(oldRef):
		parent = newRef
	default:
		p, err := r.parent.replaceParent(oldRef, newRef)
		if err != nil {
			return nil, err
		}
		parent = p
	}
	return newEntityReference(r.name, r.typ, parent, r.params)
}

// AppendParent grafts newParent above the current root.
func (r *EntityReference) AppendParent(newParent Reference) (*EntityReference, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: cannot append a parent to a nil reference", ErrInvalidArgument)
	}
	return r.replaceParent(nil, entityOf(newParent))
}

// Equal compares name, type, parameters and the full parent chain.
func (r *EntityReference) Equal(other Reference) bool {
	o := entityOf(other)
	a := r
	for a != nil && o != nil {
		if a == o {
			return true
		}
		if a.name != o.name || a.typ != o.typ || !maps.Equal(a.params, o.params) {
			return false
		}
		a, o = a.parent, o.parent
	}
	return a == nil && o == nil
}

// Compare orders references parent chain first, then by type, name and
// parameters. A reference without parent sorts before one with a parent.
func (r *EntityReference) Compare(other Reference) int {
	o := entityOf(other)
	switch {
	case r == o:
		return 0
	case r == nil:
		return -1
	case o == nil:
		return 1
	}
	switch {
	case r.parent != nil && o.parent != nil:
		if c := r.parent.Compare(o.parent); c != 0 {
			return c
		}
	case r.parent != nil:
		return 1
	case o.parent != nil:
		return -1
	}
	if c := cmp.Compare(r.typ, o.typ); c != 0 {
		return c
	}
	if c := cmp.Compare(r.name, o.name); c != 0 {
		return c
	}
	return compareParams(r.params, o.params)
}

// compareParams walks the sorted union of keys. A side lacking a key sorts
// before the side that has it.
func compareParams(a, b map[string]string) int {
	keys := slices.Sorted(maps.Keys(a))
	for k := range maps.Keys(b) {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		av, aok := a[k]
		bv, bok := b[k]
		switch {
		case !aok:
			return -1
		case !bok:
			return 1
		}
		if c := cmp.Compare(av, bv); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// String returns the full string serialization of the reference.
func (r *EntityReference) String() string {
	if r == nil {
		return "<nil>"
	}
	return Serialize(r)
}
