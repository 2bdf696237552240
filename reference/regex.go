package reference

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexEntityReference constrains names level by level with regular
// expressions. Levels without a pattern are unconstrained.
type RegexEntityReference struct {
	pattern *regexp.Regexp
	typ     EntityType
	parent  *RegexEntityReference
}

// NewRegexEntityReference compiles pattern as a full match of the name at
// level typ.
func NewRegexEntityReference(pattern string, typ EntityType, parent *RegexEntityReference) (*RegexEntityReference, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: invalid entity type %s for pattern %q", ErrInvalidArgument, typ, pattern)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pattern %q: %v", ErrInvalidArgument, pattern, err)
	}
	return &RegexEntityReference{pattern: re, typ: typ, parent: parent}, nil
}

// ExactRegexReference constrains every level of ref to its literal name.
func ExactRegexReference(ref Reference) *RegexEntityReference {
	var parent *RegexEntityReference
	for _, node := range entityOf(ref).Chain() {
		parent = &RegexEntityReference{
			pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(node.name) + `$`),
			typ:     node.typ,
			parent:  parent,
		}
	}
	return parent
}

func (r *RegexEntityReference) Type() EntityType {
	return r.typ
}

func (r *RegexEntityReference) Parent() *RegexEntityReference {
	return r.parent
}

// Matches reports whether every constrained level matches the ancestor of ref
// with the same type.
func (r *RegexEntityReference) Matches(ref Reference) bool {
	e := entityOf(ref)
	if r == nil || e == nil {
		return false
	}
	for cur := r; cur != nil; cur = cur.parent {
		x, ok := e.ExtractRef(cur.typ)
		if !ok || !cur.pattern.MatchString(x.name) {
			return false
		}
	}
	return true
}

func (r *RegexEntityReference) String() string {
	var parts []string
	for cur := r; cur != nil; cur = cur.parent {
		parts = append(parts, fmt.Sprintf("%s=%s", cur.typ, cur.pattern))
	}
	return "regex[" + strings.Join(parts, ", ") + "]"
}
