package matching

import (
	"fmt"
	"strings"

	"github.com/celements/wikibridge/reference"
)

// Wildcard is the filter value selecting every reference.
const Wildcard = "*"

// regexPrefix marks a filter value as a regular expression on one level.
const regexPrefix = "regex:"

// Filter selects references.
type Filter interface {
	Match(ref reference.Reference) bool
	String() string
}

// ExactFilter matches references that are, or descend from, a fixed reference.
type ExactFilter struct {
	ref *reference.EntityReference
}

// NewExactFilter returns a filter on ref. A nil ref yields a filter that
// matches nothing.
func NewExactFilter(ref reference.Reference) ExactFilter {
	if ref == nil {
		return ExactFilter{}
	}
	return ExactFilter{ref: ref.Entity()}
}

func (f ExactFilter) Match(ref reference.Reference) bool {
	if ref == nil || ref.Entity() == nil || f.ref == nil {
		return false
	}
	x, ok := ref.Entity().ExtractRef(f.ref.Type())
	return ok && x.Equal(f.ref)
}

func (f ExactFilter) String() string {
	return f.ref.String()
}

// RegexFilter matches references level by level against patterns.
type RegexFilter struct {
	re *reference.RegexEntityReference
}

func NewRegexFilter(re *reference.RegexEntityReference) RegexFilter {
	return RegexFilter{re: re}
}

func (f RegexFilter) Match(ref reference.Reference) bool {
	return f.re.Matches(ref)
}

func (f RegexFilter) String() string {
	return f.re.String()
}

// AnyFilter matches every non-nil reference.
type AnyFilter struct{}

func (AnyFilter) Match(ref reference.Reference) bool {
	return ref != nil && ref.Entity() != nil
}

func (AnyFilter) String() string {
	return Wildcard
}

// ParseFilter builds a filter from its textual form: "*" for any reference,
// "regex:<pattern>" for a pattern on level t, otherwise a reference string of
// type t resolved against base.
func ParseFilter(s string, t reference.EntityType, base ...reference.Reference) (Filter, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == Wildcard:
		return AnyFilter{}, nil
	case strings.HasPrefix(s, regexPrefix):
		re, err := reference.NewRegexEntityReference(strings.TrimPrefix(s, regexPrefix), t, nil)
		if err != nil {
			return nil, err
		}
		return NewRegexFilter(re), nil
	default:
		ref, err := reference.Resolve(s, t, base...)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", s, err)
		}
		return NewExactFilter(ref), nil
	}
}

// ReferenceMatcher selects references matching all of its filters. A matcher
// without filters selects everything.
type ReferenceMatcher struct {
	filters []Filter
}

func NewReferenceMatcher(filters ...Filter) *ReferenceMatcher {
	return &ReferenceMatcher{filters: filters}
}

// Matches checks ref against every filter
func (m *ReferenceMatcher) Matches(ref reference.Reference) bool {
	if m == nil {
		return true
	}
	for _, f := range m.filters {
		if !f.Match(ref) {
			return false
		}
	}
	return true
}

// IsWildcard reports whether the matcher selects every reference.
func (m *ReferenceMatcher) IsWildcard() bool {
	if m == nil {
		return true
	}
	for _, f := range m.filters {
		if _, ok := f.(AnyFilter); !ok {
			return false
		}
	}
	return true
}

func (m *ReferenceMatcher) String() string {
	if m.IsWildcard() {
		return Wildcard
	}
	parts := make([]string, 0, len(m.filters))
	for _, f := range m.filters {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " AND ")
}
