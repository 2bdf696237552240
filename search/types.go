// Package search finds stored wiki documents by substring matches on their
// title, content, page name and object properties.
package search

import (
	"context"

	"github.com/celements/wikibridge/types"
)

// Field names accepted in Options.Fields. Object properties are addressed
// as "<class>.<property>", e.g. "XWiki.TagClass.tags".
const (
	FieldTitle   = "title"
	FieldContent = "content"
	FieldName    = "name"
)

// Options configures search behavior
type Options struct {
	// Query is the text to look for
	Query string

	// Fields restricts the searched fields; empty searches all of them
	Fields []string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire field to match the query
	// When false, performs substring matching
	ExactMatch bool

	// Highlight fills Result.Highlights with the matched text wrapped in
	// HighlightStart and HighlightEnd ("**" when empty)
	Highlight      bool
	HighlightStart string
	HighlightEnd   string

	// MaxResults limits the number of results; zero or negative means no limit
	MaxResults int
}

// Result is a matched document with its relevance.
type Result struct {
	Document *types.Document

	// Score is the best field score, between 0 and 1
	Score float64

	// MatchType describes the best scoring match
	MatchType MatchType

	// MatchedFields lists the fields that matched, in search order
	MatchedFields []string

	// Highlights maps matched field names to highlighted text
	Highlights map[string]string
}

// MatchType indicates where the best match was found
type MatchType string

const (
	MatchExactTitle     MatchType = "exact_title"
	MatchPartialTitle   MatchType = "partial_title"
	MatchExactContent   MatchType = "exact_content"
	MatchPartialContent MatchType = "partial_content"
	MatchName           MatchType = "name"
	MatchProperty       MatchType = "property"
)

// DocumentProvider lists the documents to search. *store.Store satisfies it.
type DocumentProvider interface {
	List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error)
}
