package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/celements/wikibridge/types"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine searches the documents of a provider.
type Engine struct {
	provider DocumentProvider
	logger   *slog.Logger
}

// NewEngine creates a search engine over provider.
func NewEngine(provider DocumentProvider, opts ...Option) *Engine {
	e := &Engine{provider: provider}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("logger", "search")
	return e
}

// Search returns the documents selected by filter that match options,
// highest score first. Equal scores keep the provider order.
func (e *Engine) Search(ctx context.Context, options Options, filter types.ListOptions) ([]Result, error) {
	if options.Query == "" {
		return []Result{}, nil
	}

	documents, err := e.provider.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	results := []Result{}
	for _, doc := range documents {
		if result := e.searchDocument(doc, options); result != nil {
			results = append(results, *result)
		}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	if options.MaxResults > 0 && len(results) > options.MaxResults {
		results = results[:options.MaxResults]
	}
	e.logger.Debug("search completed", "query", options.Query, "documents", len(documents), "results", len(results))
	return results, nil
}

type field struct {
	name  string
	value string
	kind  MatchType // partial match type of the field
}

// fields returns the searchable fields of doc in search order.
func fields(doc *types.Document) []field {
	out := []field{
		{FieldTitle, doc.Title, MatchPartialTitle},
		{FieldContent, doc.Content, MatchPartialContent},
		{FieldName, doc.Reference.Name(), MatchName},
	}
	for _, o := range doc.Objects {
		class := o.Reference.ClassName()
		keys := make([]string, 0, len(o.Properties))
		for k := range o.Properties {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out = append(out, field{class + "." + k, propertyText(o.Properties[k]), MatchProperty})
		}
	}
	return out
}

func propertyText(v any) string {
	if list, ok := v.([]any); ok {
		return strings.Join(cast.ToStringSlice(list), ", ")
	}
	return cast.ToString(v)
}

func (e *Engine) searchDocument(doc *types.Document, options Options) *Result {
	var result *Result
	for _, f := range fields(doc) {
		if len(options.Fields) > 0 && !slices.Contains(options.Fields, f.name) {
			continue
		}
		score, matchType, ok := matchField(f, options)
		if !ok {
			continue
		}
		if result == nil {
			result = &Result{Document: doc}
		}
		if score > result.Score {
			result.Score, result.MatchType = score, matchType
		}
		result.MatchedFields = append(result.MatchedFields, f.name)
		if options.Highlight {
			if result.Highlights == nil {
				result.Highlights = map[string]string{}
			}
			result.Highlights[f.name] = highlight(f.value, options)
		}
	}
	return result
}

func fold(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// matchField reports whether f matches and scores the match.
func matchField(f field, options Options) (float64, MatchType, bool) {
	text := fold(f.value, options.CaseSensitive)
	query := fold(options.Query, options.CaseSensitive)

	if options.ExactMatch {
		if text != query {
			return 0, "", false
		}
		switch f.kind {
		case MatchPartialTitle:
			return 1, MatchExactTitle, true
		case MatchPartialContent:
			return 1, MatchExactContent, true
		}
		return 1, f.kind, true
	}
	if !strings.Contains(text, query) {
		return 0, "", false
	}
	return calculateScore(text, query, f.kind), f.kind, true
}

// calculateScore weighs title matches above names, names above properties
// and properties above content. Prefix matches and matches covering most
// of the field score higher. Points are hundredths of the score.
func calculateScore(text, query string, kind MatchType) float64 {
	points := 50
	switch kind {
	case MatchPartialTitle:
		points = 70
	case MatchName:
		points = 65
	case MatchProperty:
		points = 60
	}
	if strings.HasPrefix(text, query) {
		points += 20
	}
	if 2*len(query) > len(text) {
		points += 10
	}
	return float64(min(points, 100)) / 100
}

// highlight wraps every non overlapping match of the query in text.
func highlight(text string, options Options) string {
	start, end := options.HighlightStart, options.HighlightEnd
	if start == "" {
		start = "**"
	}
	if end == "" {
		end = "**"
	}
	if options.ExactMatch {
		return start + text + end
	}

	searchText := fold(text, options.CaseSensitive)
	query := fold(options.Query, options.CaseSensitive)
	if len(searchText) != len(text) {
		// lower casing changed byte lengths; offsets would not line up
		return text
	}

	var b strings.Builder
	last := 0
	for {
		i := strings.Index(searchText[last:], query)
		if i < 0 {
			break
		}
		i += last
		b.WriteString(text[last:i])
		b.WriteString(start)
		b.WriteString(text[i : i+len(query)])
		b.WriteString(end)
		last = i + len(query)
	}
	b.WriteString(text[last:])
	return b.String()
}
