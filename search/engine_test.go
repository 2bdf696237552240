package search

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/celements/wikibridge/testutil"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/store"
)

type sliceProvider struct {
	docs []*types.Document
	err  error
}

func (p *sliceProvider) List(_ context.Context, opts types.ListOptions) ([]*types.Document, error) {
	if p.err != nil {
		return nil, p.err
	}
	return opts.Apply(p.docs), nil
}

func universeEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(&sliceProvider{docs: testutil.LoadUniverse(t).All})
}

func resultRefs(results []Result) []string {
	var out []string
	for _, r := range results {
		ref := r.Document.Reference.String()
		if r.Document.Language != "" {
			ref += "@" + r.Document.Language
		}
		out = append(out, ref)
	}
	return out
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name     string
		options  Options
		filter   types.ListOptions
		wantRefs []string
	}{
		{
			name:     "title and page name",
			options:  Options{Query: "post"},
			wantRefs: []string{"xwiki:Blog.FirstPost", "xwiki:Blog.SecondPost"},
		},
		{
			name:     "case insensitive ranks title first",
			options:  Options{Query: "home"},
			wantRefs: []string{"xwiki:Main.WebHome", "xwiki:Main.WebHome@de", "intranet:Main.WebHome"},
		},
		{
			name:    "case sensitive",
			options: Options{Query: "home", CaseSensitive: true},
		},
		{
			name:     "exact title",
			options:  Options{Query: "team", ExactMatch: true, Fields: []string{FieldTitle}},
			wantRefs: []string{"intranet:Team.Members"},
		},
		{
			name:     "object property",
			options:  Options{Query: "how", Fields: []string{"Blog.BlogPostClass.category"}},
			wantRefs: []string{"xwiki:Blog.SecondPost"},
		},
		{
			name:     "boolean property",
			options:  Options{Query: "true", ExactMatch: true, Fields: []string{"Blog.BlogPostClass.published"}},
			wantRefs: []string{"xwiki:Blog.FirstPost"},
		},
		{
			name:     "list property",
			options:  Options{Query: "intro", Fields: []string{"XWiki.TagClass.tags"}},
			wantRefs: []string{"xwiki:Blog.FirstPost"},
		},
		{
			name:     "max results",
			options:  Options{Query: "home", MaxResults: 1},
			wantRefs: []string{"xwiki:Main.WebHome"},
		},
		{
			name:     "filter by wiki",
			options:  Options{Query: "home"},
			filter:   types.ListOptions{Wiki: "intranet"},
			wantRefs: []string{"intranet:Main.WebHome"},
		},
		{
			name:    "no match",
			options: Options{Query: "nothing like this"},
		},
	}

	engine := universeEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(context.Background(), tt.options, tt.filter)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantRefs, resultRefs(results)); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchScoring(t *testing.T) {
	results, err := universeEngine(t).Search(context.Background(), Options{Query: "blog"}, types.ListOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.MatchType != MatchProperty || r.Score != 0.6 {
		t.Errorf("match = %s %.2f, want property 0.60", r.MatchType, r.Score)
	}
	if diff := cmp.Diff([]string{FieldContent, "XWiki.TagClass.tags"}, r.MatchedFields); diff != "" {
		t.Errorf("matched fields mismatch (-want +got):\n%s", diff)
	}
	if r.Highlights != nil {
		t.Errorf("highlights = %v, want none without Highlight", r.Highlights)
	}

	results, err = universeEngine(t).Search(context.Background(), Options{Query: "Home", Fields: []string{FieldTitle}}, types.ListOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].Score != 1.0 || results[0].MatchType != MatchPartialTitle {
		t.Errorf("full title match = %+v, want score 1 partial_title", results)
	}
}

func TestSearchHighlight(t *testing.T) {
	tests := []struct {
		name    string
		options Options
		want    string
	}{
		{
			name:    "default markers",
			options: Options{Query: "who", Highlight: true},
			want:    `**Who** is **who**. Special chars: a.b:c@d^e\f`,
		},
		{
			name:    "custom markers",
			options: Options{Query: "who", Highlight: true, HighlightStart: "[", HighlightEnd: "]"},
			want:    `[Who] is [who]. Special chars: a.b:c@d^e\f`,
		},
		{
			name:    "case sensitive",
			options: Options{Query: "who", Highlight: true, CaseSensitive: true},
			want:    `Who is **who**. Special chars: a.b:c@d^e\f`,
		},
	}

	engine := universeEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.options.Fields = []string{FieldContent}
			results, err := engine.Search(context.Background(), tt.options, types.ListOptions{})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("got %d results, want 1", len(results))
			}
			if got := results[0].Highlights[FieldContent]; got != tt.want {
				t.Errorf("highlight = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	results, err := universeEngine(t).Search(context.Background(), Options{}, types.ListOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Search() = %v, want empty non nil slice", results)
	}
}

func TestSearchProviderError(t *testing.T) {
	engine := NewEngine(&sliceProvider{err: errors.New("database error")})
	_, err := engine.Search(context.Background(), Options{Query: "x"}, types.ListOptions{})
	if err == nil || !strings.Contains(err.Error(), "failed to get documents") {
		t.Errorf("Search() error = %v, want document retrieval failure", err)
	}
}

func TestSearchStore(t *testing.T) {
	ctx := context.Background()
	backend, err := store.OpenJSON(filepath.Join(t.TempDir(), "wiki.json"))
	if err != nil {
		t.Fatalf("OpenJSON() error = %v", err)
	}
	st := store.New(backend)
	t.Cleanup(func() { _ = st.Close() })

	for _, doc := range testutil.LoadUniverse(t).All {
		if err := st.Save(ctx, doc); err != nil {
			t.Fatalf("Save(%s) error = %v", doc.Reference, err)
		}
	}

	results, err := NewEngine(st).Search(ctx, Options{Query: "willkommen"}, types.ListOptions{Wiki: "xwiki"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if diff := cmp.Diff([]string{"xwiki:Main.WebHome@de"}, resultRefs(results)); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if results[0].Document.ID == 0 {
		t.Error("stored document has no id")
	}
}
