package matching

import (
	"testing"

	"github.com/celements/wikibridge/reference"
)

func docRef(wiki, space, page string) reference.DocumentReference {
	return reference.Must(reference.NewDocumentReference(wiki, space, page))
}

func TestReferenceMatcher(t *testing.T) {
	home := docRef("xwiki", "Main", "WebHome")
	att := reference.Must(reference.NewAttachmentReference("logo.png", home))

	mainSpace := reference.Must(ParseFilter("xwiki:Main", reference.TypeSpace))
	pages := reference.Must(ParseFilter("regex:Web.*", reference.TypeDocument))

	tests := []struct {
		name    string
		matcher *ReferenceMatcher
		ref     reference.Reference
		matches bool
	}{
		{"no filters", NewReferenceMatcher(), home, true},
		{"nil matcher", nil, home, true},
		{"wildcard", NewReferenceMatcher(AnyFilter{}), home, true},
		{"wildcard needs a reference", NewReferenceMatcher(AnyFilter{}), nil, false},
		{"exact ancestor", NewReferenceMatcher(mainSpace), home, true},
		{"exact on descendant", NewReferenceMatcher(NewExactFilter(home)), att, true},
		{"exact nil reference", NewReferenceMatcher(NewExactFilter(nil)), home, false},
		{"exact zero document", NewReferenceMatcher(NewExactFilter(reference.DocumentReference{})), home, false},
		{"exact other space", NewReferenceMatcher(mainSpace), docRef("xwiki", "Sandbox", "WebHome"), false},
		{"exact other wiki", NewReferenceMatcher(mainSpace), docRef("dev", "Main", "WebHome"), false},
		{"all filters", NewReferenceMatcher(mainSpace, pages), home, true},
		{"one filter fails", NewReferenceMatcher(mainSpace, pages), docRef("xwiki", "Main", "Other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matcher.Matches(tt.ref); got != tt.matches {
				t.Errorf("Matches(%v) = %v, want %v", tt.ref, got, tt.matches)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	base := docRef("xwiki", "Main", "WebHome")

	f, err := ParseFilter("Other", reference.TypeDocument, base)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if f.String() != "xwiki:Main.Other" {
		t.Errorf("resolved filter = %s", f)
	}
	if _, err := ParseFilter("regex:(", reference.TypeDocument); err == nil {
		t.Error("expected invalid pattern error")
	}
	if !NewReferenceMatcher(AnyFilter{}).IsWildcard() || NewReferenceMatcher(f).IsWildcard() {
		t.Error("IsWildcard mismatch")
	}
}
