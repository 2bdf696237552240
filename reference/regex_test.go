package reference

import (
	"errors"
	"testing"
)

func TestRegexEntityReference(t *testing.T) {
	page := Must(NewRegexEntityReference("p.*", TypeDocument, nil))

	if !page.Matches(docRef("wiki", "space", "page")) {
		t.Error("expected p.* to match wiki:space.page with unconstrained wiki and space")
	}
	if page.Matches(docRef("wiki", "space", "xpage")) {
		t.Error("patterns must match the full name")
	}
	if page.Matches(Must(NewWikiReference("page"))) {
		t.Error("a wiki has no document level")
	}

	att := Must(NewAttachmentReference("logo.png", docRef("wiki", "space", "page")))
	if !page.Matches(att) {
		t.Error("levels are matched against ancestors")
	}

	scoped := Must(NewRegexEntityReference("p.*", TypeDocument,
		Must(NewRegexEntityReference("Sand(box)?", TypeSpace, nil))))
	if !scoped.Matches(docRef("dev", "Sandbox", "page")) {
		t.Error("expected match in Sandbox")
	}
	if scoped.Matches(docRef("dev", "Main", "page")) {
		t.Error("space constraint ignored")
	}

	if _, err := NewRegexEntityReference("(", TypeDocument, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExactRegexReference(t *testing.T) {
	doc := docRef("wiki", "space", "a.b")
	exact := ExactRegexReference(doc)

	if !exact.Matches(doc) {
		t.Error("exact reference must match itself")
	}
	if exact.Matches(docRef("wiki", "space", "aXb")) {
		t.Error("names are quoted")
	}
	if exact.Type() != TypeDocument {
		t.Errorf("type = %s", exact.Type())
	}
}
