package reference

import (
	"errors"
	"testing"
)

func TestRefBuilder(t *testing.T) {
	t.Run("build document", func(t *testing.T) {
		doc, err := BuildRef[DocumentReference](NewRefBuilder().Wiki("w").Space("s").Doc("p"))
		if err != nil {
			t.Fatalf("BuildRef: %v", err)
		}
		if doc.String() != "w:s.p" {
			t.Errorf("got %s", doc)
		}
	})

	t.Run("last value wins", func(t *testing.T) {
		b := RefBuilderFrom(docRef("a", "s", "p")).Wiki("b")
		ref, err := b.Build(TypeDocument)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if ref.String() != "b:s.p" {
			t.Errorf("got %s", ref)
		}
	})

	t.Run("defaults fill missing levels", func(t *testing.T) {
		b := NewRefBuilder().Doc("p").Defaults(StaticDefaults{TypeWiki: "xwiki", TypeSpace: "Main"})
		ref, err := b.Build(TypeDocument)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if ref.String() != "xwiki:Main.p" {
			t.Errorf("got %s", ref)
		}
	})

	t.Run("missing level", func(t *testing.T) {
		_, err := NewRefBuilder().Wiki("w").Doc("p").Build(TypeDocument)
		if !errors.Is(err, ErrIllegalState) {
			t.Errorf("expected ErrIllegalState, got %v", err)
		}
	})

	t.Run("relative build stops at first gap", func(t *testing.T) {
		b := NewRefBuilder().Wiki("w").Doc("p").Space("s").Space("")
		ref, err := b.BuildRelative(TypeDocument)
		if err != nil {
			t.Fatalf("BuildRelative: %v", err)
		}
		if ref.String() != "p" || ref.Parent() != nil {
			t.Errorf("got %s", ref)
		}
		if b.Depth() != 2 {
			t.Errorf("Depth = %d", b.Depth())
		}
		if _, err := b.BuildRelative(TypeAttachment); !errors.Is(err, ErrIllegalState) {
			t.Errorf("expected ErrIllegalState, got %v", err)
		}
	})

	t.Run("object with parameters", func(t *testing.T) {
		b := RefBuilderFrom(docRef("w", "s", "p")).
			Object("XWiki.TagClass[1]").
			WithParameter(TypeDocument, LocaleParameter, "fr")
		obj, err := BuildRef[ObjectReference](b)
		if err != nil {
			t.Fatalf("BuildRef: %v", err)
		}
		if obj.String() != "w:s.p^XWiki.TagClass[1]" {
			t.Errorf("got %s", obj)
		}
		if obj.DocumentReference().Locale() != "fr" {
			t.Errorf("locale = %q", obj.DocumentReference().Locale())
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		b := NewRefBuilder().Wiki("w").Space("s")
		c := b.Clone().Space("other")
		ref := Must(b.Build(TypeSpace))
		if ref.Name() != "s" {
			t.Errorf("original builder changed: %s", ref)
		}
		if Must(c.Build(TypeSpace)).Name() != "other" {
			t.Error("clone did not keep its own value")
		}
	})

	t.Run("generic target", func(t *testing.T) {
		if _, err := BuildRef[*EntityReference](NewRefBuilder().Wiki("w")); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
