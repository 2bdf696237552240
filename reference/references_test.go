package reference

import (
	"errors"
	"testing"
)

func TestCompleteRef(t *testing.T) {
	doc := docRef("wiki", "space", "page")

	t.Run("round trip yields equal copy", func(t *testing.T) {
		got, ok, err := CompleteRef[DocumentReference](doc)
		if err != nil || !ok {
			t.Fatalf("CompleteRef = %v, %v", ok, err)
		}
		if !got.Equal(doc) {
			t.Errorf("got %s, want %s", got, doc)
		}
		if got.EntityReference == doc.EntityReference {
			t.Error("expected a new reference, got the same node")
		}
	})

	t.Run("relative parts are completed", func(t *testing.T) {
		page := Must(NewEntityReference("other", TypeDocument, nil))
		got, ok, err := CompleteRef[DocumentReference](page, doc.SpaceReference())
		if err != nil || !ok {
			t.Fatalf("CompleteRef = %v, %v", ok, err)
		}
		if got.String() != "wiki:space.other" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("incomplete input is absent", func(t *testing.T) {
		page := Must(NewEntityReference("other", TypeDocument, nil))
		_, ok, err := CompleteRef[DocumentReference](page)
		if err != nil || ok {
			t.Errorf("CompleteRef = %v, %v; want absent", ok, err)
		}
	})

	t.Run("generic base is an error", func(t *testing.T) {
		_, _, err := CompleteRef[*EntityReference](doc)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCombineRef(t *testing.T) {
	t.Run("empty inputs are absent", func(t *testing.T) {
		var nilRefs []Reference
		cases := map[string]func() (*EntityReference, bool){
			"no arguments":  func() (*EntityReference, bool) { return CombineRef() },
			"nil slice":     func() (*EntityReference, bool) { return CombineRef(nilRefs...) },
			"nil elements":  func() (*EntityReference, bool) { return CombineRef(nil, (*EntityReference)(nil), DocumentReference{}) },
			"typed no args": func() (*EntityReference, bool) { return CombineRefOf(TypeDocument) },
		}
		for name, fn := range cases {
			t.Run(name, func(t *testing.T) {
				if got, ok := fn(); ok || got != nil {
					t.Errorf("got %v, %v; want absent", got, ok)
				}
			})
		}
	})

	w1 := docRef("w1", "s1", "a")
	w2 := Must(NewWikiReference("w2"))

	t.Run("first reference wins per level", func(t *testing.T) {
		got, ok := CombineRef(w1, w2)
		if !ok || got.String() != "w1:s1.a" {
			t.Errorf("got %v, %v", got, ok)
		}
		got, ok = CombineRefOf(TypeDocument, w2, w1)
		if !ok || got.String() != "w2:s1.a" {
			t.Errorf("got %v, %v", got, ok)
		}
	})

	t.Run("result may be relative", func(t *testing.T) {
		page := Must(NewEntityReference("page", TypeDocument, nil))
		space := Must(NewEntityReference("space", TypeSpace, nil))
		got, ok := CombineRef(page, space)
		if !ok {
			t.Fatal("expected a combined reference")
		}
		if IsAbsoluteRef(got) || got.String() != "space.page" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("missing target level is absent", func(t *testing.T) {
		if got, ok := CombineRefOf(TypeAttachment, w1); ok {
			t.Errorf("got %s", got)
		}
	})

	t.Run("typed combination", func(t *testing.T) {
		space, ok := CombineRefAs[SpaceReference](w1)
		if !ok || space.String() != "w1:s1" {
			t.Errorf("got %v, %v", space, ok)
		}
	})
}

func TestAdjustRef(t *testing.T) {
	doc := docRef("w1", "space", "page")

	tests := []struct {
		name     string
		to       Reference
		expected string
	}{
		{"higher level wiki is spliced", Must(NewWikiReference("w2")), "w2:space.page"},
		{"higher level space is spliced", Must(NewSpaceReference("other", Must(NewWikiReference("w2")))), "w2:other.page"},
		{"same level replaces", docRef("w3", "x", "y"), "w3:x.y"},
		{"lower level contributes its ancestor", Must(NewAttachmentReference("f.txt", docRef("w4", "a", "b"))), "w4:a.b"},
		{"nil leaves reference unchanged", nil, "w1:space.page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustRef(doc, tt.to)
			if err != nil {
				t.Fatalf("AdjustRef: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}

	t.Run("relative reference gets grafted", func(t *testing.T) {
		space := Must(NewEntityReference("space", TypeSpace, nil))
		page := Must(NewEntityReference("page", TypeDocument, space))
		got, err := AdjustRef(page, Must(NewWikiReference("w2")))
		if err != nil {
			t.Fatalf("AdjustRef: %v", err)
		}
		if !IsAbsoluteRef(got) || got.String() != "w2:space.page" {
			t.Errorf("got %s", got)
		}
	})
}

func TestAsCompleteRef(t *testing.T) {
	doc := docRef("wiki", "space", "page")

	if got, err := AsCompleteRef[DocumentReference](doc.Entity()); err != nil || !got.Equal(doc) {
		t.Errorf("AsCompleteRef = %v, %v", got, err)
	}
	if _, err := AsCompleteRef[SpaceReference](doc); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("wrong type: expected ErrInvalidArgument, got %v", err)
	}
	relative := Must(NewEntityReference("page", TypeDocument, nil))
	if _, err := AsCompleteRef[DocumentReference](relative); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("relative: expected ErrInvalidArgument, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	doc := docRef("wiki", "space", "page")
	att := Must(NewAttachmentReference("logo.png", doc))

	space, ok := Extract[SpaceReference](att)
	if !ok || !space.Equal(doc.SpaceReference()) {
		t.Errorf("Extract[SpaceReference] = %v, %v", space, ok)
	}
	if _, ok := Extract[ObjectReference](att); ok {
		t.Error("an attachment has no object")
	}
	generic, ok := Extract[*EntityReference](att)
	if !ok || generic != att.EntityReference {
		t.Errorf("Extract[*EntityReference] = %v, %v", generic, ok)
	}
}

func TestCloneAndTyped(t *testing.T) {
	doc := docRef("wiki", "space", "page")
	c, err := CloneRefAs(doc)
	if err != nil {
		t.Fatalf("CloneRefAs: %v", err)
	}
	if !c.Equal(doc) || c.Parent() == doc.Parent() {
		t.Errorf("clone must be deep and equal: %s", c)
	}

	if _, ok := Typed(doc.Entity()).(DocumentReference); !ok {
		t.Error("absolute documents are typed")
	}
	relative := Must(NewEntityReference("page", TypeDocument, nil))
	if _, ok := Typed(relative).(*EntityReference); !ok {
		t.Error("relative references stay generic")
	}
}
