package types

import (
	"testing"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/xwiki/ids"
	"github.com/google/go-cmp/cmp"
)

func docRef(wiki, space, page string) reference.DocumentReference {
	return reference.Must(reference.NewDocumentReference(wiki, space, page))
}

func TestAddAndRemoveObjects(t *testing.T) {
	doc := NewDocument(docRef("xwiki", "Main", "WebHome"), " de ")
	if doc.Language != "de" {
		t.Errorf("language = %q", doc.Language)
	}
	tagClass := docRef("xwiki", "XWiki", "TagClass")

	first, err := doc.AddObject(tagClass)
	if err != nil {
		t.Fatalf("AddObject: %v", err)
	}
	second, _ := doc.AddObject(tagClass)
	if first.Reference.Name() != "XWiki.TagClass[0]" || second.Reference.Name() != "XWiki.TagClass[1]" {
		t.Errorf("unexpected names %s, %s", first.Reference.Name(), second.Reference.Name())
	}

	first.ID, second.ID = 11, 12
	if !doc.RemoveObject(second.Reference) {
		t.Fatal("RemoveObject returned false")
	}
	// removed objects keep their number and id reserved
	third, _ := doc.AddObject(tagClass)
	if third.Reference.Name() != "XWiki.TagClass[2]" {
		t.Errorf("third object = %s", third.Reference.Name())
	}
	if diff := cmp.Diff([]int64{11, 12}, doc.ExistingObjectIDs()); diff != "" {
		t.Errorf("existing ids (-want +got):\n%s", diff)
	}
	if _, ok := doc.Object(second.Reference); ok {
		t.Error("removed object is still listed")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	doc := NewDocument(docRef("xwiki", "Main", "WebHome"), "")
	doc.ID = 42
	doc.IDVersion = ids.Celements3
	doc.Title = "Home"
	obj, _ := doc.AddObject(docRef("xwiki", "XWiki", "TagClass"))
	obj.ID = 43
	obj.Properties["tags"] = "a,b"

	back, err := doc.Record().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !back.Reference.Equal(doc.Reference) || back.ID != 42 || back.IDVersion != ids.Celements3 {
		t.Errorf("unexpected document %+v", back.Record())
	}
	if diff := cmp.Diff(doc.Record(), back.Record()); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestListOptions(t *testing.T) {
	docs := []*Document{
		NewDocument(docRef("b", "Main", "A"), ""),
		NewDocument(docRef("a", "Sandbox", "B"), ""),
		NewDocument(docRef("a", "Main", "C"), ""),
		NewDocument(docRef("a", "Main", "C"), "de"),
	}
	SortDocuments(docs)

	var got []string
	for _, d := range docs {
		got = append(got, d.Reference.String()+"/"+d.Language)
	}
	expected := []string{"a:Main.C/", "a:Main.C/de", "a:Sandbox.B/", "b:Main.A/"}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}

	one, zero := 1, 0
	filtered := ListOptions{Wiki: "a", Space: "Main", Offset: &one}.Apply(docs)
	if len(filtered) != 1 || filtered[0].Language != "de" {
		t.Errorf("unexpected filter result %v", filtered)
	}
	if len(ListOptions{Limit: &zero}.Apply(docs)) != 0 {
		t.Error("limit 0 should return nothing")
	}
}
