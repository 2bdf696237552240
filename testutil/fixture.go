// Package testutil holds reference helpers and a fixed document universe
// shared by the tests of the store backends and services.
package testutil

import (
	_ "embed"
	"encoding/json"
	"testing"
	"time"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
)

//go:embed testdata/universe.json
var universeJSON []byte

// FixtureTime is the creation and update time of every universe document.
var FixtureTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// UniverseData provides typed access to the fixture documents
type UniverseData struct {
	// xwiki wiki
	Home       *types.Document // xwiki:Main.WebHome
	HomeDE     *types.Document // xwiki:Main.WebHome, language de
	FirstPost  *types.Document // xwiki:Blog.FirstPost, two objects
	SecondPost *types.Document // xwiki:Blog.SecondPost, one object
	TagClass   *types.Document // xwiki:XWiki.TagClass

	// intranet wiki
	IntranetHome *types.Document // intranet:Main.WebHome
	Members      *types.Document // intranet:Team.Members, escaped characters in content
	Overview     *types.Document // intranet:Team.Übersicht, non ASCII page name

	// All documents in fixture order
	All []*types.Document
}

type fixtureData struct {
	Documents []types.DocumentRecord `json:"documents"`
}

// LoadUniverse parses the fixture. Documents are new: they carry no ids.
func LoadUniverse(t testing.TB) *UniverseData {
	t.Helper()

	var fixture fixtureData
	if err := json.Unmarshal(universeJSON, &fixture); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	u := &UniverseData{}
	for _, rec := range fixture.Documents {
		rec.CreatedAt, rec.UpdatedAt = FixtureTime, FixtureTime
		doc, err := rec.Document()
		if err != nil {
			t.Fatalf("failed to load fixture document %s: %v", rec.Reference, err)
		}
		u.All = append(u.All, doc)
	}

	u.Home, u.HomeDE, u.FirstPost, u.SecondPost, u.TagClass = u.All[0], u.All[1], u.All[2], u.All[3], u.All[4]
	u.IntranetHome, u.Members, u.Overview = u.All[5], u.All[6], u.All[7]
	return u
}

// DocRef resolves an absolute document reference string such as "wiki:Space.Page".
func DocRef(t testing.TB, s string) reference.DocumentReference {
	t.Helper()
	ref, err := reference.ResolveDocument(s)
	if err != nil {
		t.Fatalf("invalid document reference %q: %v", s, err)
	}
	return ref
}

// SpaceRef builds the space reference wiki:space.
func SpaceRef(t testing.TB, wiki, space string) reference.SpaceReference {
	t.Helper()
	ref, err := reference.NewSpaceReference(space, WikiRef(t, wiki))
	if err != nil {
		t.Fatalf("invalid space reference %s:%s: %v", wiki, space, err)
	}
	return ref
}

// WikiRef builds a wiki reference.
func WikiRef(t testing.TB, wiki string) reference.WikiReference {
	t.Helper()
	ref, err := reference.NewWikiReference(wiki)
	if err != nil {
		t.Fatalf("invalid wiki reference %q: %v", wiki, err)
	}
	return ref
}

// NewDocument returns a new document for the reference string s.
func NewDocument(t testing.TB, s, lang string) *types.Document {
	t.Helper()
	doc := types.NewDocument(DocRef(t, s), lang)
	doc.CreatedAt, doc.UpdatedAt = FixtureTime, FixtureTime
	return doc
}
