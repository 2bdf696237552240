package config

import (
	"github.com/celements/wikibridge/reference"
)

// Model context keys and their fallbacks.
const (
	KeyDefaultWiki     = "model.wiki.default"
	KeyDefaultSpace    = "model.space.default"
	KeyDefaultDocument = "model.document.default"

	DefaultWiki     = "xwiki"
	DefaultSpace    = "Main"
	DefaultDocument = "WebHome"
)

// ModelContext provides the default names used to complete partial
// references.
type ModelContext struct {
	source Source
}

var _ reference.Defaults = (*ModelContext)(nil)

func NewModelContext(src Source) *ModelContext {
	if src == nil {
		src = NewMemorySource(nil)
	}
	return &ModelContext{source: src}
}

func (m *ModelContext) Wiki() string     { return String(m.source, KeyDefaultWiki, DefaultWiki) }
func (m *ModelContext) Space() string    { return String(m.source, KeyDefaultSpace, DefaultSpace) }
func (m *ModelContext) Document() string { return String(m.source, KeyDefaultDocument, DefaultDocument) }

func (m *ModelContext) Default(t reference.EntityType) (string, bool) {
	switch t {
	case reference.TypeWiki:
		return m.Wiki(), true
	case reference.TypeSpace:
		return m.Space(), true
	case reference.TypeDocument:
		return m.Document(), true
	}
	return "", false
}

// WikiReference returns the reference of the default wiki.
func (m *ModelContext) WikiReference() (reference.WikiReference, error) {
	return reference.NewWikiReference(m.Wiki())
}
