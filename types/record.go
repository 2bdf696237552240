package types

import (
	"fmt"
	"maps"
	"time"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/xwiki/ids"
)

// DocumentRecord is the serialized form of a Document used by the store
// backends and the CLI output.
type DocumentRecord struct {
	Reference string         `json:"reference" yaml:"reference"`
	Language  string         `json:"language,omitempty" yaml:"language,omitempty"`
	ID        int64          `json:"id" yaml:"id"`
	IDVersion string         `json:"id_version,omitempty" yaml:"id_version,omitempty"`
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	Content   string         `json:"content,omitempty" yaml:"content,omitempty"`
	Objects   []ObjectRecord `json:"objects,omitempty" yaml:"objects,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// ObjectRecord is the serialized form of an Object. Name is the object name
// relative to its document, e.g. "XWiki.TagClass[0]".
type ObjectRecord struct {
	Name       string         `json:"name" yaml:"name"`
	ID         int64          `json:"id" yaml:"id"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Record converts d to its serialized form. Removed objects are not part of it.
func (d *Document) Record() DocumentRecord {
	r := DocumentRecord{
		Reference: d.Reference.String(),
		Language:  d.Language,
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.IDVersion != 0 {
		r.IDVersion = d.IDVersion.String()
	}
	for _, o := range d.Objects {
		r.Objects = append(r.Objects, ObjectRecord{
			Name:       o.Reference.Name(),
			ID:         o.ID,
			Properties: maps.Clone(o.Properties),
		})
	}
	return r
}

// Document converts the record back, resolving its references.
func (r DocumentRecord) Document() (*Document, error) {
	ref, err := reference.ResolveDocument(r.Reference)
	if err != nil {
		return nil, fmt.Errorf("invalid document reference %q: %w", r.Reference, err)
	}
	d := &Document{
		Reference: ref,
		Language:  r.Language,
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.IDVersion != "" {
		if d.IDVersion, err = ids.ParseIDVersion(r.IDVersion); err != nil {
			return nil, err
		}
	}
	for _, or := range r.Objects {
		objRef, err := reference.NewObjectReferenceNamed(or.Name, ref)
		if err != nil {
			return nil, fmt.Errorf("invalid object %q on %s: %w", or.Name, r.Reference, err)
		}
		props := maps.Clone(or.Properties)
		if props == nil {
			props = map[string]any{}
		}
		d.Objects = append(d.Objects, &Object{Reference: objRef, ID: or.ID, Properties: props})
	}
	return d, nil
}
