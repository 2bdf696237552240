// Package storage defines the on-disk format of the JSON document backend and
// the lock discipline shared by the store backends.
package storage

import (
	"slices"
	"time"

	"github.com/celements/wikibridge/types"
)

// FormatVersion is written into the metadata of every data file.
const FormatVersion = "2.0"

// StoreData represents the complete data structure stored in the backend
type StoreData struct {
	Documents []types.DocumentRecord `json:"documents"`
	Metadata  Metadata               `json:"metadata"`
}

// Metadata contains storage metadata
type Metadata struct {
	Version   string    `json:"version"`
	IDVersion string    `json:"id_version,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStoreData returns an empty data set created at now.
func NewStoreData(now time.Time) *StoreData {
	return &StoreData{
		Documents: []types.DocumentRecord{},
		Metadata: Metadata{
			Version:   FormatVersion,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Find returns the index of the record with the given reference and language.
func (d *StoreData) Find(ref, lang string) int {
	return slices.IndexFunc(d.Documents, func(r types.DocumentRecord) bool {
		return r.Reference == ref && r.Language == lang
	})
}

// FindByID returns the index of the record with the given document id.
func (d *StoreData) FindByID(id int64) int {
	return slices.IndexFunc(d.Documents, func(r types.DocumentRecord) bool {
		return r.ID == id
	})
}

// Upsert replaces the record with the same reference and language or appends it.
func (d *StoreData) Upsert(rec types.DocumentRecord) {
	if i := d.Find(rec.Reference, rec.Language); i >= 0 {
		d.Documents[i] = rec
		return
	}
	d.Documents = append(d.Documents, rec)
}

// Remove deletes the record with the given reference and language.
func (d *StoreData) Remove(ref, lang string) bool {
	i := d.Find(ref, lang)
	if i < 0 {
		return false
	}
	d.Documents = slices.Delete(d.Documents, i, i+1)
	return true
}
