// Package formats converts wiki documents to and from single text files.
//
// Every format writes an optional metadata header, the document title and
// the document content. The header carries fields such as the document
// reference and language so that an exported file can be imported back
// without naming its target.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownFormat is returned when no format has the requested name or extension.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrEmptyDocument is returned when a file has neither a title nor content.
	ErrEmptyDocument = errors.New("empty document: both title and content are empty")
)

// Metadata holds the header fields of a serialized document.
type Metadata map[string]string

// Well known metadata keys.
const (
	MetaReference = "reference"
	MetaLanguage  = "language"
)

// Format defines how a document title and content are written to text and
// read back.
type Format struct {
	// Name is the format identifier (lowercase alphanumeric, dashes and underscores)
	Name string

	// Extension is the file extension including the dot (e.g. ".md")
	Extension string

	Serialize func(title, content string, meta Metadata) string

	// Deserialize returns an empty title if none is found and
	// ErrEmptyDocument if both title and content are empty
	Deserialize func(text string) (title, content string, meta Metadata, err error)
}

// Registry is a set of formats addressable by name and extension. It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]*Format
}

// NewRegistry creates a registry holding formats.
func NewRegistry(formats ...*Format) (*Registry, error) {
	r := &Registry{formats: map[string]*Format{}}
	for _, f := range formats {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default holds the built in formats.
var Default = mustRegistry(Markdown, PlainText, XWiki)

func mustRegistry(formats ...*Format) *Registry {
	r, err := NewRegistry(formats...)
	if err != nil {
		panic(fmt.Sprintf("failed to register formats: %v", err))
	}
	return r
}

// Register adds a format. Names and extensions must be unique.
func (r *Registry) Register(f *Format) error {
	if !isValidFormatName(f.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", f.Name)
	}
	if f.Serialize == nil || f.Deserialize == nil {
		return fmt.Errorf("format %q must define both Serialize and Deserialize", f.Name)
	}
	if !strings.HasPrefix(f.Extension, ".") {
		f.Extension = "." + f.Extension
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formats[f.Name]; exists {
		return fmt.Errorf("format %q already registered", f.Name)
	}
	for _, other := range r.formats {
		if other.Extension == f.Extension {
			return fmt.Errorf("extension %q already used by format %q", f.Extension, other.Name)
		}
	}
	r.formats[f.Name] = f
	return nil
}

// Get returns the format registered under name.
func (r *Registry) Get(name string) (*Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// ForFile returns the format whose extension matches path.
func (r *Registry) ForFile(path string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f.Extension == ext {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w for file %q", ErrUnknownFormat, path)
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
