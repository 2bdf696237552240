// Package wiki answers which wikis and spaces exist in a store.
//
// The answers are computed from a full document listing and cached until an
// event that can change them invalidates the cache.
package wiki

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/celements/wikibridge/internal/cache"
	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/config"
	"github.com/celements/wikibridge/xwiki/observation"
)

// ListenerName is the name of the listener returned by Service.Listener.
const ListenerName = "wiki-service-cache"

// Lister lists stored documents. Both store.Store and store.Backend
// satisfy it.
type Lister interface {
	List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithModelContext sets where the main wiki name comes from.
func WithModelContext(mc *config.ModelContext) Option {
	return func(s *Service) {
		s.model = mc
	}
}

// index maps wiki names to their sorted space names.
type index map[string][]string

// Service lists wikis and spaces. The main wiki always exists, and wikis
// announced by a WikiCreatedEvent exist before they hold any document.
type Service struct {
	lister Lister
	model  *config.ModelContext
	logger *slog.Logger
	cache  cache.Slot[index]

	mu       sync.RWMutex
	declared map[string]bool
}

func NewService(lister Lister, opts ...Option) *Service {
	s := &Service{lister: lister, declared: map[string]bool{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.model == nil {
		s.model = config.NewModelContext(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("logger", "wiki")
	return s
}

// MainWiki returns the name of the main wiki.
func (s *Service) MainWiki() string {
	return s.model.Wiki()
}

func (s *Service) index(ctx context.Context) (index, error) {
	return s.cache.Get(func() (index, error) {
		docs, err := s.lister.List(ctx, types.ListOptions{})
		if err != nil {
			s.logger.Error("failed to compute wiki index", "error", err)
			return nil, err
		}
		spaces := map[string]map[string]bool{}
		for _, d := range docs {
			wiki := d.Reference.WikiReference().Name()
			if spaces[wiki] == nil {
				spaces[wiki] = map[string]bool{}
			}
			spaces[wiki][d.Reference.SpaceReference().Name()] = true
		}
		idx := index{}
		for wiki, set := range spaces {
			idx[wiki] = slices.Sorted(maps.Keys(set))
		}
		s.logger.Debug("wiki index computed", "wikis", len(idx), "documents", len(docs))
		return idx, nil
	})
}

// Wikis returns the sorted names of all wikis.
func (s *Service) Wikis(ctx context.Context) ([]string, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	names := map[string]bool{s.MainWiki(): true}
	for wiki := range idx {
		names[wiki] = true
	}
	s.mu.RLock()
	for wiki := range s.declared {
		names[wiki] = true
	}
	s.mu.RUnlock()
	return slices.Sorted(maps.Keys(names)), nil
}

// HasWiki reports whether the wiki exists.
func (s *Service) HasWiki(ctx context.Context, wiki reference.WikiReference) (bool, error) {
	wikis, err := s.Wikis(ctx)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(wikis, wiki.Name())
	return found, nil
}

// Spaces returns the spaces holding documents in wiki.
func (s *Service) Spaces(ctx context.Context, wiki reference.WikiReference) ([]reference.SpaceReference, error) {
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	var refs []reference.SpaceReference
	for _, name := range idx[wiki.Name()] {
		ref, err := reference.NewSpaceReference(name, wiki)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Invalidate drops the cached index.
func (s *Service) Invalidate() {
	s.cache.Invalidate()
}

// Listener returns the listener keeping the service up to date. Updates do
// not move documents, so only creations and deletions are listened to.
func (s *Service) Listener() observation.Listener {
	return observation.NewListener(ListenerName, s.onEvent,
		observation.OnDocumentCreated(nil),
		observation.OnDocumentDeleted(nil),
		observation.WikiCreatedEvent{},
		observation.WikiDeletedEvent{},
	)
}

func (s *Service) onEvent(event observation.Event, _, _ any) {
	switch e := event.(type) {
	case observation.WikiCreatedEvent:
		s.mu.Lock()
		s.declared[e.WikiID] = true
		s.mu.Unlock()
	case observation.WikiDeletedEvent:
		s.mu.Lock()
		delete(s.declared, e.WikiID)
		s.mu.Unlock()
	}
	s.Invalidate()
}
