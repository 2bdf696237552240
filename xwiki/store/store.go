package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/celements/wikibridge/internal/validation"
	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/ids"
	"github.com/celements/wikibridge/xwiki/observation"
	"github.com/celements/wikibridge/xwiki/storage"
)

// Option configures a Store.
type Option func(*Store)

// WithComputer replaces the default UniqueHashComputer.
func WithComputer(c ids.Computer) Option {
	return func(s *Store) {
		s.computer = c
	}
}

// WithObservation makes the store fire document events on m.
func WithObservation(m *observation.Manager) Option {
	return func(s *Store) {
		s.observation = m
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTimeFunc sets a custom time function for testing
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *Store) {
		s.timeFunc = fn
	}
}

// Store saves, loads and deletes documents through a Backend.
type Store struct {
	backend     Backend
	computer    ids.Computer
	observation *observation.Manager
	lockManager *storage.LockManager
	logger      *slog.Logger
	timeFunc    func() time.Time
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		lockManager: storage.NewLockManager(),
		timeFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.computer == nil {
		s.computer = ids.NewUniqueHashComputer()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("logger", "store")
	return s
}

// Backend returns the backend of the store.
func (s *Store) Backend() Backend {
	return s.backend
}

// Save validates doc, assigns missing ids and persists it. It fires a
// DocumentCreatedEvent for documents not stored before, a
// DocumentUpdatedEvent otherwise.
func (s *Store) Save(ctx context.Context, doc *types.Document) error {
	var created bool
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		var err error
		created, err = s.save(ctx, doc)
		return err
	})
	if err != nil {
		if doc == nil {
			return &SaveError{Document: "<nil>", Err: err}
		}
		return &SaveError{Document: doc.Reference.String(), Language: doc.Language, Err: err}
	}
	if created {
		s.notify(observation.NewDocumentCreatedEvent(doc.Reference), doc)
	} else {
		s.notify(observation.NewDocumentUpdatedEvent(doc.Reference), doc)
	}
	return nil
}

func (s *Store) save(ctx context.Context, doc *types.Document) (created bool, err error) {
	if err := validation.Validate(doc); err != nil {
		return false, err
	}

	// a failed save leaves the document as it was handed in
	id, idVersion := doc.ID, doc.IDVersion
	createdAt, updatedAt := doc.CreatedAt, doc.UpdatedAt
	var unsaved []*types.Object
	for _, obj := range doc.Objects {
		if obj.ID == 0 {
			unsaved = append(unsaved, obj)
		}
	}
	defer func() {
		if err == nil {
			return
		}
		doc.ID, doc.IDVersion = id, idVersion
		doc.CreatedAt, doc.UpdatedAt = createdAt, updatedAt
		for _, obj := range unsaved {
			obj.ID = 0
		}
	}()

	existing, err := s.backend.FindDocument(ctx, doc.Reference, doc.Language)
	switch {
	case err == nil:
		doc.ID, doc.IDVersion = existing.ID, existing.IDVersion
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = existing.CreatedAt
		}
		keepObjectIDs(doc, existing)
	case errors.Is(err, ErrNotFound):
		created = true
		if err := s.assignDocumentID(ctx, doc); err != nil {
			return false, err
		}
	default:
		return false, err
	}

	for _, obj := range doc.Objects {
		if obj.ID != 0 {
			continue
		}
		if obj.ID, err = s.computer.ComputeNextObjectID(doc); err != nil {
			return false, err
		}
	}

	now := s.timeFunc()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.backend.Put(ctx, doc); err != nil {
		return false, err
	}
	doc.RemovedObjects = nil
	return created, nil
}

// assignDocumentID takes the first id of the document that is free or
// already its own, counting collisions from zero.
func (s *Store) assignDocumentID(ctx context.Context, doc *types.Document) error {
	it, err := s.computer.DocumentIDIterator(doc.Reference, doc.Language, 0)
	if err != nil {
		return err
	}
	for collisionCount, id := range it.All() {
		other, err := s.backend.DocumentByID(ctx, id)
		if errors.Is(err, ErrNotFound) || (err == nil && other.Key() == doc.Key()) {
			doc.ID, doc.IDVersion = id, s.computer.IDVersion()
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Warn("document id collision",
			"document", doc.Reference.String(), "language", doc.Language,
			"id", id, "collision_count", collisionCount, "taken_by", other.Reference.String())
	}
	return fmt.Errorf("%w: all ids of %s are taken", ErrIDCollision, doc.Reference)
}

// keepObjectIDs copies the ids of stored objects to unsaved objects of doc
// with the same name.
func keepObjectIDs(doc, stored *types.Document) {
	idsByName := make(map[string]int64, len(stored.Objects))
	for _, o := range stored.Objects {
		idsByName[o.Reference.Name()] = o.ID
	}
	for _, o := range doc.Objects {
		if o.ID == 0 {
			o.ID = idsByName[o.Reference.Name()]
		}
	}
}

// Load returns the stored document translation.
func (s *Store) Load(ctx context.Context, ref reference.DocumentReference, lang string) (*types.Document, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() (*types.Document, error) {
		return s.backend.FindDocument(ctx, ref, lang)
	})
}

// LoadByID returns the stored document with the given id.
func (s *Store) LoadByID(ctx context.Context, id int64) (*types.Document, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() (*types.Document, error) {
		return s.backend.DocumentByID(ctx, id)
	})
}

// Exists reports whether the document translation is stored.
func (s *Store) Exists(ctx context.Context, ref reference.DocumentReference, lang string) (bool, error) {
	_, err := s.Load(ctx, ref, lang)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the document translation and fires a DocumentDeletedEvent.
func (s *Store) Delete(ctx context.Context, ref reference.DocumentReference, lang string) error {
	err := s.lockManager.Execute(storage.WriteOperation, func() error {
		return s.backend.Delete(ctx, ref, lang)
	})
	if err != nil {
		return err
	}
	s.notify(observation.NewDocumentDeletedEvent(ref), nil)
	return nil
}

// List returns stored documents ordered by reference and language.
func (s *Store) List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error) {
	return storage.Query(s.lockManager, storage.ReadOperation, func() ([]*types.Document, error) {
		return s.backend.List(ctx, opts)
	})
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) notify(event observation.Event, data any) {
	if s.observation != nil {
		s.observation.Notify(event, s, data)
	}
}
