package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/storage"
)

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// JSONOption configures the JSON backend.
type JSONOption func(*jsonBackend)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) JSONOption {
	return func(b *jsonBackend) {
		b.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) JSONOption {
	return func(b *jsonBackend) {
		b.lockFactory = factory
	}
}

// WithClock sets the time source of the file metadata.
func WithClock(fn func() time.Time) JSONOption {
	return func(b *jsonBackend) {
		b.timeFunc = fn
	}
}

// WithBackendLogger sets the backend logger.
func WithBackendLogger(logger *slog.Logger) JSONOption {
	return func(b *jsonBackend) {
		b.logger = logger
	}
}

// jsonBackend keeps all documents of a wiki farm in one JSON file. Writes
// reload the file under a cross-process lock, apply the change and replace
// the file atomically.
type jsonBackend struct {
	filePath    string
	lockManager *storage.LockManager
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	logger      *slog.Logger

	data     *storage.StoreData
	timeFunc func() time.Time
	closed   bool
}

// OpenJSON opens the JSON backend stored at filePath, creating it on the
// first write.
func OpenJSON(filePath string, opts ...JSONOption) (Backend, error) {
	b := &jsonBackend{
		filePath:    filePath,
		lockManager: storage.NewLockManager(),
		timeFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fs == nil {
		b.fs = OSFileSystem{}
	}
	if b.lockFactory == nil {
		b.lockFactory = FlockFactory{}
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("logger", "store.json", "file", filePath)
	b.data = storage.NewStoreData(b.timeFunc())

	if dir := filepath.Dir(filePath); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	b.fileLock = b.lockFactory.New(filePath + ".lock")

	if err := b.withFileLock(b.load); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return b, nil
}

// acquireLock attempts to acquire the file lock with retry logic
func (b *jsonBackend) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := b.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (b *jsonBackend) withFileLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := b.acquireLock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := b.fileLock.Unlock(); err != nil {
			b.logger.Warn("failed to release file lock", "error", err)
		}
	}()
	return fn()
}

// load reads the file into memory. Callers hold the file lock.
func (b *jsonBackend) load() error {
	if _, err := b.fs.Stat(b.filePath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	raw, err := b.fs.ReadFile(b.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var data storage.StoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if data.Documents == nil {
		data.Documents = []types.DocumentRecord{}
	}
	b.data = &data
	return nil
}

// save writes the in-memory data. Callers hold the file lock.
func (b *jsonBackend) save() error {
	b.data.Metadata.UpdatedAt = b.timeFunc()
	raw, err := json.MarshalIndent(b.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	tmpFile := b.filePath + ".tmp"
	if err := b.fs.WriteFile(tmpFile, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := b.fs.Rename(tmpFile, b.filePath); err != nil {
		_ = b.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// update reloads the file, applies fn and writes the result back.
func (b *jsonBackend) update(ctx context.Context, fn func(data *storage.StoreData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.lockManager.Execute(storage.WriteOperation, func() error {
		if b.closed {
			return ErrClosed
		}
		return b.withFileLock(func() error {
			if err := b.load(); err != nil {
				return err
			}
			if err := fn(b.data); err != nil {
				return err
			}
			return b.save()
		})
	})
}

func (b *jsonBackend) read(ctx context.Context, fn func(data *storage.StoreData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.lockManager.Execute(storage.ReadOperation, func() error {
		if b.closed {
			return ErrClosed
		}
		return fn(b.data)
	})
}

func (b *jsonBackend) DocumentByID(ctx context.Context, id int64) (*types.Document, error) {
	var doc *types.Document
	err := b.read(ctx, func(data *storage.StoreData) error {
		i := data.FindByID(id)
		if i < 0 {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		var err error
		doc, err = data.Documents[i].Document()
		return err
	})
	return doc, err
}

func (b *jsonBackend) FindDocument(ctx context.Context, ref reference.DocumentReference, lang string) (*types.Document, error) {
	var doc *types.Document
	err := b.read(ctx, func(data *storage.StoreData) error {
		i := data.Find(ref.String(), lang)
		if i < 0 {
			return fmt.Errorf("%w: %s (%q)", ErrNotFound, ref, lang)
		}
		var err error
		doc, err = data.Documents[i].Document()
		return err
	})
	return doc, err
}

func (b *jsonBackend) Put(ctx context.Context, doc *types.Document) error {
	rec := doc.Record()
	return b.update(ctx, func(data *storage.StoreData) error {
		if i := data.FindByID(rec.ID); i >= 0 {
			other := data.Documents[i]
			if other.Reference != rec.Reference || other.Language != rec.Language {
				return fmt.Errorf("%w: id %d is used by %s", ErrIDCollision, rec.ID, other.Reference)
			}
		}
		data.Upsert(rec)
		if rec.IDVersion != "" {
			data.Metadata.IDVersion = rec.IDVersion
		}
		return nil
	})
}

func (b *jsonBackend) Delete(ctx context.Context, ref reference.DocumentReference, lang string) error {
	return b.update(ctx, func(data *storage.StoreData) error {
		if !data.Remove(ref.String(), lang) {
			return fmt.Errorf("%w: %s (%q)", ErrNotFound, ref, lang)
		}
		return nil
	})
}

func (b *jsonBackend) List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error) {
	var docs []*types.Document
	err := b.read(ctx, func(data *storage.StoreData) error {
		for _, rec := range data.Documents {
			doc, err := rec.Document()
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	types.SortDocuments(docs)
	return opts.Apply(docs), nil
}

func (b *jsonBackend) Close() error {
	return b.lockManager.Execute(storage.WriteOperation, func() error {
		b.closed = true
		return nil
	})
}
