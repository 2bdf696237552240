package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
	"github.com/celements/wikibridge/xwiki/store"
)

// Option configures the SQLite backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// Backend stores documents in a SQLite database.
type Backend struct {
	db      *sql.DB
	builder *queryBuilder
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ store.Backend = (*Backend)(nil)

// Open opens or creates the database at path and brings its schema up to date.
func Open(path string, opts ...Option) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// busy_timeout goes first so that the following pragmas wait for locks
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -2000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// another connection may be switching the journal mode
			if strings.Contains(pragma, "journal_mode") && strings.Contains(err.Error(), "database is locked") {
				continue
			}
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	b := &Backend{db: db, builder: newQueryBuilder()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("logger", "sqlstore", "path", path)
	return b, nil
}

func (b *Backend) check() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}
	return nil
}

func (b *Backend) DocumentByID(ctx context.Context, id int64) (*types.Document, error) {
	doc, err := b.queryDocument(ctx, squirrel.Eq{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}
	return doc, err
}

func (b *Backend) FindDocument(ctx context.Context, ref reference.DocumentReference, lang string) (*types.Document, error) {
	doc, err := b.queryDocument(ctx, squirrel.Eq{"fullname": ref.String(), "language": lang})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s (%q)", store.ErrNotFound, ref, lang)
	}
	return doc, err
}

func (b *Backend) queryDocument(ctx context.Context, where squirrel.Sqlizer) (*types.Document, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	query, args, err := b.builder.selectDocuments(where)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rec, err := scanDocument(b.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := b.loadObjects(ctx, &rec); err != nil {
		return nil, err
	}
	return rec.Document()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (types.DocumentRecord, error) {
	var rec types.DocumentRecord
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.Reference, &rec.Language, &rec.IDVersion,
		&rec.Title, &rec.Content, &created, &updated)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = fromUnix(created)
	rec.UpdatedAt = fromUnix(updated)
	return rec, nil
}

func (b *Backend) loadObjects(ctx context.Context, rec *types.DocumentRecord) error {
	query, args, err := b.builder.selectObjects(rec.ID)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load objects of %s: %w", rec.Reference, err)
	}
	defer rows.Close()
	for rows.Next() {
		var obj types.ObjectRecord
		var raw string
		if err := rows.Scan(&obj.ID, &obj.Name, &raw); err != nil {
			return fmt.Errorf("failed to scan object: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &obj.Properties); err != nil {
			return fmt.Errorf("failed to decode properties of %s: %w", obj.Name, err)
		}
		rec.Objects = append(rec.Objects, obj)
	}
	return rows.Err()
}

// Put replaces the document row and all of its objects in one transaction.
func (b *Backend) Put(ctx context.Context, doc *types.Document) error {
	if err := b.check(); err != nil {
		return err
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fullname := doc.Reference.String()
	var owner string
	var ownerLang string
	err = tx.QueryRowContext(ctx, "SELECT fullname, language FROM documents WHERE id = ?", doc.ID).Scan(&owner, &ownerLang)
	switch {
	case err == nil && (owner != fullname || ownerLang != doc.Language):
		return fmt.Errorf("%w: id %d is used by %s", store.ErrIDCollision, doc.ID, owner)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check document id: %w", err)
	}

	// objects go with their document through ON DELETE CASCADE
	query, args, err := b.builder.deleteDocument(squirrel.Eq{"fullname": fullname, "language": doc.Language})
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fullname, err)
	}

	query, args, err = b.builder.insertDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", fullname, err)
	}
	for _, obj := range doc.Record().Objects {
		query, args, err := b.builder.insertObject(doc.ID, obj)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert object %s: %w", obj.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", fullname, err)
	}
	b.logger.Debug("document stored", "reference", fullname, "language", doc.Language, "id", doc.ID)
	return nil
}

func (b *Backend) Delete(ctx context.Context, ref reference.DocumentReference, lang string) error {
	if err := b.check(); err != nil {
		return err
	}
	query, args, err := b.builder.deleteDocument(squirrel.Eq{"fullname": ref.String(), "language": lang})
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s (%q)", store.ErrNotFound, ref, lang)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, opts types.ListOptions) ([]*types.Document, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	query, args, err := b.builder.listDocuments(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	var recs []types.DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// a single connection is shared, so the objects are read after the rows are released
	_ = rows.Close()

	docs := make([]*types.Document, 0, len(recs))
	for i := range recs {
		if err := b.loadObjects(ctx, &recs[i]); err != nil {
			return nil, err
		}
		doc, err := recs[i].Document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
