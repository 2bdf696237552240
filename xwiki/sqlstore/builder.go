package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/celements/wikibridge/types"
)

var documentColumns = []string{
	"id", "fullname", "language", "id_version", "title", "content", "created_at", "updated_at",
}

// queryBuilder builds the statements of the backend.
type queryBuilder struct {
	sq squirrel.StatementBuilderType
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}
}

func (b *queryBuilder) selectDocuments(where squirrel.Sqlizer) (string, []interface{}, error) {
	return b.sq.Select(documentColumns...).From("documents").Where(where).ToSql()
}

func (b *queryBuilder) listDocuments(opts types.ListOptions) (string, []interface{}, error) {
	q := b.sq.Select(documentColumns...).From("documents")
	if opts.Wiki != "" {
		q = q.Where(squirrel.Eq{"wiki": opts.Wiki})
	}
	if opts.Space != "" {
		q = q.Where(squirrel.Eq{"space": opts.Space})
	}
	q = q.OrderBy("wiki", "space", "name", "language")
	if opts.Limit != nil && *opts.Limit >= 0 {
		q = q.Limit(uint64(*opts.Limit))
	}
	if opts.Offset != nil && *opts.Offset > 0 {
		if opts.Limit == nil || *opts.Limit < 0 {
			// SQLite only accepts OFFSET after a LIMIT clause
			q = q.Limit(uint64(1<<63 - 1))
		}
		q = q.Offset(uint64(*opts.Offset))
	}
	return q.ToSql()
}

func (b *queryBuilder) selectObjects(docID int64) (string, []interface{}, error) {
	return b.sq.Select("id", "name", "properties").
		From("objects").
		Where(squirrel.Eq{"doc_id": docID}).
		OrderBy("id").
		ToSql()
}

func (b *queryBuilder) insertDocument(doc *types.Document) (string, []interface{}, error) {
	rec := doc.Record()
	return b.sq.Insert("documents").
		Columns("id", "fullname", "wiki", "space", "name", "language", "id_version",
			"title", "content", "created_at", "updated_at").
		Values(rec.ID, rec.Reference,
			doc.Reference.WikiReference().Name(),
			doc.Reference.SpaceReference().Name(),
			doc.Reference.Name(),
			rec.Language, rec.IDVersion, rec.Title, rec.Content,
			toUnix(rec.CreatedAt), toUnix(rec.UpdatedAt)).
		ToSql()
}

func (b *queryBuilder) insertObject(docID int64, obj types.ObjectRecord) (string, []interface{}, error) {
	props := obj.Properties
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode properties of %s: %w", obj.Name, err)
	}
	return b.sq.Insert("objects").
		Columns("id", "doc_id", "name", "properties").
		Values(obj.ID, docID, obj.Name, string(raw)).
		ToSql()
}

func (b *queryBuilder) deleteDocument(where squirrel.Sqlizer) (string, []interface{}, error) {
	return b.sq.Delete("documents").Where(where).ToSql()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
