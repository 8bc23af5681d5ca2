package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const (
	documentColumns = "id, collection, uri, title, type, content, metadata, created_at, updated_at"
	chunkColumns    = "id, document_id, content, position, embedding, metadata"
	selectChunk     = "SELECT rowid, " + chunkColumns + " FROM chunks"
)

// Re-saving a document keeps its created_at.
const upsertDocument = `INSERT INTO documents (` + documentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	collection = excluded.collection, uri = excluded.uri, title = excluded.title,
	type = excluded.type, content = excluded.content, metadata = excluded.metadata,
	updated_at = excluded.updated_at`

const upsertChunk = `INSERT INTO chunks (` + chunkColumns + `)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	document_id = excluded.document_id, content = excluded.content, position = excluded.position,
	embedding = excluded.embedding, metadata = excluded.metadata
RETURNING rowid`

// SaveDocument upserts doc. Zero timestamps are set to now.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	meta, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}
	collection := doc.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}

	if _, err := s.store.db.ExecContext(ctx, upsertDocument,
		doc.ID, collection, doc.URI, doc.Title, doc.Type, doc.Content, meta,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// SaveChunks upserts every chunk or none. The owning document must exist.
// Seq is the chunk's rowid.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertChunk)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range chunks {
			c := &chunks[i]
			meta, err := encodeMetadata(c.Metadata)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", c.ID, err)
			}
			err = stmt.QueryRowContext(ctx, c.ID, c.DocumentID, c.Content, c.Position,
				encodeVector(c.Embedding), meta).Scan(&c.Seq)
			if err != nil {
				return fmt.Errorf("save chunk %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
}

// GetChunks orders by position, then by insertion.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx,
		selectChunk+` WHERE document_id = ? ORDER BY position, rowid`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks of %s: %w", documentID, err)
	}
	return collect(rows, scanChunk)
}

func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	return scanChunk(s.store.db.QueryRowContext(ctx,
		selectChunk+` WHERE id = ?`, id))
}

// DeleteDocument relies on ON DELETE CASCADE for the chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments orders by ID.
func (s *documentStore) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if collection == "" {
		rows, err = s.store.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id`)
	} else {
		rows, err = s.store.db.QueryContext(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE collection = ? ORDER BY id`, collection)
	}
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return collect(rows, scanDocument)
}

// row is the Scan half of *sql.Row and *sql.Rows.
type row interface {
	Scan(dest ...any) error
}

// collect drains rows through scan and closes them.
func collect[T any](rows *sql.Rows, scan func(row) (*T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanDocument(r row) (*domain.Document, error) {
	var (
		doc  domain.Document
		meta string
	)
	err := r.Scan(&doc.ID, &doc.Collection, &doc.URI, &doc.Title, &doc.Type, &doc.Content,
		&meta, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "scan document")
	}
	if doc.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	return &doc, nil
}

func scanChunk(r row) (*domain.Chunk, error) {
	var (
		c    domain.Chunk
		blob []byte
		meta string
	)
	err := r.Scan(&c.Seq, &c.ID, &c.DocumentID, &c.Content, &c.Position, &blob, &meta)
	if err != nil {
		return nil, notFoundOr(err, "scan chunk")
	}
	c.Embedding = decodeVector(blob)
	if c.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	return &c, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func encodeMetadata(m map[string]any) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// decodeMetadata returns JSON numbers as float64.
func decodeMetadata(s string) (map[string]any, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
