package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/qpro/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// DBFile is the database file name inside the data directory.
const DBFile = "qpro.db"

// pragmas are applied to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// Store is one open qpro.db. DocumentStore and VectorIndex share it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/qpro.db and brings its schema up to date. An
// empty dataDir means ~/.qpro/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sqlite: resolve home: %w", err)
		}
		dataDir = filepath.Join(home, ".qpro", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create %s: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate %s: %w", path, err)
	}
	return s, nil
}

func dsn(path string) string {
	q := url.Values{"_pragma": pragmas}
	return path + "?" + q.Encode()
}

// DocumentStore returns the document and chunk port.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorIndex returns the embedding port. Its Close leaves the store open.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
