package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/qpro/internal/logger"
)

const upSuffix = ".up.sql"

// migration is one NNN_name.up.sql script.
type migration struct {
	version int
	file    string
}

// SchemaVersion returns the highest applied migration, 0 for a new database.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	return v, err
}

// migrate runs every up script newer than the recorded version. Each
// script commits together with its schema_migrations row.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}

	current, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.file, err)
		}
		if err := s.apply(m.version, string(script)); err != nil {
			return fmt.Errorf("apply %s: %w", m.file, err)
		}
		logger.Debug("sqlite: applied migration %s", m.file)
	}
	return nil
}

// pendingMigrations lists up scripts above current in version order.
// Files without a numeric prefix are ignored.
func pendingMigrations(fsys fs.FS, current int) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, upSuffix) {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= current {
			continue
		}
		out = append(out, migration{version: version, file: name})
	}
	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return out, nil
}

func (s *Store) apply(version int, script string) error {
	return s.inTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(script); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version)
		return err
	})
}
