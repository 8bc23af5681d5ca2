// Package sqlite persists documents, chunks and embeddings in a single
// SQLite database.
//
// It uses modernc.org/sqlite, a pure Go driver, so the binary builds
// without cgo. One Store backs two ports:
//
//   - DocumentStore: documents and their chunks
//   - VectorIndex: chunk embeddings, searched by brute-force cosine
//
// # Schema
//
// The schema lives in migrations/ as numbered .up.sql files. Applied
// versions are recorded in schema_migrations.
//
// # Data Location
//
// By default the database is ~/.qpro/data/qpro.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode
// with a busy timeout so parallel ingestion workers can write.
package sqlite
