// Package sqlite provides the SQLite-backed run history.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It implements driven.RunStore over a single database
// connection.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; applied versions are recorded in schema_migrations.
//
// # Data Location
//
// The database lives at {data_dir}/fedledger.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on
// database-level locking provided by SQLite in WAL mode.
package sqlite
