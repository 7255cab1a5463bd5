// Package sqlite provides a unified SQLite-based implementation of the catalog
// store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - CatalogStore: synchronisation writes, transactions and search index upkeep
//   - CatalogReader: lookups and full-text queries
//   - ImportRunStore: import history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Parts and sets carry FTS5 external-content indexes
// (parts_fts, sets_fts) that are rebuilt after each synchronisation pass.
//
// # Data Location
//
// By default, the database is stored at ~/.blcat/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, so readers keep working while a pass holds its
// write transaction.
package sqlite
