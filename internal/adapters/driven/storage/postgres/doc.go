// Package postgres implements the catalog store ports on PostgreSQL using
// a pgx connection pool.
//
// Tables mirror the SQLite adapter. Parts and sets each carry a search table
// (parts_search, sets_search) holding lower-cased searchable text per row.
// A search table is a snapshot: RebuildSearchIndex refreshes it after a
// synchronisation pass and searches fail with domain.ErrSearchUnavailable
// while it is dropped.
//
// The schema is created on connect with CREATE TABLE IF NOT EXISTS, so
// pointing the store at an empty database is enough to start importing.
package postgres
