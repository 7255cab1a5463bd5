package driven

import (
	"context"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// RecordWriter is the set of operations the upsert protocol performs per record.
// Both CatalogStore and an open CatalogTx implement it.
type RecordWriter interface {
	// LookupByKey returns the stored record of the given kind with the natural key.
	// Returns domain.ErrNotFound when no row matches and domain.ErrDuplicateKey
	// when more than one does.
	LookupByKey(ctx context.Context, kind domain.Kind, key string) (domain.Record, error)

	// Insert stores a new record.
	Insert(ctx context.Context, rec domain.Record) error

	// Update overwrites the stored row with the record's natural key.
	// For parts it clears the stale flag and keeps the creation time.
	Update(ctx context.Context, rec domain.Record) error

	// ResolveCategoryName returns the name of a category, or "" when unknown.
	ResolveCategoryName(ctx context.Context, categoryID int) (string, error)
}

// CatalogTx is an open replace-all transaction over one table.
type CatalogTx interface {
	RecordWriter

	// MarkAllStale flags every existing row of the table as stale.
	MarkAllStale(ctx context.Context) error

	// Commit makes every write of the transaction visible.
	Commit() error

	// Rollback discards every write of the transaction.
	// Calling Rollback after Commit is a no-op.
	Rollback() error
}

// CatalogStore persists catalog tables and their derived search indexes.
type CatalogStore interface {
	RecordWriter

	// Begin opens a transaction over one table.
	Begin(ctx context.Context, kind domain.Kind) (CatalogTx, error)

	// DropAndRecreate empties a table by dropping it and its search index,
	// then recreating the empty table.
	DropAndRecreate(ctx context.Context, kind domain.Kind) error

	// RebuildSearchIndex rebuilds the full-text index from the table contents.
	// It is a no-op for kinds without an index.
	RebuildSearchIndex(ctx context.Context, kind domain.Kind) error

	// DropSearchIndex removes the full-text index of a table.
	// Searches fail with domain.ErrSearchUnavailable until it is rebuilt.
	DropSearchIndex(ctx context.Context, kind domain.Kind) error
}
