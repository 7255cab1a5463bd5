package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

// Store is a PostgreSQL-backed catalog store sharing one connection pool
// between the catalog, reader and import history wrappers.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn and creates any missing tables.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CatalogStore returns a CatalogStore interface backed by this store.
func (s *Store) CatalogStore() driven.CatalogStore {
	return &catalogStore{store: s, writer: writer{q: s.pool}}
}

// CatalogReader returns a CatalogReader interface backed by this store.
func (s *Store) CatalogReader() driven.CatalogReader {
	return &catalogReader{store: s}
}

// ImportRunStore returns an ImportRunStore interface backed by this store.
func (s *Store) ImportRunStore() driven.ImportRunStore {
	return &importRunStore{store: s}
}

// ensureSchema creates the catalog tables, their search tables and the
// import history table when absent.
func (s *Store) ensureSchema(ctx context.Context) error {
	return runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, kind := range domain.Kinds() {
			for _, stmt := range tableDDL[kind] {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("creating %s: %w", kind, err)
				}
			}
			if _, ok := searchDoc[kind]; !ok {
				continue
			}
			exists, err := searchTableExists(ctx, tx, kind)
			if err != nil {
				return err
			}
			if !exists {
				if err := buildSearchTable(ctx, tx, kind); err != nil {
					return err
				}
			}
		}
		if _, err := tx.Exec(ctx, importRunsDDL); err != nil {
			return fmt.Errorf("creating import_runs: %w", err)
		}
		return nil
	})
}

func runInTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// isUniqueViolation reports whether err is a unique or primary key failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}

// wrapWriteError maps unique violations onto domain.ErrDuplicateKey.
func wrapWriteError(op string, rec domain.Record, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s %q: %w", op, rec.Kind(), rec.Key(), domain.ErrDuplicateKey)
	}
	return fmt.Errorf("%s %s %q: %w", op, rec.Kind(), rec.Key(), err)
}
