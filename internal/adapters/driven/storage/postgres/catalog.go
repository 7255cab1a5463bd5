package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var (
	_ driven.CatalogStore = (*catalogStore)(nil)
	_ driven.CatalogTx    = (*catalogTx)(nil)
)

var tableDDL = map[domain.Kind][]string{
	domain.KindCategory: {
		`CREATE TABLE IF NOT EXISTS categories (
			id   INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,
	},
	domain.KindPart: {
		`CREATE TABLE IF NOT EXISTS parts (
			id         BIGSERIAL PRIMARY KEY,
			blid       TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			catid      INTEGER NOT NULL DEFAULT 0,
			category   TEXT NOT NULL DEFAULT '',
			weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimx       DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimy       DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimz       DOUBLE PRECISION NOT NULL DEFAULT 0,
			deleted    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parts_blid ON parts(blid)`,
		`CREATE INDEX IF NOT EXISTS idx_parts_catid ON parts(catid)`,
		`CREATE INDEX IF NOT EXISTS idx_parts_created_at ON parts(created_at)`,
	},
	domain.KindSet: {
		`CREATE TABLE IF NOT EXISTS sets (
			id         BIGSERIAL PRIMARY KEY,
			setid      TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			catid      INTEGER NOT NULL DEFAULT 0,
			category   TEXT NOT NULL DEFAULT '',
			year       INTEGER NOT NULL DEFAULT 0,
			weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimx       DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimy       DOUBLE PRECISION NOT NULL DEFAULT 0,
			dimz       DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sets_catid ON sets(catid)`,
	},
	domain.KindColor: {
		`CREATE TABLE IF NOT EXISTS colors (
			id        INTEGER PRIMARY KEY,
			name      TEXT NOT NULL DEFAULT '',
			rgb       TEXT NOT NULL DEFAULT '#000000',
			type      TEXT NOT NULL DEFAULT '',
			inpart    INTEGER NOT NULL DEFAULT 0,
			inset     INTEGER NOT NULL DEFAULT 0,
			wanted    INTEGER NOT NULL DEFAULT 0,
			forsale   INTEGER NOT NULL DEFAULT 0,
			year_from INTEGER NOT NULL DEFAULT 0,
			year_to   INTEGER NOT NULL DEFAULT 0
		)`,
	},
}

const importRunsDDL = `CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	expected    INTEGER NOT NULL DEFAULT 0,
	processed   INTEGER NOT NULL DEFAULT 0,
	written     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
)`

// searchDoc is the lower-cased text a search table holds for each row.
var searchDoc = map[domain.Kind]string{
	domain.KindPart: `lower(blid || ' ' || name || ' ' || category)`,
	domain.KindSet:  `lower(name || ' ' || category)`,
}

func table(kind domain.Kind) (string, error) {
	if !kind.Valid() {
		return "", domain.ErrUnsupportedKind
	}
	return pgx.Identifier{string(kind)}.Sanitize(), nil
}

func searchTable(kind domain.Kind) string {
	return pgx.Identifier{string(kind) + "_search"}.Sanitize()
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// buildSearchTable snapshots the searchable text of a table. Rows written
// afterwards are invisible to searches until the next build.
func buildSearchTable(ctx context.Context, q execer, kind domain.Kind) error {
	doc, ok := searchDoc[kind]
	if !ok {
		return nil
	}
	base, _ := table(kind)
	st := searchTable(kind)

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS " + st,
		"CREATE TABLE " + st + " (id BIGINT PRIMARY KEY, doc TEXT NOT NULL)",
		"INSERT INTO " + st + " (id, doc) SELECT id, " + doc + " FROM " + base,
	} {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("building %s: %w", st, err)
		}
	}
	return nil
}

// ==================== Record writer ====================

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	execer
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// writer implements driven.RecordWriter on top of a querier.
type writer struct {
	q querier
}

// LookupByKey returns the stored record with the natural key.
func (w writer) LookupByKey(ctx context.Context, kind domain.Kind, key string) (domain.Record, error) {
	switch kind {
	case domain.KindPart:
		return w.lookupPart(ctx, key)
	case domain.KindSet:
		s, err := scanSet(w.q.QueryRow(ctx, "SELECT "+setColumns+" FROM sets WHERE setid = $1", key))
		if err != nil {
			return nil, err
		}
		return &s, nil
	case domain.KindCategory, domain.KindColor:
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s key %q", domain.ErrInvalidInput, kind, key)
		}
		if kind == domain.KindCategory {
			c, err := scanCategory(w.q.QueryRow(ctx, "SELECT id, name FROM categories WHERE id = $1", id))
			if err != nil {
				return nil, err
			}
			return &c, nil
		}
		c, err := scanColor(w.q.QueryRow(ctx, "SELECT "+colorColumns+" FROM colors WHERE id = $1", id))
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, domain.ErrUnsupportedKind
}

func (w writer) lookupPart(ctx context.Context, key string) (domain.Record, error) {
	rows, err := w.q.Query(ctx, "SELECT "+partColumns+" FROM parts WHERE blid = $1 LIMIT 2", key)
	if err != nil {
		return nil, fmt.Errorf("querying part %q: %w", key, err)
	}
	found, err := collect(rows, scanPart)
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("part %q: %w", key, domain.ErrDuplicateKey)
	}
}

// Insert stores a new record.
func (w writer) Insert(ctx context.Context, rec domain.Record) error {
	now := time.Now().UTC()
	var err error

	switch r := rec.(type) {
	case *domain.Part:
		created := r.CreatedAt
		if created.IsZero() {
			created = now
		}
		_, err = w.q.Exec(ctx, `
			INSERT INTO parts (blid, name, catid, category, weight, dimx, dimy, dimz, deleted, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)
		`, r.ID, r.Name, r.CategoryID, r.CategoryName, r.Weight, r.DimX, r.DimY, r.DimZ, created, now)
	case *domain.Set:
		created := r.CreatedAt
		if created.IsZero() {
			created = now
		}
		_, err = w.q.Exec(ctx, `
			INSERT INTO sets (setid, name, catid, category, year, weight, dimx, dimy, dimz, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.ID, r.Name, r.CategoryID, r.CategoryName, r.Year, r.Weight, r.DimX, r.DimY, r.DimZ, created)
	case *domain.Category:
		_, err = w.q.Exec(ctx, "INSERT INTO categories (id, name) VALUES ($1, $2)", r.ID, r.Name)
	case *domain.Color:
		_, err = w.q.Exec(ctx, `
			INSERT INTO colors (id, name, rgb, type, inpart, inset, wanted, forsale, year_from, year_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.ID, r.Name, r.RGB, r.Type, r.Parts, r.Sets, r.Wanted, r.ForSale, r.YearFrom, r.YearTo)
	default:
		return domain.ErrUnsupportedKind
	}

	if err != nil {
		return wrapWriteError("insert", rec, err)
	}
	return nil
}

// Update overwrites the stored row. Part updates clear the stale flag and
// keep created_at.
func (w writer) Update(ctx context.Context, rec domain.Record) error {
	var (
		tag pgconn.CommandTag
		err error
	)

	switch r := rec.(type) {
	case *domain.Part:
		tag, err = w.q.Exec(ctx, `
			UPDATE parts SET name = $1, catid = $2, category = $3, weight = $4, dimx = $5, dimy = $6, dimz = $7,
				deleted = FALSE, updated_at = $8
			WHERE blid = $9
		`, r.Name, r.CategoryID, r.CategoryName, r.Weight, r.DimX, r.DimY, r.DimZ, time.Now().UTC(), r.ID)
	case *domain.Set:
		tag, err = w.q.Exec(ctx, `
			UPDATE sets SET name = $1, catid = $2, category = $3, year = $4, weight = $5, dimx = $6, dimy = $7, dimz = $8
			WHERE setid = $9
		`, r.Name, r.CategoryID, r.CategoryName, r.Year, r.Weight, r.DimX, r.DimY, r.DimZ, r.ID)
	case *domain.Category:
		tag, err = w.q.Exec(ctx, "UPDATE categories SET name = $1 WHERE id = $2", r.Name, r.ID)
	case *domain.Color:
		tag, err = w.q.Exec(ctx, `
			UPDATE colors SET name = $1, rgb = $2, type = $3, inpart = $4, inset = $5, wanted = $6, forsale = $7,
				year_from = $8, year_to = $9
			WHERE id = $10
		`, r.Name, r.RGB, r.Type, r.Parts, r.Sets, r.Wanted, r.ForSale, r.YearFrom, r.YearTo, r.ID)
	default:
		return domain.ErrUnsupportedKind
	}

	if err != nil {
		return wrapWriteError("update", rec, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %q: %w", rec.Kind(), rec.Key(), domain.ErrNotFound)
	}
	return nil
}

// ResolveCategoryName returns the category name, or "" when unknown.
func (w writer) ResolveCategoryName(ctx context.Context, categoryID int) (string, error) {
	var name string
	err := w.q.QueryRow(ctx, "SELECT name FROM categories WHERE id = $1", categoryID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving category %d: %w", categoryID, err)
	}
	return name, nil
}

// ==================== Catalog Store ====================

type catalogStore struct {
	writer
	store *Store
}

// Begin opens a transaction over one table.
func (s *catalogStore) Begin(ctx context.Context, kind domain.Kind) (driven.CatalogTx, error) {
	if _, err := table(kind); err != nil {
		return nil, err
	}
	tx, err := s.store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &catalogTx{writer: writer{q: tx}, tx: tx, ctx: ctx, kind: kind}, nil
}

// DropAndRecreate drops a table with its search table and recreates it
// empty. Searches fail until RebuildSearchIndex runs.
func (s *catalogStore) DropAndRecreate(ctx context.Context, kind domain.Kind) error {
	base, err := table(kind)
	if err != nil {
		return err
	}
	return runInTx(ctx, s.store.pool, func(tx pgx.Tx) error {
		stmts := []string{
			"DROP TABLE IF EXISTS " + searchTable(kind),
			"DROP TABLE IF EXISTS " + base,
		}
		stmts = append(stmts, tableDDL[kind]...)
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("recreating %s: %w", kind, err)
			}
		}
		return nil
	})
}

// RebuildSearchIndex rebuilds the search table from the table contents.
func (s *catalogStore) RebuildSearchIndex(ctx context.Context, kind domain.Kind) error {
	if _, ok := searchDoc[kind]; !ok {
		return nil
	}
	return runInTx(ctx, s.store.pool, func(tx pgx.Tx) error {
		return buildSearchTable(ctx, tx, kind)
	})
}

// DropSearchIndex removes the search table of kind.
func (s *catalogStore) DropSearchIndex(ctx context.Context, kind domain.Kind) error {
	if _, ok := searchDoc[kind]; !ok {
		return nil
	}
	if _, err := s.store.pool.Exec(ctx, "DROP TABLE IF EXISTS "+searchTable(kind)); err != nil {
		return fmt.Errorf("dropping %s search: %w", kind, err)
	}
	return nil
}

// ==================== Transaction ====================

type catalogTx struct {
	writer
	tx   pgx.Tx
	ctx  context.Context
	kind domain.Kind
}

// MarkAllStale flags every part as stale.
func (t *catalogTx) MarkAllStale(ctx context.Context) error {
	if t.kind != domain.KindPart {
		return fmt.Errorf("%w: %s rows carry no stale flag", domain.ErrUnsupportedKind, t.kind)
	}
	if _, err := t.tx.Exec(ctx, "UPDATE parts SET deleted = TRUE"); err != nil {
		return fmt.Errorf("marking parts stale: %w", err)
	}
	return nil
}

// Commit commits the transaction with the context it was opened with.
func (t *catalogTx) Commit() error {
	if err := t.tx.Commit(t.ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. It is a no-op after Commit.
func (t *catalogTx) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return fmt.Errorf("rolling back transaction: %w", err)
}
