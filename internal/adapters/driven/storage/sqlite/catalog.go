package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var (
	_ driven.CatalogStore = (*catalogStore)(nil)
	_ driven.CatalogTx    = (*catalogTx)(nil)
)

// tableDDL recreates a catalog table after DropAndRecreate.
// It must stay in step with migrations/001_catalog.up.sql.
var tableDDL = map[domain.Kind][]string{
	domain.KindCategory: {
		`CREATE TABLE categories (
			id   INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX idx_categories_name ON categories(name)`,
	},
	domain.KindPart: {
		`CREATE TABLE parts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			blid       TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			catid      INTEGER NOT NULL DEFAULT 0,
			category   TEXT NOT NULL DEFAULT '',
			weight     REAL NOT NULL DEFAULT 0,
			dimx       REAL NOT NULL DEFAULT 0,
			dimy       REAL NOT NULL DEFAULT 0,
			dimz       REAL NOT NULL DEFAULT 0,
			deleted    INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX idx_parts_blid ON parts(blid)`,
		`CREATE INDEX idx_parts_catid ON parts(catid)`,
		`CREATE INDEX idx_parts_created_at ON parts(created_at)`,
	},
	domain.KindSet: {
		`CREATE TABLE sets (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			setid      TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			catid      INTEGER NOT NULL DEFAULT 0,
			category   TEXT NOT NULL DEFAULT '',
			year       INTEGER NOT NULL DEFAULT 0,
			weight     REAL NOT NULL DEFAULT 0,
			dimx       REAL NOT NULL DEFAULT 0,
			dimy       REAL NOT NULL DEFAULT 0,
			dimz       REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX idx_sets_catid ON sets(catid)`,
	},
	domain.KindColor: {
		`CREATE TABLE colors (
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

// ftsDDL creates the external-content full-text index of a table.
var ftsDDL = map[domain.Kind]string{
	domain.KindPart: `CREATE VIRTUAL TABLE IF NOT EXISTS parts_fts USING fts5(
		blid, name, category,
		content='parts', content_rowid='id'
	)`,
	domain.KindSet: `CREATE VIRTUAL TABLE IF NOT EXISTS sets_fts USING fts5(
		name, category,
		content='sets', content_rowid='id'
	)`,
}

// tableName returns the SQL table of a kind. Kind values double as table names.
func tableName(kind domain.Kind) (string, error) {
	if !kind.Valid() {
		return "", domain.ErrUnsupportedKind
	}
	return string(kind), nil
}

func ftsName(kind domain.Kind) string {
	return string(kind) + "_fts"
}

// ==================== Record writer ====================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
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
		row := w.q.QueryRowContext(ctx, "SELECT "+setColumns+" FROM sets WHERE setid = ?", key)
		s, err := scanSet(row)
		if err != nil {
			return nil, err
		}
		return &s, nil
	case domain.KindCategory:
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: category key %q", domain.ErrInvalidInput, key)
		}
		row := w.q.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE id = ?", id)
		c, err := scanCategory(row)
		if err != nil {
			return nil, err
		}
		return &c, nil
	case domain.KindColor:
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: color key %q", domain.ErrInvalidInput, key)
		}
		row := w.q.QueryRowContext(ctx, "SELECT "+colorColumns+" FROM colors WHERE id = ?", id)
		c, err := scanColor(row)
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, domain.ErrUnsupportedKind
}

// lookupPart fails with ErrDuplicateKey when the natural key is ambiguous.
func (w writer) lookupPart(ctx context.Context, key string) (domain.Record, error) {
	rows, err := w.q.QueryContext(ctx, "SELECT "+partColumns+" FROM parts WHERE blid = ? LIMIT 2", key)
	if err != nil {
		return nil, fmt.Errorf("querying part %q: %w", key, err)
	}
	defer rows.Close()

	var found []domain.Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parts: %w", err)
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
		_, err = w.q.ExecContext(ctx, `
			INSERT INTO parts (blid, name, catid, category, weight, dimx, dimy, dimz, deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`, r.ID, r.Name, r.CategoryID, r.CategoryName, r.Weight, r.DimX, r.DimY, r.DimZ, created.UTC(), now)
	case *domain.Set:
		created := r.CreatedAt
		if created.IsZero() {
			created = now
		}
		_, err = w.q.ExecContext(ctx, `
			INSERT INTO sets (setid, name, catid, category, year, weight, dimx, dimy, dimz, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.Name, r.CategoryID, r.CategoryName, r.Year, r.Weight, r.DimX, r.DimY, r.DimZ, created.UTC())
	case *domain.Category:
		_, err = w.q.ExecContext(ctx, "INSERT INTO categories (id, name) VALUES (?, ?)", r.ID, r.Name)
	case *domain.Color:
		_, err = w.q.ExecContext(ctx, `
			INSERT INTO colors (id, name, rgb, type, inpart, inset, wanted, forsale, year_from, year_to)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
// never touch created_at.
func (w writer) Update(ctx context.Context, rec domain.Record) error {
	var (
		res sql.Result
		err error
	)

	switch r := rec.(type) {
	case *domain.Part:
		res, err = w.q.ExecContext(ctx, `
			UPDATE parts SET name = ?, catid = ?, category = ?, weight = ?, dimx = ?, dimy = ?, dimz = ?,
				deleted = 0, updated_at = ?
			WHERE blid = ?
		`, r.Name, r.CategoryID, r.CategoryName, r.Weight, r.DimX, r.DimY, r.DimZ, time.Now().UTC(), r.ID)
	case *domain.Set:
		res, err = w.q.ExecContext(ctx, `
			UPDATE sets SET name = ?, catid = ?, category = ?, year = ?, weight = ?, dimx = ?, dimy = ?, dimz = ?
			WHERE setid = ?
		`, r.Name, r.CategoryID, r.CategoryName, r.Year, r.Weight, r.DimX, r.DimY, r.DimZ, r.ID)
	case *domain.Category:
		res, err = w.q.ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", r.Name, r.ID)
	case *domain.Color:
		res, err = w.q.ExecContext(ctx, `
			UPDATE colors SET name = ?, rgb = ?, type = ?, inpart = ?, inset = ?, wanted = ?, forsale = ?,
				year_from = ?, year_to = ?
			WHERE id = ?
		`, r.Name, r.RGB, r.Type, r.Parts, r.Sets, r.Wanted, r.ForSale, r.YearFrom, r.YearTo, r.ID)
	default:
		return domain.ErrUnsupportedKind
	}

	if err != nil {
		return wrapWriteError("update", rec, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %q: %w", rec.Kind(), rec.Key(), err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %q: %w", rec.Kind(), rec.Key(), domain.ErrNotFound)
	}
	return nil
}

// ResolveCategoryName returns the category name, or "" when unknown.
func (w writer) ResolveCategoryName(ctx context.Context, categoryID int) (string, error) {
	var name string
	err := w.q.QueryRowContext(ctx, "SELECT name FROM categories WHERE id = ?", categoryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving category %d: %w", categoryID, err)
	}
	return name, nil
}

// ==================== Catalog Store ====================

// catalogStore implements driven.CatalogStore.
type catalogStore struct {
	writer
	store *Store
}

// Begin opens a transaction over one table.
func (s *catalogStore) Begin(ctx context.Context, kind domain.Kind) (driven.CatalogTx, error) {
	if _, err := tableName(kind); err != nil {
		return nil, err
	}
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &catalogTx{writer: writer{q: tx}, tx: tx, kind: kind}, nil
}

// DropAndRecreate drops a table with its search index and recreates it empty.
// The search index stays absent until RebuildSearchIndex.
func (s *catalogStore) DropAndRecreate(ctx context.Context, kind domain.Kind) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DROP TABLE IF EXISTS " + ftsName(kind),
		"DROP TABLE IF EXISTS " + table,
	}
	stmts = append(stmts, tableDDL[kind]...)

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("recreating %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RebuildSearchIndex recreates the full-text index from the table contents.
func (s *catalogStore) RebuildSearchIndex(ctx context.Context, kind domain.Kind) error {
	ddl, ok := ftsDDL[kind]
	if !ok {
		return nil
	}
	fts := ftsName(kind)

	if _, err := s.store.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating %s: %w", fts, err)
	}
	if _, err := s.store.db.ExecContext(ctx, "INSERT INTO "+fts+"("+fts+") VALUES('rebuild')"); err != nil {
		return fmt.Errorf("rebuilding %s: %w", fts, err)
	}
	return nil
}

// DropSearchIndex removes the full-text index of a table.
func (s *catalogStore) DropSearchIndex(ctx context.Context, kind domain.Kind) error {
	if _, ok := ftsDDL[kind]; !ok {
		return nil
	}
	if _, err := s.store.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+ftsName(kind)); err != nil {
		return fmt.Errorf("dropping %s: %w", ftsName(kind), err)
	}
	return nil
}

// ==================== Transaction ====================

// catalogTx implements driven.CatalogTx over a database transaction.
type catalogTx struct {
	writer
	tx   *sql.Tx
	kind domain.Kind
}

// MarkAllStale flags every part as stale.
func (t *catalogTx) MarkAllStale(ctx context.Context) error {
	if t.kind != domain.KindPart {
		return fmt.Errorf("%w: %s rows carry no stale flag", domain.ErrUnsupportedKind, t.kind)
	}
	if _, err := t.tx.ExecContext(ctx, "UPDATE parts SET deleted = 1"); err != nil {
		return fmt.Errorf("marking parts stale: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (t *catalogTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. It is a no-op after Commit.
func (t *catalogTx) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return fmt.Errorf("rolling back transaction: %w", err)
}
