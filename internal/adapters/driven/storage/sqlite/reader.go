package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var _ driven.CatalogReader = (*catalogReader)(nil)

const (
	partColumns  = "blid, name, catid, category, weight, dimx, dimy, dimz, deleted, created_at, updated_at"
	setColumns   = "setid, name, catid, category, year, weight, dimx, dimy, dimz, created_at"
	colorColumns = "id, name, rgb, type, inpart, inset, wanted, forsale, year_from, year_to"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPart(sc scanner) (domain.Part, error) {
	var (
		p                    domain.Part
		deleted              int
		createdAt, updatedAt sql.NullTime
	)
	err := sc.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.Weight,
		&p.DimX, &p.DimY, &p.DimZ, &deleted, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("scanning part: %w", err)
	}
	p.Stale = deleted != 0
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return p, nil
}

func scanSet(sc scanner) (domain.Set, error) {
	var (
		s         domain.Set
		createdAt sql.NullTime
	)
	err := sc.Scan(&s.ID, &s.Name, &s.CategoryID, &s.CategoryName, &s.Year,
		&s.Weight, &s.DimX, &s.DimY, &s.DimZ, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("scanning set: %w", err)
	}
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	return s, nil
}

func scanCategory(sc scanner) (domain.Category, error) {
	var c domain.Category
	err := sc.Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}

func scanColor(sc scanner) (domain.Color, error) {
	var c domain.Color
	err := sc.Scan(&c.ID, &c.Name, &c.RGB, &c.Type, &c.Parts, &c.Sets,
		&c.Wanted, &c.ForSale, &c.YearFrom, &c.YearTo)
	if errors.Is(err, sql.ErrNoRows) {
		return c, domain.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning color: %w", err)
	}
	return c, nil
}

// collect drains rows through scan.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// ftsQuery turns free text into an FTS5 query that requires every term as
// a token prefix.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(term, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}

// likePrefix escapes LIKE metacharacters in a prefix pattern.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// catalogReader implements driven.CatalogReader.
type catalogReader struct {
	store *Store
}

// searchAvailable reports whether the full-text index of kind exists.
func (r *catalogReader) searchAvailable(ctx context.Context, kind domain.Kind) error {
	var n int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", ftsName(kind)).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking %s: %w", ftsName(kind), err)
	}
	if n == 0 {
		return domain.ErrSearchUnavailable
	}
	return nil
}

// GetPart returns a part by its natural key, stale or not.
func (r *catalogReader) GetPart(ctx context.Context, id string) (*domain.Part, error) {
	rec, err := writer{q: r.store.db}.lookupPart(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.(*domain.Part), nil
}

// SearchParts matches every query term against part id, name and category.
func (r *catalogReader) SearchParts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error) {
	if err := r.searchAvailable(ctx, domain.KindPart); err != nil {
		return nil, err
	}

	filters := ` AND (? OR p.deleted = 0) AND (? = 0 OR p.catid = ?) ORDER BY p.blid LIMIT ?`
	args := []any{opts.IncludeStale, opts.CategoryID, opts.CategoryID, opts.EffectiveLimit()}

	var (
		rows *sql.Rows
		err  error
	)
	if match := ftsQuery(query); match != "" {
		rows, err = r.store.db.QueryContext(ctx, `
			SELECT p.blid, p.name, p.catid, p.category, p.weight, p.dimx, p.dimy, p.dimz,
				p.deleted, p.created_at, p.updated_at
			FROM parts_fts JOIN parts p ON p.id = parts_fts.rowid
			WHERE parts_fts MATCH ?`+filters, append([]any{match}, args...)...)
	} else {
		rows, err = r.store.db.QueryContext(ctx, `
			SELECT p.blid, p.name, p.catid, p.category, p.weight, p.dimx, p.dimy, p.dimz,
				p.deleted, p.created_at, p.updated_at
			FROM parts p
			WHERE 1 = 1`+filters, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("searching parts: %w", err)
	}
	return collect(rows, scanPart)
}

// SearchSets matches every query term against set name and category.
func (r *catalogReader) SearchSets(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error) {
	if err := r.searchAvailable(ctx, domain.KindSet); err != nil {
		return nil, err
	}

	filters := ` AND (? = 0 OR s.catid = ?) ORDER BY s.setid LIMIT ?`
	args := []any{opts.CategoryID, opts.CategoryID, opts.EffectiveLimit()}
	cols := `s.setid, s.name, s.catid, s.category, s.year, s.weight, s.dimx, s.dimy, s.dimz, s.created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if match := ftsQuery(query); match != "" {
		rows, err = r.store.db.QueryContext(ctx, `
			SELECT `+cols+`
			FROM sets_fts JOIN sets s ON s.id = sets_fts.rowid
			WHERE sets_fts MATCH ?`+filters, append([]any{match}, args...)...)
	} else {
		rows, err = r.store.db.QueryContext(ctx, `SELECT `+cols+` FROM sets s WHERE 1 = 1`+filters, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("searching sets: %w", err)
	}
	return collect(rows, scanSet)
}

// SetsByPrefix returns sets whose id starts with prefix.
func (r *catalogReader) SetsByPrefix(ctx context.Context, prefix string) ([]domain.Set, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+setColumns+` FROM sets WHERE setid LIKE ? ESCAPE '\' ORDER BY setid`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	return collect(rows, scanSet)
}

// GetColor returns a color by id.
func (r *catalogReader) GetColor(ctx context.Context, id int) (*domain.Color, error) {
	row := r.store.db.QueryRowContext(ctx, "SELECT "+colorColumns+" FROM colors WHERE id = ?", id)
	c, err := scanColor(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListColors returns all colors ordered by id.
func (r *catalogReader) ListColors(ctx context.Context) ([]domain.Color, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT "+colorColumns+" FROM colors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying colors: %w", err)
	}
	return collect(rows, scanColor)
}

// ListCategories returns all categories ordered by name.
func (r *catalogReader) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return collect(rows, scanCategory)
}

// CategoriesUsedBy returns the categories referenced by parts or sets.
func (r *catalogReader) CategoriesUsedBy(ctx context.Context, kind domain.Kind) ([]domain.Category, error) {
	if kind != domain.KindPart && kind != domain.KindSet {
		return nil, fmt.Errorf("%w: categories are used by parts or sets, not %s", domain.ErrInvalidInput, kind)
	}
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT c.id, c.name FROM categories c
		WHERE c.id IN (SELECT DISTINCT catid FROM `+string(kind)+`)
		ORDER BY c.name, c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return collect(rows, scanCategory)
}

// RecentParts returns the parts created within window of the newest part.
func (r *catalogReader) RecentParts(ctx context.Context, window time.Duration) ([]domain.Part, error) {
	var newest sql.NullTime
	err := r.store.db.QueryRowContext(ctx,
		"SELECT created_at FROM parts ORDER BY created_at DESC LIMIT 1").Scan(&newest)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !newest.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying newest part: %w", err)
	}

	cutoff := newest.Time.Add(-window).UTC()
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+partColumns+" FROM parts WHERE created_at >= ? ORDER BY blid", cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying recent parts: %w", err)
	}
	return collect(rows, scanPart)
}

// Count returns the number of rows of a kind.
func (r *catalogReader) Count(ctx context.Context, kind domain.Kind) (int, error) {
	table, err := tableName(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
