package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var _ driven.CatalogReader = (*catalogReader)(nil)

const (
	partColumns  = "blid, name, catid, category, weight, dimx, dimy, dimz, deleted, created_at, updated_at"
	setColumns   = "setid, name, catid, category, year, weight, dimx, dimy, dimz, created_at"
	colorColumns = "id, name, rgb, type, inpart, inset, wanted, forsale, year_from, year_to"
)

func scanPart(row pgx.Row) (domain.Part, error) {
	var p domain.Part
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.Weight,
		&p.DimX, &p.DimY, &p.DimZ, &p.Stale, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("scanning part: %w", err)
	}
	return p, nil
}

func scanSet(row pgx.Row) (domain.Set, error) {
	var s domain.Set
	err := row.Scan(&s.ID, &s.Name, &s.CategoryID, &s.CategoryName, &s.Year,
		&s.Weight, &s.DimX, &s.DimY, &s.DimZ, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, domain.ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("scanning set: %w", err)
	}
	return s, nil
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, domain.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}

func scanColor(row pgx.Row) (domain.Color, error) {
	var c domain.Color
	err := row.Scan(&c.ID, &c.Name, &c.RGB, &c.Type, &c.Parts, &c.Sets,
		&c.Wanted, &c.ForSale, &c.YearFrom, &c.YearTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, domain.ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scanning color: %w", err)
	}
	return c, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
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

// likePatterns turns free text into lower-cased substring patterns, one per term.
func likePatterns(query string) []string {
	escape := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	terms := strings.Fields(strings.ToLower(query))
	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, "%"+escape.Replace(term)+"%")
	}
	return patterns
}

func searchTableExists(ctx context.Context, q querier, kind domain.Kind) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", searchTable(kind)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking %s search: %w", kind, err)
	}
	return exists, nil
}

type catalogReader struct {
	store *Store
}

func (r *catalogReader) searchAvailable(ctx context.Context, kind domain.Kind) error {
	exists, err := searchTableExists(ctx, r.store.pool, kind)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrSearchUnavailable
	}
	return nil
}

// GetPart returns a part by its natural key.
func (r *catalogReader) GetPart(ctx context.Context, id string) (*domain.Part, error) {
	rec, err := writer{q: r.store.pool}.lookupPart(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.(*domain.Part), nil
}

// SearchParts requires every term as a substring of id, name or category.
func (r *catalogReader) SearchParts(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error) {
	if err := r.searchAvailable(ctx, domain.KindPart); err != nil {
		return nil, err
	}
	rows, err := r.store.pool.Query(ctx, `
		SELECT p.blid, p.name, p.catid, p.category, p.weight, p.dimx, p.dimy, p.dimz,
			p.deleted, p.created_at, p.updated_at
		FROM `+searchTable(domain.KindPart)+` s JOIN parts p ON p.id = s.id
		WHERE s.doc LIKE ALL($1::text[])
			AND ($2 OR NOT p.deleted)
			AND ($3 = 0 OR p.catid = $3)
		ORDER BY p.blid
		LIMIT $4
	`, likePatterns(query), opts.IncludeStale, opts.CategoryID, opts.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("searching parts: %w", err)
	}
	return collect(rows, scanPart)
}

// SearchSets requires every term as a substring of name or category.
func (r *catalogReader) SearchSets(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error) {
	if err := r.searchAvailable(ctx, domain.KindSet); err != nil {
		return nil, err
	}
	rows, err := r.store.pool.Query(ctx, `
		SELECT t.setid, t.name, t.catid, t.category, t.year, t.weight, t.dimx, t.dimy, t.dimz, t.created_at
		FROM `+searchTable(domain.KindSet)+` s JOIN sets t ON t.id = s.id
		WHERE s.doc LIKE ALL($1::text[])
			AND ($2 = 0 OR t.catid = $2)
		ORDER BY t.setid
		LIMIT $3
	`, likePatterns(query), opts.CategoryID, opts.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("searching sets: %w", err)
	}
	return collect(rows, scanSet)
}

// SetsByPrefix returns sets whose id starts with prefix.
func (r *catalogReader) SetsByPrefix(ctx context.Context, prefix string) ([]domain.Set, error) {
	escape := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	rows, err := r.store.pool.Query(ctx,
		"SELECT "+setColumns+" FROM sets WHERE setid LIKE $1 ORDER BY setid", escape.Replace(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	return collect(rows, scanSet)
}

// GetColor returns a color by id.
func (r *catalogReader) GetColor(ctx context.Context, id int) (*domain.Color, error) {
	c, err := scanColor(r.store.pool.QueryRow(ctx, "SELECT "+colorColumns+" FROM colors WHERE id = $1", id))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListColors returns all colors ordered by id.
func (r *catalogReader) ListColors(ctx context.Context) ([]domain.Color, error) {
	rows, err := r.store.pool.Query(ctx, "SELECT "+colorColumns+" FROM colors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying colors: %w", err)
	}
	return collect(rows, scanColor)
}

// ListCategories returns all categories ordered by name.
func (r *catalogReader) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.store.pool.Query(ctx, "SELECT id, name FROM categories ORDER BY name, id")
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
	base, _ := table(kind)
	rows, err := r.store.pool.Query(ctx, `
		SELECT c.id, c.name FROM categories c
		WHERE c.id IN (SELECT DISTINCT catid FROM `+base+`)
		ORDER BY c.name, c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return collect(rows, scanCategory)
}

// RecentParts returns the parts created within window of the newest part.
func (r *catalogReader) RecentParts(ctx context.Context, window time.Duration) ([]domain.Part, error) {
	var newest *time.Time
	if err := r.store.pool.QueryRow(ctx, "SELECT max(created_at) FROM parts").Scan(&newest); err != nil {
		return nil, fmt.Errorf("querying newest part: %w", err)
	}
	if newest == nil {
		return nil, nil
	}

	rows, err := r.store.pool.Query(ctx,
		"SELECT "+partColumns+" FROM parts WHERE created_at >= $1 ORDER BY blid", newest.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("querying recent parts: %w", err)
	}
	return collect(rows, scanPart)
}

// Count returns the number of rows of a kind.
func (r *catalogReader) Count(ctx context.Context, kind domain.Kind) (int, error) {
	base, err := table(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.store.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+base).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", kind, err)
	}
	return n, nil
}
