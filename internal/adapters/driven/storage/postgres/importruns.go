package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var _ driven.ImportRunStore = (*importRunStore)(nil)

type importRunStore struct {
	store *Store
}

// Save stores or updates a run.
func (s *importRunStore) Save(ctx context.Context, run domain.ImportRun) error {
	var finished *time.Time
	if !run.FinishedAt.IsZero() {
		finished = &run.FinishedAt
	}
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO import_runs (id, kind, source, started_at, finished_at, expected, processed, written, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			expected = EXCLUDED.expected,
			processed = EXCLUDED.processed,
			written = EXCLUDED.written,
			status = EXCLUDED.status,
			error = EXCLUDED.error
	`, run.ID, string(run.Kind), run.Source, run.StartedAt, finished,
		run.Expected, run.Processed, run.Written, string(run.Status), run.Error)
	if err != nil {
		return fmt.Errorf("saving import run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *importRunStore) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	run, err := scanImportRun(s.store.pool.QueryRow(ctx, `
		SELECT id, kind, source, started_at, finished_at, expected, processed, written, status, error
		FROM import_runs WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first. A non-positive limit returns every run.
func (s *importRunStore) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, kind, source, started_at, finished_at, expected, processed, written, status, error
		FROM import_runs ORDER BY started_at DESC, id DESC LIMIT $1
	`, lim)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	return collect(rows, scanImportRun)
}

func scanImportRun(row pgx.Row) (domain.ImportRun, error) {
	var (
		run          domain.ImportRun
		kind, status string
		finished     *time.Time
	)
	err := row.Scan(&run.ID, &kind, &run.Source, &run.StartedAt, &finished,
		&run.Expected, &run.Processed, &run.Written, &status, &run.Error)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning import run: %w", err)
	}
	run.Kind = domain.Kind(kind)
	run.Status = domain.RunStatus(status)
	if finished != nil {
		run.FinishedAt = *finished
	}
	return run, nil
}
