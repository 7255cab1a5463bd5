package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

var _ driven.ImportRunStore = (*importRunStore)(nil)

// importRunStore implements driven.ImportRunStore.
type importRunStore struct {
	store *Store
}

// Save stores or updates a run.
func (s *importRunStore) Save(ctx context.Context, run domain.ImportRun) error {
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, kind, source, started_at, finished_at, expected, processed, written, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			expected = excluded.expected,
			processed = excluded.processed,
			written = excluded.written,
			status = excluded.status,
			error = excluded.error
	`, run.ID, string(run.Kind), run.Source, run.StartedAt.UTC(), finished,
		run.Expected, run.Processed, run.Written, string(run.Status), run.Error)
	if err != nil {
		return fmt.Errorf("saving import run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *importRunStore) Get(ctx context.Context, id string) (*domain.ImportRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, kind, source, started_at, finished_at, expected, processed, written, status, error
		FROM import_runs WHERE id = ?
	`, id)
	run, err := scanImportRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first. A non-positive limit returns every run.
func (s *importRunStore) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, kind, source, started_at, finished_at, expected, processed, written, status, error
		FROM import_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	return collect(rows, scanImportRun)
}

func scanImportRun(sc scanner) (domain.ImportRun, error) {
	var (
		run          domain.ImportRun
		kind, status string
		started      sql.NullTime
		finished     sql.NullTime
	)
	err := sc.Scan(&run.ID, &kind, &run.Source, &started, &finished,
		&run.Expected, &run.Processed, &run.Written, &status, &run.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning import run: %w", err)
	}
	run.Kind = domain.Kind(kind)
	run.Status = domain.RunStatus(status)
	if started.Valid {
		run.StartedAt = started.Time
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}
