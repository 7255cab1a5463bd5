package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/blcat/internal/catalogxml"
	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
	"github.com/custodia-labs/blcat/internal/logger"
)

// Ensure CatalogSynchronizer implements the interface.
var _ driving.CatalogSync = (*CatalogSynchronizer)(nil)

// progressLogInterval throttles the periodic "processed N/M" log line.
const progressLogInterval = 2 * time.Second

// CatalogSynchronizer imports vendor XML dumps into the catalog store.
type CatalogSynchronizer struct {
	store driven.CatalogStore
	runs  driven.ImportRunStore

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[domain.Kind]*driving.SyncStatus
}

// NewCatalogSynchronizer creates a new synchronizer.
// runs is optional - if nil, import history is not recorded.
func NewCatalogSynchronizer(store driven.CatalogStore, runs driven.ImportRunStore) *CatalogSynchronizer {
	return &CatalogSynchronizer{
		store:       store,
		runs:        runs,
		activeSyncs: make(map[domain.Kind]*driving.SyncStatus),
	}
}

// Start launches a pass on its own goroutine.
func (s *CatalogSynchronizer) Start(ctx context.Context, kind domain.Kind, path string) (driving.ImportTask, error) {
	if err := s.acquire(kind); err != nil {
		return nil, err
	}

	task := newImportTask()
	go func() {
		result, err := s.run(ctx, kind, path, task.report)
		s.release(kind)
		task.finish(result, err)
	}()
	return task, nil
}

// Import runs a pass on the calling goroutine.
func (s *CatalogSynchronizer) Import(
	ctx context.Context,
	kind domain.Kind,
	path string,
	progress func(int),
) (*domain.ImportResult, error) {
	if err := s.acquire(kind); err != nil {
		return nil, err
	}
	defer s.release(kind)
	return s.run(ctx, kind, path, progress)
}

// Status returns the state of the pass for a table.
func (s *CatalogSynchronizer) Status(kind domain.Kind) driving.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, ok := s.activeSyncs[kind]; ok {
		return *status
	}
	return driving.SyncStatus{Kind: kind}
}

// Runs returns import history, newest first.
func (s *CatalogSynchronizer) Runs(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// acquire claims the per-table slot.
func (s *CatalogSynchronizer) acquire(kind domain.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.activeSyncs[kind]; busy {
		return fmt.Errorf("%w: %s", domain.ErrSyncInProgress, kind)
	}
	s.activeSyncs[kind] = &driving.SyncStatus{Kind: kind, Running: true}
	return nil
}

func (s *CatalogSynchronizer) release(kind domain.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeSyncs, kind)
}

func (s *CatalogSynchronizer) updateStatus(p *pass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.activeSyncs[p.kind]; ok {
		status.Expected = p.expected
		status.Processed = p.processed
		status.Written = p.written
	}
}

// run performs one pass: pre-scan, then parse and write under the
// protocol of kind.
func (s *CatalogSynchronizer) run(
	ctx context.Context,
	kind domain.Kind,
	path string,
	progress func(int),
) (*domain.ImportResult, error) {
	schema, err := catalogxml.SchemaFor(kind)
	if err != nil {
		return nil, err
	}

	expected, err := countItems(path)
	if err != nil {
		return nil, &domain.SyncError{Kind: kind, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.SyncError{Kind: kind, Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer f.Close()

	p := &pass{
		kind:     kind,
		schema:   schema,
		parser:   catalogxml.NewParser(f),
		expected: expected,
		lastPct:  -1,
		progress: progress,
		onItem:   s.updateStatus,
		logEvery: &rate.Sometimes{Interval: progressLogInterval},
	}

	run := domain.ImportRun{
		ID:        newRunID(),
		Kind:      kind,
		Source:    path,
		StartedAt: time.Now(),
		Expected:  expected,
		Status:    domain.RunRunning,
	}
	s.saveRun(ctx, run)
	s.updateStatus(p)

	logger.Section("Import " + string(kind))
	logger.Info("Starting %s pass for %s from %s (%d items)", kind.Protocol(), kind, path, expected)

	var result *domain.ImportResult
	switch kind.Protocol() {
	case domain.ReplaceAll:
		result, err = s.replaceAll(ctx, p)
	default:
		result, err = s.replaceWholesale(ctx, p)
	}

	run.FinishedAt = time.Now()
	run.Processed = p.processed
	run.Written = p.written
	switch {
	case err != nil:
		run.Status = domain.RunFailed
		run.Error = err.Error()
		logger.Error("Import %s failed: %v", kind, err)
	case result.Aborted:
		run.Status = domain.RunAborted
		run.Error = domain.ErrEmptyFeed.Error()
		logger.Warn("Import %s aborted: %v", kind, domain.ErrEmptyFeed)
	case kind.Protocol() == domain.ReplaceAll:
		run.Status = domain.RunCommitted
	default:
		run.Status = domain.RunCompleted
	}
	s.saveRun(context.WithoutCancel(ctx), run)

	if err != nil {
		return nil, err
	}
	result.RunID = run.ID
	logger.Info("Import %s finished: %d processed, %d written in %s",
		kind, p.processed, p.written, run.Duration().Round(time.Millisecond))
	return result, nil
}

// replaceAll flags every row stale, upserts the feed inside one transaction
// and commits only when at least one record was written.
func (s *CatalogSynchronizer) replaceAll(ctx context.Context, p *pass) (*domain.ImportResult, error) {
	if err := s.store.DropSearchIndex(ctx, p.kind); err != nil {
		return nil, p.fail(fmt.Errorf("drop search index: %w", err))
	}
	// From here on the index is rebuilt whatever the outcome, so searches
	// keep working against the previous data after a rollback.

	tx, err := s.store.Begin(ctx, p.kind)
	if err != nil {
		return nil, s.rebuildAfter(ctx, p, p.fail(fmt.Errorf("begin: %w", err)))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := tx.MarkAllStale(ctx); err != nil {
		_ = tx.Rollback()
		return nil, s.rebuildAfter(ctx, p, p.fail(fmt.Errorf("mark stale: %w", err)))
	}

	err = p.each(ctx, func(rec domain.Record) error {
		return upsert(ctx, tx, rec)
	})
	if err != nil {
		_ = tx.Rollback()
		return nil, s.rebuildAfter(ctx, p, p.fail(err))
	}

	if p.written == 0 {
		if err := tx.Rollback(); err != nil {
			return nil, s.rebuildAfter(ctx, p, p.fail(fmt.Errorf("rollback: %w", err)))
		}
		if err := s.rebuildAfter(ctx, p, nil); err != nil {
			return nil, err
		}
		return p.result(true), nil
	}

	if err := tx.Commit(); err != nil {
		return nil, s.rebuildAfter(ctx, p, p.fail(fmt.Errorf("commit: %w", err)))
	}
	if err := s.rebuildAfter(ctx, p, nil); err != nil {
		return nil, err
	}
	return p.result(false), nil
}

// replaceWholesale empties the table and inserts every accepted record.
// A failure part-way leaves the table partially populated.
func (s *CatalogSynchronizer) replaceWholesale(ctx context.Context, p *pass) (*domain.ImportResult, error) {
	if err := s.store.DropAndRecreate(ctx, p.kind); err != nil {
		return nil, p.fail(fmt.Errorf("recreate table: %w", err))
	}

	err := p.each(ctx, func(rec domain.Record) error {
		if err := denormalize(ctx, s.store, rec); err != nil {
			return err
		}
		return s.store.Insert(ctx, rec)
	})
	if err != nil {
		return nil, s.rebuildAfter(ctx, p, p.fail(err))
	}
	if err := s.rebuildAfter(ctx, p, nil); err != nil {
		return nil, err
	}
	return p.result(false), nil
}

// rebuildAfter rebuilds the search index of the pass and returns cause, or
// the rebuild failure when cause is nil. It ignores cancellation of ctx.
func (s *CatalogSynchronizer) rebuildAfter(ctx context.Context, p *pass, cause error) error {
	if !p.kind.HasSearchIndex() {
		return cause
	}
	err := s.store.RebuildSearchIndex(context.WithoutCancel(ctx), p.kind)
	if err == nil {
		return cause
	}
	if cause != nil {
		logger.Error("Rebuilding %s search index after failure: %v", p.kind, err)
		return cause
	}
	return p.fail(fmt.Errorf("rebuild search index: %w", err))
}

func (s *CatalogSynchronizer) saveRun(ctx context.Context, run domain.ImportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, run); err != nil {
		logger.Warn("Failed to record import run %s: %v", run.ID, err)
	}
}

// upsert updates the stored row with the record's key, or inserts it.
func upsert(ctx context.Context, w driven.RecordWriter, rec domain.Record) error {
	if err := denormalize(ctx, w, rec); err != nil {
		return err
	}

	_, err := w.LookupByKey(ctx, rec.Kind(), rec.Key())
	switch {
	case err == nil:
		return w.Update(ctx, rec)
	case errors.Is(err, domain.ErrNotFound):
		return w.Insert(ctx, rec)
	default:
		return fmt.Errorf("lookup %s %q: %w", rec.Kind(), rec.Key(), err)
	}
}

// denormalize copies the category name onto parts and sets.
func denormalize(ctx context.Context, w driven.RecordWriter, rec domain.Record) error {
	var (
		id   int
		name *string
	)
	switch r := rec.(type) {
	case *domain.Part:
		id, name = r.CategoryID, &r.CategoryName
	case *domain.Set:
		id, name = r.CategoryID, &r.CategoryName
	default:
		return nil
	}

	resolved, err := w.ResolveCategoryName(ctx, id)
	if err != nil {
		return err
	}
	*name = resolved
	return nil
}

func countItems(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := catalogxml.CountItems(f, catalogxml.ItemTag)
	if err != nil {
		return 0, fmt.Errorf("pre-scan %s: %w", path, err)
	}
	return n, nil
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// pass is the state of one synchronisation pass.
type pass struct {
	kind   domain.Kind
	schema *catalogxml.Schema
	parser *catalogxml.Parser

	expected  int
	processed int
	written   int

	lastPct  int
	progress func(int)
	onItem   func(*pass)
	logEvery *rate.Sometimes
}

// each feeds every accepted record to write, in document order.
func (p *pass) each(ctx context.Context, write func(domain.Record) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := p.parser.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		rec, reason := catalogxml.Build(raw, p.schema)
		if reason.Rejected() {
			logger.Debug("Skipping %s item %d: %s", p.kind, p.processed+1, reason)
		} else {
			if err := write(rec); err != nil {
				return err
			}
			p.written++
		}
		p.processed++
		p.advance()
	}
}

// advance reports progress after an item is consumed.
func (p *pass) advance() {
	if p.onItem != nil {
		p.onItem(p)
	}
	p.logEvery.Do(func() {
		logger.Info("%s: processed %d/%d, written %d", p.kind, p.processed, p.expected, p.written)
	})

	if p.expected == 0 {
		return
	}
	pct := min(p.processed*100/p.expected, 100)
	if pct <= p.lastPct {
		return
	}
	p.lastPct = pct
	if p.progress != nil {
		p.progress(pct)
	}
}

func (p *pass) fail(err error) error {
	return &domain.SyncError{Kind: p.kind, Processed: p.processed, Err: err}
}

func (p *pass) result(aborted bool) *domain.ImportResult {
	return &domain.ImportResult{
		Kind:      p.kind,
		Expected:  p.expected,
		Processed: p.processed,
		Written:   p.written,
		Aborted:   aborted,
	}
}

// importTask delivers the outcome of a pass started with Start.
type importTask struct {
	progress chan int
	done     chan struct{}

	result *domain.ImportResult
	err    error
}

func newImportTask() *importTask {
	return &importTask{
		// Percentages are strictly increasing, so 101 slots never fill.
		progress: make(chan int, 101),
		done:     make(chan struct{}),
	}
}

func (t *importTask) report(pct int) {
	t.progress <- pct
}

func (t *importTask) finish(result *domain.ImportResult, err error) {
	t.result, t.err = result, err
	close(t.progress)
	close(t.done)
}

// Progress delivers percentages in 0..100 and is closed when the pass ends.
func (t *importTask) Progress() <-chan int { return t.progress }

// Done is closed when the pass ends.
func (t *importTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the pass ends.
func (t *importTask) Wait() (*domain.ImportResult, error) {
	<-t.done
	return t.result, t.err
}
