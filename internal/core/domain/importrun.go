package domain

import "time"

// RunStatus is the outcome of an import run.
type RunStatus string

const (
	// RunRunning means the pass has not finished yet.
	RunRunning RunStatus = "running"

	// RunCommitted means a replace-all pass committed its transaction.
	RunCommitted RunStatus = "committed"

	// RunAborted means a replace-all pass wrote nothing and rolled back.
	RunAborted RunStatus = "aborted"

	// RunCompleted means a replace-wholesale pass reached the end of the feed.
	RunCompleted RunStatus = "completed"

	// RunFailed means the pass stopped on a fatal error.
	RunFailed RunStatus = "failed"
)

// ImportRun records one synchronisation pass.
type ImportRun struct {
	// ID is a time-ordered unique identifier.
	ID string

	Kind   Kind
	Source string

	StartedAt  time.Time
	FinishedAt time.Time

	// Expected is the pre-scanned item count.
	Expected int

	// Processed counts items consumed, accepted or rejected.
	Processed int

	// Written counts records written to the store.
	Written int

	Status RunStatus

	// Error holds the failure message for failed runs.
	Error string
}

// Duration returns how long the run took, or zero while still running.
func (r ImportRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ImportResult is what a finished pass reports to its caller.
type ImportResult struct {
	// RunID identifies the ImportRun history entry.
	RunID string

	Kind Kind

	Expected  int
	Processed int
	Written   int

	// Aborted is set when a replace-all pass found nothing to write and
	// left the store untouched.
	Aborted bool
}
