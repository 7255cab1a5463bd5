package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedKind indicates an unknown catalog kind.
	ErrUnsupportedKind = errors.New("unsupported catalog kind")

	// ErrSyncInProgress indicates a pass is already running for the same table.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrSearchUnavailable indicates the full-text index has not been built.
	ErrSearchUnavailable = errors.New("search index unavailable")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")

	// Synchronisation Errors.

	// ErrStream indicates the input document is malformed or truncated.
	ErrStream = errors.New("malformed catalog stream")

	// ErrEmptyFeed indicates a replace-all pass wrote nothing and was rolled back.
	// It is recorded on the result, not returned to the caller.
	ErrEmptyFeed = errors.New("feed yielded no records")

	// ErrDuplicateKey indicates more than one stored row shares a natural key.
	ErrDuplicateKey = errors.New("duplicate natural key")
)

// SyncError reports a fatal failure during a synchronisation pass.
type SyncError struct {
	// Kind is the table being synchronised.
	Kind Kind

	// Processed is the number of items consumed before the failure.
	Processed int

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s failed after %d items: %v", e.Kind, e.Processed, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}
