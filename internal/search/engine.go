// Package search defines the port the bulk orchestrators use to keep the
// search index in sync with the relational store, and an HTTP implementation
// of it. The index write happens inside the batch transaction scope: an index
// failure rolls the relational transaction back, so the index can lag behind
// the store (a crash after index write but before commit) but committed data
// is never missing from a healthy index run.
package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/models"
)

// Engine is the indexing contract consumed by the bulk orchestrators.
type Engine interface {
	// IndexRecords writes the fully hydrated record set of one batch.
	IndexRecords(ctx context.Context, dataset *models.Dataset, records []models.Record) error
	// DeleteRecords removes records from the dataset's index.
	DeleteRecords(ctx context.Context, dataset *models.Dataset, recordIDs []uuid.UUID) error
}

// IndexError wraps a failed index write for one dataset.
type IndexError struct {
	DatasetID uuid.UUID
	Op        string
	Err       error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("search index %s failed for dataset %s: %v", e.Op, e.DatasetID, e.Err)
}

// Unwrap returns the underlying transport or index error.
func (e *IndexError) Unwrap() error { return e.Err }

// Is matches any *IndexError, so errors.Is(err, ErrIndex) detects index
// failures regardless of dataset or operation.
func (e *IndexError) Is(target error) bool {
	_, ok := target.(*IndexError)

	return ok
}

// ErrIndex is the sentinel for index write failures.
var ErrIndex = &IndexError{}

// NoopEngine discards index writes. Used when no search endpoint is
// configured; the relational store stays the source of truth.
type NoopEngine struct{}

// IndexRecords implements Engine.
func (NoopEngine) IndexRecords(context.Context, *models.Dataset, []models.Record) error { return nil }

// DeleteRecords implements Engine.
func (NoopEngine) DeleteRecords(context.Context, *models.Dataset, []uuid.UUID) error { return nil }
