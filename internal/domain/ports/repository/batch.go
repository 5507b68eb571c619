package repository

import (
	"context"

	"veracity-pipeline/internal/domain/model"
)

// CounterDelta is one additive update to a batch's progress counters,
// scoped to the queue message that produced it. MessageID keys the
// idempotence guard: applying the same delta twice is a no-op.
type CounterDelta struct {
	MessageID  string
	Processed  int
	Successful int
	Failed     int
}

type BatchRepository interface {
	// Create inserts the ledger row; ErrAlreadyExists on a duplicate id.
	Create(ctx context.Context, tx Tx, batch *model.BatchJob) error

	// UpdateValidation moves the batch out of 'preparing', corrects
	// TotalDocuments to the valid count and stores diagnostics.
	UpdateValidation(ctx context.Context, tx Tx, batchID string, status model.BatchStatus, totalValid int, meta model.BatchMetadata) error

	// IncrementCounters applies one server-side additive update and flips
	// the status to a terminal state when the counters saturate. Returns
	// false when the delta's message id was already applied.
	IncrementCounters(ctx context.Context, batchID string, delta CounterDelta) (applied bool, err error)

	FindByID(ctx context.Context, tx Tx, id string) (*model.BatchJob, error)
}

type ResultRepository interface {
	// Save upserts on (batch_id, document_id) so redelivered messages
	// cannot duplicate result rows.
	Save(ctx context.Context, tx Tx, result *model.AnalysisResult) error
	ListByBatch(ctx context.Context, tx Tx, batchID string) ([]*model.AnalysisResult, error)
}
