package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/repository"
)

var _ repository.BatchRepository = (*batchRepo)(nil)

type batchRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewBatchRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *batchRepo {
	return &batchRepo{pool: pool, tm: tm}
}

func (r *batchRepo) Create(ctx context.Context, tx repository.Tx, batch *model.BatchJob) error {
	now := time.Now()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	options, err := json.Marshal(batch.Options)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	metadata, err := json.Marshal(batch.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO batches (id, owner, status, total_documents, processed_documents, successful_documents, failed_documents, options, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, 0, 0, $5, $6, $7, $8);`

	_, err = execSQL(ctx, r.pool, tx, q,
		batch.ID, batch.Owner, batch.Status, batch.TotalDocuments, options, metadata, batch.CreatedAt, batch.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *batchRepo) UpdateValidation(ctx context.Context, tx repository.Tx, batchID string, status model.BatchStatus, totalValid int, meta model.BatchMetadata) error {
	metadata, err := json.Marshal(meta)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
UPDATE batches
SET status = $2, total_documents = $3, metadata = $4, updated_at = now()
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, batchID, status, totalValid, metadata)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementCounters applies one additive, message-scoped counter update.
// The batch_progress insert is the idempotence guard: when the message id
// was applied before, the whole delta is skipped and applied=false.
// The status flip to a terminal state happens in the same UPDATE so that
// concurrent workers can never observe a saturated-but-ready ledger.
func (r *batchRepo) IncrementCounters(ctx context.Context, batchID string, delta repository.CounterDelta) (bool, error) {
	applied := false
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const guard = `
INSERT INTO batch_progress (message_id, batch_id)
VALUES ($1, $2)
ON CONFLICT (message_id) DO NOTHING;`

		tag, err := execSQL(ctx, r.pool, tx, guard, delta.MessageID, batchID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil // duplicate delivery, delta already accounted
		}

		const q = `
UPDATE batches
SET processed_documents  = processed_documents + $2,
    successful_documents = successful_documents + $3,
    failed_documents     = failed_documents + $4,
    status = CASE
        WHEN processed_documents + $2 >= total_documents AND total_documents > 0 THEN
            CASE WHEN successful_documents + $3 = 0 THEN 'failed' ELSE 'completed' END
        ELSE status
    END,
    updated_at = now()
WHERE id = $1;`

		tag, err = execSQL(ctx, r.pool, tx, q, batchID, delta.Processed, delta.Successful, delta.Failed)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *batchRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.BatchJob, error) {
	const q = `
SELECT id, owner, status, total_documents, processed_documents, successful_documents, failed_documents, options, metadata, created_at, updated_at
FROM batches
WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		b        model.BatchJob
		status   string
		options  []byte
		metadata []byte
	)
	err = row.Scan(&b.ID, &b.Owner, &status, &b.TotalDocuments, &b.ProcessedDocuments,
		&b.SuccessfulDocuments, &b.FailedDocuments, &options, &metadata, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	b.Status = model.BatchStatus(status)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &b.Options); err != nil {
			return nil, fmt.Errorf("%w: options for batch %s", domain.ErrReadDatabaseRow, id)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &b.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata for batch %s", domain.ErrReadDatabaseRow, id)
		}
	}
	return &b, nil
}
