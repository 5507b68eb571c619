package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/repository"
)

var _ repository.ResultRepository = (*resultRepo)(nil)

type resultRepo struct {
	pool *pgxpool.Pool
}

func NewResultRepo(pool *pgxpool.Pool) *resultRepo {
	return &resultRepo{pool: pool}
}

func (r *resultRepo) Save(ctx context.Context, tx repository.Tx, result *model.AnalysisResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	spans, err := json.Marshal(result.FlaggedSpans)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	// Upsert on (batch_id, document_id): a redelivered chunk rewrites the
	// same rows instead of duplicating them.
	const q = `
INSERT INTO analysis_results (id, batch_id, document_id, filename, accuracy, risk_level, flagged_spans, excerpt, model, fallback, input_tokens, output_tokens, cost, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (batch_id, document_id) DO UPDATE SET
  accuracy = EXCLUDED.accuracy,
  risk_level = EXCLUDED.risk_level,
  flagged_spans = EXCLUDED.flagged_spans,
  excerpt = EXCLUDED.excerpt,
  model = EXCLUDED.model,
  fallback = EXCLUDED.fallback,
  input_tokens = EXCLUDED.input_tokens,
  output_tokens = EXCLUDED.output_tokens,
  cost = EXCLUDED.cost;`

	_, err = execSQL(ctx, r.pool, tx, q,
		result.ID, result.BatchID, result.DocumentID, result.Filename, result.Accuracy,
		result.RiskLevel, spans, result.Excerpt, result.Model, result.Fallback,
		result.InputTokens, result.OutputTokens, result.Cost, result.CreatedAt)
	return err
}

func (r *resultRepo) ListByBatch(ctx context.Context, tx repository.Tx, batchID string) ([]*model.AnalysisResult, error) {
	const q = `
SELECT id, batch_id, document_id, filename, accuracy, risk_level, flagged_spans, excerpt, model, fallback, input_tokens, output_tokens, cost, created_at
FROM analysis_results
WHERE batch_id = $1
ORDER BY created_at;`

	rows, err := pickRows(ctx, r.pool, tx, q, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AnalysisResult
	for rows.Next() {
		var (
			res   model.AnalysisResult
			risk  string
			spans []byte
		)
		err := rows.Scan(&res.ID, &res.BatchID, &res.DocumentID, &res.Filename, &res.Accuracy,
			&risk, &spans, &res.Excerpt, &res.Model, &res.Fallback,
			&res.InputTokens, &res.OutputTokens, &res.Cost, &res.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrReadDatabaseRow
		}
		res.RiskLevel = model.RiskLevel(risk)
		if len(spans) > 0 {
			_ = json.Unmarshal(spans, &res.FlaggedSpans)
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
