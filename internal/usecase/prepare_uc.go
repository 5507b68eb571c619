// File: internal/usecase/prepare_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/model"
	"veracity-pipeline/internal/domain/ports/adapter"
	"veracity-pipeline/internal/domain/ports/repository"
	"veracity-pipeline/internal/infra/logging"
	"veracity-pipeline/internal/infra/metrics"
)

// Compile-time check
var _ BatchPreparer = (*preparerUC)(nil)

// PrepareResult reports the outcome of one batch submission, including
// chunks that could not be published. A non-empty FailedChunks means the
// ledger's total overstates what actually reached the queue; the gap is
// surfaced here rather than hidden.
type PrepareResult struct {
	BatchID          string                  `json:"batch_id"`
	Status           model.BatchStatus       `json:"status"`
	ValidDocuments   int                     `json:"valid_documents"`
	InvalidDocuments []model.InvalidDocument `json:"invalid_documents,omitempty"`
	TotalChunks      int                     `json:"total_chunks"`
	PublishedChunks  int                     `json:"published_chunks"`
	FailedChunks     []int                   `json:"failed_chunks,omitempty"`
}

type BatchPreparer interface {
	PrepareBatch(ctx context.Context, batchID, owner string, docs []model.Document, options model.AnalysisOptions) (*PrepareResult, error)
}

type preparerUC struct {
	batches     repository.BatchRepository
	content     adapter.ContentSource
	queue       adapter.QueuePublisher
	chunkSize   int
	concurrency int
	log         *zerolog.Logger
}

func NewBatchPreparer(
	batches repository.BatchRepository,
	content adapter.ContentSource,
	queue adapter.QueuePublisher,
	chunkSize, concurrency int,
	logger *zerolog.Logger,
) *preparerUC {
	if chunkSize <= 0 {
		chunkSize = 10
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	compLog := logger.With().Str("component", "BatchPreparer").Logger()
	return &preparerUC{
		batches:     batches,
		content:     content,
		queue:       queue,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		log:         &compLog,
	}
}

// PrepareBatch is a single logical pass: ledger row, validation,
// validation update, chunked publish. A ledger write failure aborts
// before anything is enqueued; a chunk publish failure is recorded and
// never blocks sibling chunks.
func (p *preparerUC) PrepareBatch(ctx context.Context, batchID, owner string, docs []model.Document, options model.AnalysisOptions) (*PrepareResult, error) {
	if batchID == "" || owner == "" {
		return nil, domain.ErrInvalidArgument
	}
	ctx = logging.WithOwner(logging.WithBatchID(ctx, batchID), owner)
	log := *logging.With(ctx, p.log)
	defer logging.TraceDuration(&log, "PreparerUC.PrepareBatch")()

	batch := model.NewBatchJob(batchID, owner, len(docs), options)
	if err := p.batches.Create(ctx, nil, batch); err != nil {
		return nil, fmt.Errorf("create batch ledger: %w", err)
	}

	valid, invalid := p.validate(ctx, docs)
	metrics.AddDocumentsValidated("valid", len(valid))
	metrics.AddDocumentsValidated("invalid", len(invalid))

	status := model.BatchStatusReady
	if len(valid) == 0 {
		// Nothing to process: terminal immediately, no queue traffic.
		status = model.BatchStatusCompleted
	}
	meta := model.BatchMetadata{
		SubmittedDocuments: len(docs),
		InvalidDocuments:   len(invalid),
		InvalidReasons:     invalid,
	}
	if err := p.batches.UpdateValidation(ctx, nil, batchID, status, len(valid), meta); err != nil {
		return nil, fmt.Errorf("update batch validation: %w", err)
	}
	metrics.IncBatchPrepared(string(status))

	result := &PrepareResult{
		BatchID:          batchID,
		Status:           status,
		ValidDocuments:   len(valid),
		InvalidDocuments: invalid,
	}
	if len(valid) == 0 {
		log.Info().Int("submitted", len(docs)).Msg("batch completed with no valid documents")
		return result, nil
	}

	chunks := model.ChunkDocuments(valid, p.chunkSize)
	result.TotalChunks = len(chunks)
	for i, chunk := range chunks {
		msg := adapter.QueueMessage{
			BatchID:     batchID,
			Owner:       owner,
			Options:     options,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Documents:   chunk,
			EnqueuedAt:  time.Now(),
		}
		if err := p.queue.Publish(ctx, msg); err != nil {
			// Sibling chunks keep going; the gap is reported, not hidden.
			log.Error().Err(err).Int("chunk_index", i).Msg("chunk publish failed")
			metrics.IncChunkPublished("error")
			result.FailedChunks = append(result.FailedChunks, i)
			continue
		}
		metrics.IncChunkPublished("ok")
		result.PublishedChunks++
	}

	log.Info().
		Int("submitted", len(docs)).
		Int("valid", len(valid)).
		Int("invalid", len(invalid)).
		Int("chunks", result.TotalChunks).
		Int("published", result.PublishedChunks).
		Msg("batch prepared")
	return result, nil
}

// validate judges every document independently with bounded parallelism.
// It is a pure function of the input and content-source state: probe
// failures mark the document invalid, they never escalate.
func (p *preparerUC) validate(ctx context.Context, docs []model.Document) ([]model.Document, []model.InvalidDocument) {
	validated := make([]model.Document, len(docs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)
	for i := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			validated[i] = p.validateOne(ctx, docs[i])
		}(i)
	}
	wg.Wait()

	var valid []model.Document
	var invalid []model.InvalidDocument
	for _, d := range validated {
		if d.Valid {
			valid = append(valid, d)
		} else {
			invalid = append(invalid, model.InvalidDocument{DocumentID: d.ID, Reason: d.ValidationError})
		}
	}
	return valid, invalid
}

func (p *preparerUC) validateOne(ctx context.Context, doc model.Document) model.Document {
	switch {
	case doc.HasRef() && doc.HasInlineContent():
		doc.Valid = false
		doc.ValidationError = "document sets both content and content reference"
	case doc.HasRef():
		info, err := p.content.Exists(ctx, doc.ContentRef)
		if err != nil {
			doc.Valid = false
			doc.ValidationError = fmt.Sprintf("content reference not accessible: %v", err)
			return doc
		}
		doc.Valid = true
		doc.Size = info.Size
		if doc.ContentType == "" {
			doc.ContentType = info.ContentType
		}
	case doc.HasInlineContent():
		doc.Valid = true
		doc.Size = int64(len(doc.Content))
	default:
		doc.Valid = false
		doc.ValidationError = "no content or reference provided"
	}
	return doc
}
