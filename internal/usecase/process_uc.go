// File: internal/usecase/process_uc.go
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
var _ MessageProcessor = (*processorUC)(nil)

// ProcessOutcome summarizes one handled chunk. Applied is false when the
// message's counter delta had already been accounted (duplicate delivery).
type ProcessOutcome struct {
	Processed  int
	Successful int
	Failed     int
	Applied    bool
}

// MessageProcessor handles one delivered chunk. A returned error means
// the whole message must be redelivered and no counter update was
// committed; per-document failures are folded into the outcome instead.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, d adapter.Delivery) (*ProcessOutcome, error)
}

type processorUC struct {
	batches        repository.BatchRepository
	results        repository.ResultRepository
	content        adapter.ContentSource
	engine         adapter.AnalysisEngine
	docConcurrency int
	log            *zerolog.Logger
}

func NewMessageProcessor(
	batches repository.BatchRepository,
	results repository.ResultRepository,
	content adapter.ContentSource,
	engine adapter.AnalysisEngine,
	docConcurrency int,
	logger *zerolog.Logger,
) *processorUC {
	if docConcurrency <= 0 {
		docConcurrency = 5
	}
	compLog := logger.With().Str("component", "MessageProcessor").Logger()
	return &processorUC{
		batches:        batches,
		results:        results,
		content:        content,
		engine:         engine,
		docConcurrency: docConcurrency,
		log:            &compLog,
	}
}

// docOutcome is the per-document verdict within one message.
type docOutcome struct {
	failed bool  // content-resolution failure
	fatal  error // store/engine-context failure, poisons the message
}

func (p *processorUC) ProcessMessage(ctx context.Context, d adapter.Delivery) (*ProcessOutcome, error) {
	msg := d.Message
	messageID := msg.MessageID
	if messageID == "" {
		messageID = d.ID
	}
	ctx = logging.WithMessageID(logging.WithBatchID(ctx, msg.BatchID), messageID)
	log := logging.With(ctx, p.log).With().Int("chunk_index", msg.ChunkIndex).Logger()
	defer logging.TraceDuration(&log, "ProcessorUC.ProcessMessage")()
	start := time.Now()

	outcomes := make([]docOutcome, len(msg.Documents))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.docConcurrency)
	for i := range msg.Documents {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = p.processDocument(ctx, &msg, msg.Documents[i], &log)
		}(i)
	}
	wg.Wait()

	outcome := &ProcessOutcome{Processed: len(msg.Documents)}
	for _, o := range outcomes {
		if o.fatal != nil {
			// Message-level failure: no counter update, whole chunk is
			// redelivered by the transport.
			return nil, o.fatal
		}
		if o.failed {
			outcome.Failed++
		} else {
			outcome.Successful++
		}
	}

	applied, err := p.batches.IncrementCounters(ctx, msg.BatchID, repository.CounterDelta{
		MessageID:  messageID,
		Processed:  outcome.Processed,
		Successful: outcome.Successful,
		Failed:     outcome.Failed,
	})
	if err != nil {
		return nil, fmt.Errorf("increment batch counters: %w", err)
	}
	outcome.Applied = applied

	log.Info().
		Int("processed", outcome.Processed).
		Int("successful", outcome.Successful).
		Int("failed", outcome.Failed).
		Bool("counters_applied", applied).
		Dur("duration", time.Since(start)).
		Msg("chunk processed")
	return outcome, nil
}

// processDocument runs the strictly sequential per-document pipeline:
// resolve content, analyze, persist. Engine failures are already masked
// by the failover engine; only content resolution can fail a document.
func (p *processorUC) processDocument(ctx context.Context, msg *adapter.QueueMessage, doc model.Document, log *zerolog.Logger) docOutcome {
	text, err := p.resolveContent(ctx, doc)
	if err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID).Msg("content resolution failed")
		metrics.IncDocumentProcessed("failed")
		return docOutcome{failed: true}
	}

	analysis, err := p.engine.Analyze(ctx, text, msg.Options)
	if err != nil {
		// Only context/store-grade failures reach here; the fallback
		// engine absorbs everything else.
		return docOutcome{fatal: fmt.Errorf("analyze document %s: %w", doc.ID, err)}
	}

	cost := model.CostFor(analysis.Model, analysis.Usage)
	result := &model.AnalysisResult{
		BatchID:      msg.BatchID,
		DocumentID:   doc.ID,
		Filename:     doc.Filename,
		Accuracy:     analysis.Accuracy,
		RiskLevel:    analysis.RiskLevel,
		FlaggedSpans: analysis.FlaggedSpans,
		Excerpt:      model.Truncate(text),
		Model:        analysis.Model,
		Fallback:     analysis.Fallback,
		Cost:         cost,
	}
	if analysis.Usage != nil {
		result.InputTokens = analysis.Usage.InputTokens
		result.OutputTokens = analysis.Usage.OutputTokens
		metrics.ObserveEngineUsage(analysis.Model, analysis.Usage.InputTokens, analysis.Usage.OutputTokens, cost)
	}

	if err := p.results.Save(ctx, nil, result); err != nil {
		return docOutcome{fatal: fmt.Errorf("persist result for document %s: %w", doc.ID, err)}
	}
	metrics.IncDocumentProcessed("success")
	return docOutcome{}
}

func (p *processorUC) resolveContent(ctx context.Context, doc model.Document) (string, error) {
	if doc.HasInlineContent() {
		return doc.Content, nil
	}
	if !doc.HasRef() {
		return "", domain.ErrNoContent
	}
	b, err := p.content.Fetch(ctx, doc.ContentRef)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
	}
	if len(b) == 0 {
		return "", domain.ErrContentUnavailable
	}
	return string(b), nil
}
