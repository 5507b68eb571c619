// File: internal/infra/worker/consumer.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"veracity-pipeline/internal/config"
	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/ports/adapter"
	"veracity-pipeline/internal/infra/metrics"
	"veracity-pipeline/internal/usecase"
)

// Consumer drives the analysis worker: it polls the queue for a bounded
// delivery batch, dispatches each message to the pool, acks everything
// that was handled, and leaves failures pending so the transport
// redelivers them after the visibility timeout.
type Consumer struct {
	queue    adapter.QueueConsumer
	proc     usecase.MessageProcessor
	notifier adapter.AlertNotifier
	pool     *Pool
	cfg      config.QueueConfig
	log      *zerolog.Logger
}

func NewConsumer(
	queue adapter.QueueConsumer,
	proc usecase.MessageProcessor,
	notifier adapter.AlertNotifier,
	pool *Pool,
	cfg config.QueueConfig,
	logger *zerolog.Logger,
) *Consumer {
	compLog := logger.With().Str("component", "AnalysisConsumer").Logger()
	return &Consumer{
		queue:    queue,
		proc:     proc,
		notifier: notifier,
		pool:     pool,
		cfg:      cfg,
		log:      &compLog,
	}
}

// Run loops until ctx is cancelled. Each cycle handles at most one
// delivery batch plus any messages reclaimed from stalled consumers.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("Starting analysis consumer")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Stopping analysis consumer")
			return ctx.Err()
		default:
		}
		c.runCycle(ctx)
	}
}

func (c *Consumer) runCycle(ctx context.Context) {
	deliveries, err := c.queue.Receive(ctx, c.cfg.BatchSize, c.cfg.Block)
	if err != nil && !errors.Is(err, domain.ErrQueueEmpty) {
		if ctx.Err() != nil {
			return
		}
		c.log.Error().Err(err).Msg("queue receive failed")
		time.Sleep(time.Second)
		return
	}

	reclaimed, err := c.queue.Reclaim(ctx, c.cfg.VisibilityTimeout, c.cfg.BatchSize)
	if err != nil && ctx.Err() == nil {
		c.log.Error().Err(err).Msg("queue reclaim failed")
	}
	if len(reclaimed) > 0 {
		metrics.AddMessagesReclaimed(len(reclaimed))
		c.log.Warn().Int("count", len(reclaimed)).Msg("reclaimed messages past visibility timeout")
		deliveries = append(deliveries, reclaimed...)
	}
	if len(deliveries) == 0 {
		return
	}

	// Partial-batch-failure reporting: each message succeeds or fails on
	// its own; only the failed subset stays pending for redelivery.
	type handled struct {
		delivery adapter.Delivery
		err      error
	}
	results := make([]handled, len(deliveries))
	var wg sync.WaitGroup
	for i, d := range deliveries {
		i, d := i, d
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			_, err := c.proc.ProcessMessage(ctx, d)
			results[i] = handled{delivery: d, err: err}
			return nil
		}
		if err := c.pool.Submit(task); err != nil {
			// Pool saturated: process inline rather than dropping work.
			_ = task(ctx)
		}
	}
	wg.Wait()

	var acked []string
	failures := 0
	for _, r := range results {
		if r.err != nil {
			failures++
			metrics.IncMessageConsumed("redelivery")
			c.log.Error().Err(r.err).
				Str("batch_id", r.delivery.Message.BatchID).
				Str("message_id", r.delivery.Message.MessageID).
				Msg("message handling failed, leaving for redelivery")
			c.alert(ctx, fmt.Sprintf("analysis worker: chunk %d/%d of batch %s failed: %v",
				r.delivery.Message.ChunkIndex+1, r.delivery.Message.TotalChunks,
				r.delivery.Message.BatchID, r.err))
			continue
		}
		metrics.IncMessageConsumed("acked")
		acked = append(acked, r.delivery.ID)
	}

	if len(acked) > 0 {
		if err := c.queue.Ack(ctx, acked...); err != nil {
			// Redelivery of acked work is safe: counter updates are
			// idempotent per message id.
			c.log.Error().Err(err).Msg("queue ack failed")
		}
	}
	if failures > 0 {
		c.alert(ctx, fmt.Sprintf("analysis worker: %d of %d messages failed this cycle", failures, len(deliveries)))
	}
	c.log.Info().Int("handled", len(deliveries)).Int("failed", failures).Msg("consume cycle finished")
}

// alert is fire-and-forget: notifier failures are logged, never raised.
func (c *Consumer) alert(ctx context.Context, text string) {
	if err := c.notifier.Alert(ctx, text); err != nil {
		c.log.Warn().Err(err).Msg("alert delivery failed")
	}
}
