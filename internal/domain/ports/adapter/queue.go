package adapter

import (
	"context"
	"time"

	"veracity-pipeline/internal/domain/model"
)

// QueueMessage is the wire contract between preparer and worker: one
// chunk of a batch's valid documents. Messages are independently
// retryable; a failure never blocks sibling chunks.
type QueueMessage struct {
	// MessageID is assigned once at publish time and survives
	// redelivery; counter updates are deduplicated against it.
	MessageID   string                `json:"message_id"`
	BatchID     string                `json:"batch_id"`
	Owner       string                `json:"owner"`
	Options     model.AnalysisOptions `json:"options,omitempty"`
	ChunkIndex  int                   `json:"chunk_index"`
	TotalChunks int                   `json:"total_chunks"`
	Documents   []model.Document      `json:"documents"`
	EnqueuedAt  time.Time             `json:"enqueued_at"`
}

// Delivery is one received message plus its transport identity. ID is
// the transport's ack/redelivery handle.
type Delivery struct {
	ID      string
	Message QueueMessage
}

type QueuePublisher interface {
	Publish(ctx context.Context, msg QueueMessage) error
}

// QueueConsumer delivers bounded batches under at-least-once semantics.
// Messages not acked before the visibility timeout are redelivered via
// Reclaim to whichever consumer asks first.
type QueueConsumer interface {
	Receive(ctx context.Context, max int64, block time.Duration) ([]Delivery, error)
	Ack(ctx context.Context, ids ...string) error
	Reclaim(ctx context.Context, minIdle time.Duration, max int64) ([]Delivery, error)
}
