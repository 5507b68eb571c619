// File: internal/infra/queue/redisq/queue.go
package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"veracity-pipeline/internal/config"
	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/ports/adapter"
)

// Compile-time conformance
var (
	_ adapter.QueuePublisher = (*Queue)(nil)
	_ adapter.QueueConsumer  = (*Queue)(nil)
)

// Queue is a durable chunk queue on a Redis stream with one consumer
// group. Delivery is at-least-once: entries stay pending until acked,
// and Reclaim redrives entries idle past the visibility timeout.
type Queue struct {
	cli      *redis.Client
	stream   string
	group    string
	consumer string
	entropy  *ulid.LockedMonotonicReader
	log      *zerolog.Logger
}

func New(ctx context.Context, rcfg *config.RedisConfig, qcfg *config.QueueConfig, logger *zerolog.Logger) (*Queue, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     rcfg.URL,
		Password: rcfg.Password,
		DB:       rcfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	// Idempotent group creation; BUSYGROUP means it already exists.
	err := cli.XGroupCreateMkStream(ctx, qcfg.Stream, qcfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	compLog := logger.With().Str("component", "redisq").Str("stream", qcfg.Stream).Logger()
	return &Queue{
		cli:      cli,
		stream:   qcfg.Stream,
		group:    qcfg.Group,
		consumer: qcfg.Consumer,
		entropy:  newEntropy(),
		log:      &compLog,
	}, nil
}

// newEntropy builds the message-id source. Publishes run concurrently
// across API requests, so the monotonic reader must be the locked kind.
func newEntropy() *ulid.LockedMonotonicReader {
	return &ulid.LockedMonotonicReader{
		MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (q *Queue) nextMessageID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), q.entropy).String()
}

// Publish appends one chunk to the stream. Message attributes ride as
// top-level fields so the stream can be inspected without decoding the
// payload.
func (q *Queue) Publish(ctx context.Context, msg adapter.QueueMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = q.nextMessageID()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	err = q.cli.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"message_id": msg.MessageID,
			"batch_id":   msg.BatchID,
			"owner":      msg.Owner,
			"doc_count":  len(msg.Documents),
			"payload":    payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

// Receive blocks up to block for at most max fresh messages.
func (q *Queue) Receive(ctx context.Context, max int64, block time.Duration) ([]adapter.Delivery, error) {
	streams, err := q.cli.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    max,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrQueueEmpty
		}
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var out []adapter.Delivery
	for _, s := range streams {
		out = append(out, q.decodeEntries(s.Messages)...)
	}
	return out, nil
}

// Ack removes entries from the pending list; unacked entries are the
// redelivery set.
func (q *Queue) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return q.cli.XAck(ctx, q.stream, q.group, ids...).Err()
}

// Reclaim takes over entries pending longer than minIdle, regardless of
// which consumer first received them.
func (q *Queue) Reclaim(ctx context.Context, minIdle time.Duration, max int64) ([]adapter.Delivery, error) {
	msgs, _, err := q.cli.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumer,
		MinIdle:  minIdle,
		Start:    "0",
		Count:    max,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	return q.decodeEntries(msgs), nil
}

func (q *Queue) Close() error { return q.cli.Close() }

func (q *Queue) decodeEntries(entries []redis.XMessage) []adapter.Delivery {
	out := make([]adapter.Delivery, 0, len(entries))
	for _, e := range entries {
		raw, ok := e.Values["payload"].(string)
		if !ok {
			// Poison entry: ack it away so it cannot wedge the group.
			q.log.Error().Str("entry_id", e.ID).Msg("stream entry without payload, discarding")
			_ = q.cli.XAck(context.Background(), q.stream, q.group, e.ID).Err()
			continue
		}
		var msg adapter.QueueMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			q.log.Error().Err(err).Str("entry_id", e.ID).Msg("undecodable stream entry, discarding")
			_ = q.cli.XAck(context.Background(), q.stream, q.group, e.ID).Err()
			continue
		}
		out = append(out, adapter.Delivery{ID: e.ID, Message: msg})
	}
	return out
}
