//go:build !integration

// File: internal/infra/worker/consumer_test.go
package worker

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"veracity-pipeline/internal/config"
	"veracity-pipeline/internal/domain"
	"veracity-pipeline/internal/domain/ports/adapter"
	"veracity-pipeline/internal/usecase"
)

type fakeQueue struct {
	mu        sync.Mutex
	pending   []adapter.Delivery
	reclaimed []adapter.Delivery
	acked     []string
}

func (q *fakeQueue) Receive(ctx context.Context, max int64, block time.Duration) ([]adapter.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, domain.ErrQueueEmpty
	}
	out := q.pending
	q.pending = nil
	return out, nil
}

func (q *fakeQueue) Ack(ctx context.Context, ids ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, ids...)
	return nil
}

func (q *fakeQueue) Reclaim(ctx context.Context, minIdle time.Duration, max int64) ([]adapter.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.reclaimed
	q.reclaimed = nil
	return out, nil
}

func (q *fakeQueue) ackedIDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.acked))
	copy(out, q.acked)
	sort.Strings(out)
	return out
}

type fakeProcessor struct {
	mu      sync.Mutex
	failIDs map[string]bool
	handled []string
}

func (p *fakeProcessor) ProcessMessage(ctx context.Context, d adapter.Delivery) (*usecase.ProcessOutcome, error) {
	p.mu.Lock()
	p.handled = append(p.handled, d.ID)
	fail := p.failIDs[d.ID]
	p.mu.Unlock()
	if fail {
		return nil, errors.New("store unavailable")
	}
	n := len(d.Message.Documents)
	return &usecase.ProcessOutcome{Processed: n, Successful: n, Applied: true}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *fakeNotifier) Alert(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, text)
	return nil
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.alerts))
	copy(out, n.alerts)
	return out
}

func discardLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func mkDelivery(id, batchID string, chunk int) adapter.Delivery {
	return adapter.Delivery{
		ID: id,
		Message: adapter.QueueMessage{
			MessageID:   "m-" + id,
			BatchID:     batchID,
			ChunkIndex:  chunk,
			TotalChunks: 3,
		},
	}
}

func queueCfg() config.QueueConfig {
	return config.QueueConfig{
		BatchSize:         5,
		Block:             10 * time.Millisecond,
		VisibilityTimeout: time.Minute,
	}
}

func TestConsumer_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("acks only the messages that were handled", func(t *testing.T) {
		queue := &fakeQueue{pending: []adapter.Delivery{
			mkDelivery("1-0", "batch-a", 0),
			mkDelivery("2-0", "batch-a", 1),
			mkDelivery("3-0", "batch-a", 2),
		}}
		proc := &fakeProcessor{failIDs: map[string]bool{"2-0": true}}
		notifier := &fakeNotifier{}

		pool := NewPool(2, discardLogger())
		pool.Start(ctx)
		defer pool.Stop()

		c := NewConsumer(queue, proc, notifier, pool, queueCfg(), discardLogger())
		c.runCycle(ctx)

		acked := queue.ackedIDs()
		if len(acked) != 2 || acked[0] != "1-0" || acked[1] != "3-0" {
			t.Errorf("acked = %v, want [1-0 3-0]", acked)
		}

		alerts := notifier.all()
		if len(alerts) != 2 {
			t.Fatalf("expected per-failure alert plus cycle summary, got %v", alerts)
		}
		if !strings.Contains(alerts[0], "batch-a") {
			t.Errorf("failure alert should name the batch: %q", alerts[0])
		}
		if !strings.Contains(alerts[1], "1 of 3 messages failed") {
			t.Errorf("summary alert mismatch: %q", alerts[1])
		}
	})

	t.Run("includes reclaimed messages in the cycle", func(t *testing.T) {
		queue := &fakeQueue{
			pending:   []adapter.Delivery{mkDelivery("1-0", "batch-b", 0)},
			reclaimed: []adapter.Delivery{mkDelivery("9-0", "batch-b", 1)},
		}
		proc := &fakeProcessor{}
		notifier := &fakeNotifier{}

		pool := NewPool(2, discardLogger())
		pool.Start(ctx)
		defer pool.Stop()

		c := NewConsumer(queue, proc, notifier, pool, queueCfg(), discardLogger())
		c.runCycle(ctx)

		acked := queue.ackedIDs()
		if len(acked) != 2 {
			t.Errorf("reclaimed message should be handled and acked too, acked = %v", acked)
		}
		if len(notifier.all()) != 0 {
			t.Errorf("no alerts expected on a clean cycle: %v", notifier.all())
		}
	})

	t.Run("an empty cycle acks and alerts nothing", func(t *testing.T) {
		queue := &fakeQueue{}
		proc := &fakeProcessor{}
		notifier := &fakeNotifier{}

		pool := NewPool(1, discardLogger())
		pool.Start(ctx)
		defer pool.Stop()

		c := NewConsumer(queue, proc, notifier, pool, queueCfg(), discardLogger())
		c.runCycle(ctx)

		if len(queue.ackedIDs()) != 0 || len(notifier.all()) != 0 || len(proc.handled) != 0 {
			t.Errorf("empty cycle must be a no-op")
		}
	})

	t.Run("processes inline when the pool is saturated", func(t *testing.T) {
		queue := &fakeQueue{pending: []adapter.Delivery{
			mkDelivery("1-0", "batch-c", 0),
			mkDelivery("2-0", "batch-c", 1),
		}}
		proc := &fakeProcessor{}
		notifier := &fakeNotifier{}

		// A pool that was never started accepts submissions into its
		// buffer but runs nothing; fill the buffer so Submit rejects and
		// the consumer has to run tasks inline.
		pool := NewPool(1, discardLogger())
		for pool.Submit(func(ctx context.Context) error { return nil }) == nil {
		}

		c := NewConsumer(queue, proc, notifier, pool, queueCfg(), discardLogger())
		c.runCycle(ctx)

		if len(proc.handled) != 2 {
			t.Errorf("expected inline handling of both messages, handled = %v", proc.handled)
		}
		if len(queue.ackedIDs()) != 2 {
			t.Errorf("inline-handled messages should still be acked: %v", queue.ackedIDs())
		}
	})
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	queue := &fakeQueue{}
	pool := NewPool(1, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	defer pool.Stop()

	c := NewConsumer(queue, &fakeProcessor{}, &fakeNotifier{}, pool, queueCfg(), discardLogger())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
