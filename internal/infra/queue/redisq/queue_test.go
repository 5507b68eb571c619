//go:build !integration

// File: internal/infra/queue/redisq/queue_test.go
package redisq

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNextMessageID_ConcurrentUniqueness(t *testing.T) {
	q := &Queue{entropy: newEntropy()}

	const (
		goroutines = 8
		perWorker  = 500
	)
	ids := make(chan string, goroutines*perWorker)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- q.nextMessageID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, goroutines*perWorker)
	for id := range ids {
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("generated id %q is not a valid ULID: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate message id generated under concurrency: %s", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != goroutines*perWorker {
		t.Errorf("expected %d distinct ids, got %d", goroutines*perWorker, len(seen))
	}
}
