//go:build !integration

// File: internal/infra/logging/logging_test.go
package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithOwner(WithMessageID(WithBatchID(context.Background(), "batch-1"), "msg-1"), "owner-1")
	log := With(ctx, &base)
	log.Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{`"batch_id":"batch-1"`, `"message_id":"msg-1"`, `"owner":"owner-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestWith_EmptyContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	log := With(context.Background(), &base)
	log.Info().Msg("hello")

	out := buf.String()
	for _, field := range []string{"batch_id", "message_id", "owner"} {
		if strings.Contains(out, field) {
			t.Errorf("log line should not carry %s: %s", field, out)
		}
	}
}

func TestTraceDuration(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.TraceLevel)

	done := TraceDuration(&base, "Preparer.PrepareBatch")
	done()

	out := buf.String()
	if !strings.Contains(out, `"method":"Preparer.PrepareBatch"`) {
		t.Errorf("trace lines missing method field: %s", out)
	}
	if !strings.Contains(out, "start") || !strings.Contains(out, "finish") {
		t.Errorf("expected start and finish entries: %s", out)
	}
	if !strings.Contains(out, "duration") {
		t.Errorf("finish entry missing duration: %s", out)
	}
}
