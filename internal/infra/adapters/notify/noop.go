package notify

import (
	"context"

	"veracity-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AlertNotifier = (*NoopNotifier)(nil)

// NoopNotifier is used when no alert channel is configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) Alert(context.Context, string) error { return nil }
