package adapter

import "context"

// AlertNotifier is the out-of-band channel for operational alerts.
// Alerts are fire-and-forget: callers log a returned error and move on;
// a notifier failure must never affect pipeline correctness.
type AlertNotifier interface {
	Alert(ctx context.Context, text string) error
}
