package ports

import "context"

// Notifier delivers operator-facing text messages. Delivery is fire-and-forget:
// failures are logged by the implementation and never affect trading state.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// NopNotifier discards every message. Used when no channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, msg string) {}
