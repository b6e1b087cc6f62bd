package services

import (
	"context"
	"log/slog"

	"budget/internal/core"
)

// Notifier is told about ledger mutations after they commit.
type Notifier interface {
	Notify(ctx context.Context, ev core.LedgerEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev core.LedgerEvent) error

func (f NotifierFunc) Notify(ctx context.Context, ev core.LedgerEvent) error {
	return f(ctx, ev)
}

// notifyAll fans ev out to every notifier. The mutation has already
// committed, so failures are logged and dropped.
func notifyAll(ctx context.Context, notifiers []Notifier, ev core.LedgerEvent) {
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver ledger event",
				"event", ev.Type,
				"user_id", ev.UserID,
				"error", err)
		}
	}
}
