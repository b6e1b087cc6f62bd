package services

import (
	"context"
	"errors"
	"log/slog"

	"budget/internal/core"
	"budget/internal/storage"
)

// DefaultMaxRetries bounds how often a unit of work is replayed after losing
// an optimistic balance update.
const DefaultMaxRetries = 3

type unitOfWork struct {
	repo       *storage.SQLiteRepository
	maxRetries int
}

// run executes fn in a transaction, replaying it from scratch when a balance
// write hits a version conflict. fn must re-read everything it writes.
func (u unitOfWork) run(ctx context.Context, op string, fn func(q *storage.Queries) error) error {
	var err error
	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		err = u.repo.WithTx(ctx, fn)
		if !errors.Is(err, core.ErrConflict) {
			return err
		}
		slog.WarnContext(ctx, "Balance version conflict, retrying",
			"operation", op,
			"attempt", attempt+1,
			"error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
