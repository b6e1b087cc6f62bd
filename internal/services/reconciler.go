package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/storage"
)

// Reconciler keeps an account's cached balance in agreement with the ledger.
// Every method must run inside the unit of work that changed the ledger.
//
// Full recomputation always derives the balance as the sum of the account's
// transaction amounts; the per-row balance snapshot is display data only.
type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// ApplyDelta adds delta to the account's cached balance.
func (r *Reconciler) ApplyDelta(ctx context.Context, q *storage.Queries, a core.Account, delta core.Money) (core.Account, error) {
	updated, err := q.UpdateAccountBalance(ctx, a, a.Balance.Add(delta))
	if err != nil {
		return core.Account{}, fmt.Errorf("apply delta to account %d: %w", a.ID, err)
	}

	slog.DebugContext(ctx, "Balance adjusted",
		"account_id", a.ID,
		"strategy", core.StrategyDelta,
		"delta_cents", delta.Cents,
		"balance_cents", updated.Balance.Cents)

	return updated, nil
}

// SyncOnEdit persists newAmount on t and shifts the owning account by the
// difference from t's current amount.
func (r *Reconciler) SyncOnEdit(ctx context.Context, q *storage.Queries, t core.Transaction, newAmount core.Money) (core.Transaction, core.Account, error) {
	a, err := q.GetAccount(ctx, t.AccountID)
	if err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	delta := newAmount.Sub(t.Amount)

	if err := q.UpdateTransactionAmount(ctx, t.ID, newAmount); err != nil {
		return core.Transaction{}, core.Account{}, err
	}
	updated, err := q.UpdateAccountBalance(ctx, a, a.Balance.Add(delta))
	if err != nil {
		return core.Transaction{}, core.Account{}, fmt.Errorf("sync edit on account %d: %w", a.ID, err)
	}
	t.Amount = newAmount

	slog.DebugContext(ctx, "Balance adjusted",
		"account_id", a.ID,
		"transaction_id", t.ID,
		"strategy", core.StrategyEditDelta,
		"delta_cents", delta.Cents,
		"balance_cents", updated.Balance.Cents)

	return t, updated, nil
}

// RecomputeSpendingBalance rederives the balance from the account's ledger.
// Calling it twice on an unchanged ledger yields the same balance.
func (r *Reconciler) RecomputeSpendingBalance(ctx context.Context, q *storage.Queries, a core.Account) (core.Account, error) {
	sum, err := q.SumTransactionAmounts(ctx, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	updated, err := q.UpdateAccountBalance(ctx, a, sum)
	if err != nil {
		return core.Account{}, fmt.Errorf("recompute account %d: %w", a.ID, err)
	}

	if sum != a.Balance {
		slog.InfoContext(ctx, "Balance recomputed",
			"account_id", a.ID,
			"strategy", core.StrategyRecompute,
			"previous_cents", a.Balance.Cents,
			"balance_cents", sum.Cents)
	}

	return updated, nil
}

// RecomputeGoalBalance sets the user's goal-savings balance to the total
// contributed across their goals. The account must already exist.
func (r *Reconciler) RecomputeGoalBalance(ctx context.Context, q *storage.Queries, userID int64) (core.Account, error) {
	a, ok, err := q.FindAccountByUserAndType(ctx, userID, core.GoalSavings)
	if err != nil {
		return core.Account{}, err
	}
	if !ok {
		return core.Account{}, fmt.Errorf("goal savings for user %d: %w", userID, core.ErrAccountNotFound)
	}
	sum, err := q.SumContributed(ctx, userID)
	if err != nil {
		return core.Account{}, err
	}
	updated, err := q.UpdateAccountBalance(ctx, a, sum)
	if err != nil {
		return core.Account{}, fmt.Errorf("recompute goal savings %d: %w", a.ID, err)
	}

	slog.DebugContext(ctx, "Balance recomputed",
		"account_id", a.ID,
		"strategy", core.StrategyGoalRecompute,
		"balance_cents", sum.Cents)

	return updated, nil
}
