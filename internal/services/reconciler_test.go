package services

import (
	"context"
	"testing"

	"budget/internal/core"
	"budget/internal/storage"
)

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.add(t, core.Credit, 4200, core.NewDate(2025, 1, 1))
	f.add(t, core.Debit, 200, core.NewDate(2025, 1, 2))

	r := NewReconciler()
	var balances []int64
	for i := 0; i < 2; i++ {
		err := f.repo.WithTx(ctx, func(q *storage.Queries) error {
			a, err := q.GetAccount(ctx, tx.AccountID)
			if err != nil {
				return err
			}
			a, err = r.RecomputeSpendingBalance(ctx, q, a)
			balances = append(balances, a.Balance.Cents)
			return err
		})
		if err != nil {
			t.Fatalf("recompute: %v", err)
		}
	}
	if balances[0] != 4000 || balances[1] != 4000 {
		t.Fatalf("expected 4000 twice, got %v", balances)
	}
}

func TestApplyDeltaStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.add(t, core.Credit, 100, core.NewDate(2025, 1, 1))

	stale, err := f.repo.Queries().GetAccount(ctx, tx.AccountID)
	if err != nil {
		t.Fatal(err)
	}
	f.add(t, core.Credit, 100, core.NewDate(2025, 1, 2))

	err = f.repo.WithTx(ctx, func(q *storage.Queries) error {
		_, err := NewReconciler().ApplyDelta(ctx, q, stale, core.Money{Cents: 5})
		return err
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := f.balance(t, tx.AccountID); got != 200 {
		t.Fatalf("stale write must not land, got %d", got)
	}
}
