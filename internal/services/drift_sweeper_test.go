package services

import (
	"context"
	"testing"
	"time"

	"budget/internal/core"
)

func TestDriftSweeperRepairsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tx := f.add(t, core.Credit, 5000, core.NewDate(2025, 2, 1))
	f.add(t, core.Debit, 1200, core.NewDate(2025, 2, 2))

	q := f.repo.Queries()
	a, err := q.GetAccount(ctx, tx.AccountID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.UpdateAccountBalance(ctx, a, core.Money{Cents: 1}); err != nil {
		t.Fatal(err)
	}

	notes := &recordingNotifier{}
	sweeper := NewDriftSweeper(f.repo, NewReconciler(), DriftSweeperConfig{}, notes)
	n, err := sweeper.SweepOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 repair, got %d (%v)", n, err)
	}
	if got := f.balance(t, tx.AccountID); got != 3800 {
		t.Fatalf("expected 38.00, got %d", got)
	}
	if ev := notes.last(); ev.Type != core.EventBalanceRepaired || ev.AccountIDs[0] != tx.AccountID {
		t.Fatalf("unexpected event %+v", ev)
	}

	n, err = sweeper.SweepOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second sweep should be a no-op, got %d (%v)", n, err)
	}
}

func TestDriftSweeperLifecycle(t *testing.T) {
	f := newFixture(t)
	sweeper := NewDriftSweeper(f.repo, NewReconciler(), DriftSweeperConfig{Interval: time.Hour})
	ctx := context.Background()

	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sweeper.IsRunning() {
		t.Fatal("expected running")
	}
	if err := sweeper.Start(ctx); err == nil {
		t.Fatal("expected error on second start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sweeper.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if sweeper.IsRunning() {
		t.Fatal("expected stopped")
	}
	if err := sweeper.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
