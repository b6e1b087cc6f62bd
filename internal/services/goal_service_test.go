package services

import (
	"context"
	"errors"
	"testing"

	"budget/internal/core"
	"budget/internal/storage"
)

func goalAccountBalance(t *testing.T, f *fixture) int64 {
	t.Helper()
	a, ok, err := f.repo.Queries().FindAccountByUserAndType(context.Background(), f.user.ID, core.GoalSavings)
	if err != nil || !ok {
		t.Fatalf("goal savings account missing: ok=%v err=%v", ok, err)
	}
	return a.Balance.Cents
}

func TestCreateGoalProvisionsGoalSavings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{
		Title: "Bike", Target: core.Money{Cents: 80000}, Contributed: core.Money{Cents: 10000}, Date: core.NewDate(2025, 9, 1),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if g.ID == 0 || g.AccountID == 0 {
		t.Fatalf("goal not persisted: %+v", g)
	}
	if got := goalAccountBalance(t, f); got != 10000 {
		t.Fatalf("expected goal savings 100.00, got %d", got)
	}

	if _, err := f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{
		Title: "Trip", Target: core.Money{Cents: 50000}, Contributed: core.Money{Cents: 2500}, Date: core.NewDate(2025, 12, 1),
	}); err != nil {
		t.Fatalf("create second goal: %v", err)
	}
	if got := goalAccountBalance(t, f); got != 12500 {
		t.Fatalf("expected goal savings 125.00, got %d", got)
	}

	accounts, err := f.ledger.ListAccounts(ctx, f.user.ID)
	if err != nil || len(accounts) != 1 || accounts[0].Name != core.DefaultGoalSavingsName {
		t.Fatalf("expected a single goal savings account, got %+v (%v)", accounts, err)
	}
	if ev := f.notes.last(); ev.Type != core.EventGoalCreated || ev.Strategy != core.StrategyGoalRecompute {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestContributeIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{Title: "Car", Target: core.Money{Cents: 100000}, Date: core.NewDate(2026, 1, 1)})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	prev := int64(0)
	for _, cents := range []int64{100, 0, 2500, 1} {
		got, err := f.ledger.Contribute(ctx, f.user.ID, g.ID, core.Money{Cents: cents})
		if err != nil {
			t.Fatalf("contribute %d: %v", cents, err)
		}
		if got.Contributed.Cents != prev+cents {
			t.Fatalf("expected %d, got %d", prev+cents, got.Contributed.Cents)
		}
		prev = got.Contributed.Cents
	}
	if got := goalAccountBalance(t, f); got != prev {
		t.Fatalf("goal savings %d does not match contributions %d", got, prev)
	}

	if _, err := f.ledger.Contribute(ctx, f.user.ID, g.ID, core.Money{Cents: -1}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := f.ledger.Contribute(ctx, f.user.ID, 9999, core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateGoalResetsReachedContribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{
		Title: "Laptop", Target: core.Money{Cents: 150000}, Contributed: core.Money{Cents: 50000}, Date: core.NewDate(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	kept, err := f.ledger.UpdateGoal(ctx, f.user.ID, g.ID, GoalInput{
		Title: "Laptop Pro", Target: core.Money{Cents: 200000}, Contributed: core.Money{Cents: 60000}, Date: core.NewDate(2025, 7, 1),
	})
	if err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if kept.Contributed.Cents != 60000 || kept.Title != "Laptop Pro" {
		t.Fatalf("unexpected goal %+v", kept)
	}

	reset, err := f.ledger.UpdateGoal(ctx, f.user.ID, g.ID, GoalInput{
		Title: "Laptop Pro", Target: core.Money{Cents: 200000}, Contributed: core.Money{Cents: 200000}, Date: core.NewDate(2025, 7, 1),
	})
	if err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if reset.Contributed.Cents != 0 {
		t.Fatalf("expected contribution reset, got %d", reset.Contributed.Cents)
	}
	if got := goalAccountBalance(t, f); got != 0 {
		t.Fatalf("expected goal savings 0, got %d", got)
	}
}

func TestDeleteGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{Title: "A", Target: core.Money{Cents: 1000}, Contributed: core.Money{Cents: 300}, Date: core.NewDate(2025, 5, 1)})
	f.ledger.CreateGoal(ctx, f.user.ID, GoalInput{Title: "B", Target: core.Money{Cents: 1000}, Contributed: core.Money{Cents: 200}, Date: core.NewDate(2025, 5, 1)})

	if err := f.ledger.DeleteGoal(ctx, f.user.ID, a.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	if got := goalAccountBalance(t, f); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if err := f.ledger.DeleteGoal(ctx, f.user.ID, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	goals, err := f.ledger.ListGoals(ctx, f.user.ID)
	if err != nil || len(goals) != 1 || goals[0].Title != "B" {
		t.Fatalf("unexpected goals %+v (%v)", goals, err)
	}
}

func TestGoalValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inputs := []GoalInput{
		{Title: "  ", Target: core.Money{Cents: 1}, Date: core.NewDate(2025, 1, 1)},
		{Title: "x", Target: core.Money{Cents: -1}, Date: core.NewDate(2025, 1, 1)},
		{Title: "x", Target: core.Money{Cents: 1}, Contributed: core.Money{Cents: -1}, Date: core.NewDate(2025, 1, 1)},
	}
	for _, in := range inputs {
		if _, err := f.ledger.CreateGoal(ctx, f.user.ID, in); !errors.Is(err, core.ErrInvalidArgument) {
			t.Errorf("input %+v: expected invalid argument, got %v", in, err)
		}
	}
}

func TestRecomputeGoalBalanceRequiresAccount(t *testing.T) {
	f := newFixture(t)
	err := f.repo.WithTx(context.Background(), func(q *storage.Queries) error {
		_, err := NewReconciler().RecomputeGoalBalance(context.Background(), q, f.user.ID)
		return err
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}
