package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budget/internal/core"
	"budget/internal/storage"
)

// GoalInput carries the editable fields of a saving goal.
type GoalInput struct {
	Title       string
	Target      core.Money
	Contributed core.Money
	Date        core.Date
	ImageRef    string
}

func (in GoalInput) goal() core.SavingGoal {
	return core.SavingGoal{
		Title:       strings.TrimSpace(in.Title),
		Target:      in.Target,
		Contributed: in.Contributed,
		Date:        in.Date,
		ImageRef:    strings.TrimSpace(in.ImageRef),
	}
}

// CreateGoal adds a goal funded from the user's goal-savings account, which
// is opened with the initial contribution when missing.
func (s *LedgerService) CreateGoal(ctx context.Context, userID int64, in GoalInput) (core.SavingGoal, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.SavingGoal{}, err
	}
	g := in.goal()
	if err := g.Validate(); err != nil {
		return core.SavingGoal{}, err
	}

	var created core.SavingGoal
	err := s.uow.run(ctx, "create_goal", func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		account, err := s.resolver.ResolveOrCreate(ctx, q, userID, core.ManualSelector{
			Name:           core.DefaultGoalSavingsName,
			Type:           core.GoalSavings,
			InitialBalance: g.Contributed,
		})
		if err != nil {
			return err
		}
		g.UserID = userID
		g.AccountID = account.ID
		if created, err = q.CreateGoal(ctx, g); err != nil {
			return err
		}
		_, err = s.reconciler.RecomputeGoalBalance(ctx, q, userID)
		return err
	})
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("create saving goal: %w", err)
	}

	slog.InfoContext(ctx, "Saving goal created",
		"user_id", userID,
		"goal_id", created.ID,
		"target_cents", created.Target.Cents,
		"contributed_cents", created.Contributed.Cents)

	s.emit(ctx, core.EventGoalCreated, userID, core.StrategyGoalRecompute, 1, created.AccountID)
	return created, nil
}

// UpdateGoal replaces the goal's fields. A goal whose contribution reaches
// its target through the edit is reopened with contributed reset to zero.
func (s *LedgerService) UpdateGoal(ctx context.Context, userID, id int64, in GoalInput) (core.SavingGoal, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.SavingGoal{}, err
	}
	if err := core.ValidateID(id, "saving goal id"); err != nil {
		return core.SavingGoal{}, err
	}
	edit := in.goal()
	if err := edit.Validate(); err != nil {
		return core.SavingGoal{}, err
	}

	var updated core.SavingGoal
	err := s.uow.run(ctx, "update_goal", func(q *storage.Queries) error {
		g, err := q.GetGoalForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		g.Title = edit.Title
		g.Target = edit.Target
		g.Contributed = edit.Contributed
		g.Date = edit.Date
		g.ImageRef = edit.ImageRef
		if g.Contributed.Cents >= g.Target.Cents {
			g.Contributed = core.Money{}
		}
		if err := q.UpdateGoal(ctx, g); err != nil {
			return err
		}
		if _, err := s.reconciler.RecomputeGoalBalance(ctx, q, userID); err != nil {
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("update saving goal %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Saving goal updated",
		"user_id", userID,
		"goal_id", id,
		"contributed_cents", updated.Contributed.Cents)

	s.emit(ctx, core.EventGoalUpdated, userID, core.StrategyGoalRecompute, 1, updated.AccountID)
	return updated, nil
}

// Contribute atomically adds amount to the goal's contribution.
func (s *LedgerService) Contribute(ctx context.Context, userID, id int64, amount core.Money) (core.SavingGoal, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.SavingGoal{}, err
	}
	if err := core.ValidateID(id, "saving goal id"); err != nil {
		return core.SavingGoal{}, err
	}
	if amount.Cents < 0 || amount.ValidateRange() != nil {
		return core.SavingGoal{}, fmt.Errorf("contribution: %w", core.ErrInvalidAmount)
	}

	var g core.SavingGoal
	err := s.uow.run(ctx, "contribute", func(q *storage.Queries) error {
		if err := q.IncrementGoalContribution(ctx, userID, id, amount); err != nil {
			return err
		}
		if _, err := s.reconciler.RecomputeGoalBalance(ctx, q, userID); err != nil {
			return err
		}
		var err error
		g, err = q.GetGoalForUser(ctx, userID, id)
		return err
	})
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("contribute to saving goal %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Saving goal contribution",
		"user_id", userID,
		"goal_id", id,
		"amount_cents", amount.Cents,
		"contributed_cents", g.Contributed.Cents)

	s.emit(ctx, core.EventGoalContributed, userID, core.StrategyGoalRecompute, 1, g.AccountID)
	return g, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, userID, id int64) error {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return err
	}
	if err := core.ValidateID(id, "saving goal id"); err != nil {
		return err
	}

	var account core.Account
	err := s.uow.run(ctx, "delete_goal", func(q *storage.Queries) error {
		if err := q.DeleteGoal(ctx, userID, id); err != nil {
			return err
		}
		var err error
		account, err = s.reconciler.RecomputeGoalBalance(ctx, q, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete saving goal %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Saving goal deleted", "user_id", userID, "goal_id", id)

	s.emit(ctx, core.EventGoalDeleted, userID, core.StrategyGoalRecompute, 1, account.ID)
	return nil
}

func (s *LedgerService) GetGoal(ctx context.Context, userID, id int64) (core.SavingGoal, error) {
	if err := core.ValidateID(id, "saving goal id"); err != nil {
		return core.SavingGoal{}, err
	}
	return s.storage.Queries().GetGoalForUser(ctx, userID, id)
}

func (s *LedgerService) ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	return s.storage.Queries().ListGoals(ctx, userID)
}
