package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
)

const goalColumns = `id, user_id, account_id, title, target_cents, contributed_cents, due_date, image_ref`

func scanGoal(r rowScanner) (core.SavingGoal, error) {
	var (
		g     core.SavingGoal
		due   string
		image sql.NullString
	)
	if err := r.Scan(&g.ID, &g.UserID, &g.AccountID, &g.Title, &g.Target.Cents, &g.Contributed.Cents, &due, &image); err != nil {
		return core.SavingGoal{}, err
	}
	d, err := time.Parse(core.DateLayout, due)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("saving goal %d: bad stored date %q: %w", g.ID, due, err)
	}
	g.Date = core.Date{Time: d}
	g.ImageRef = image.String
	return g, nil
}

func scanGoals(rows *sql.Rows) ([]core.SavingGoal, error) {
	defer rows.Close()
	var out []core.SavingGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saving goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

const createGoal = `INSERT INTO saving_goals (user_id, account_id, title, target_cents, contributed_cents, due_date, image_ref)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + goalColumns

func (q *Queries) CreateGoal(ctx context.Context, g core.SavingGoal) (core.SavingGoal, error) {
	row := q.db.QueryRowContext(ctx, createGoal,
		g.UserID, g.AccountID, g.Title, g.Target.Cents, g.Contributed.Cents, g.Date.String(), nullString(g.ImageRef))
	created, err := scanGoal(row)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("create saving goal: %w", err)
	}
	return created, nil
}

const getGoalForUser = `SELECT ` + goalColumns + ` FROM saving_goals WHERE id = ? AND user_id = ?`

func (q *Queries) GetGoalForUser(ctx context.Context, userID, id int64) (core.SavingGoal, error) {
	g, err := scanGoal(q.db.QueryRowContext(ctx, getGoalForUser, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingGoal{}, fmt.Errorf("saving goal %d: %w", id, core.ErrSavingGoalNotFound)
	}
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("get saving goal: %w", err)
	}
	return g, nil
}

const updateGoal = `UPDATE saving_goals
SET title = ?, target_cents = ?, contributed_cents = ?, due_date = ?, image_ref = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	res, err := q.db.ExecContext(ctx, updateGoal,
		g.Title, g.Target.Cents, g.Contributed.Cents, g.Date.String(), nullString(g.ImageRef), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update saving goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saving goal %d: %w", g.ID, core.ErrSavingGoalNotFound)
	}
	return nil
}

const incrementGoalContribution = `UPDATE saving_goals
SET contributed_cents = contributed_cents + ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND user_id = ?`

// IncrementGoalContribution adds amount to the goal in a single statement.
func (q *Queries) IncrementGoalContribution(ctx context.Context, userID, id int64, amount core.Money) error {
	res, err := q.db.ExecContext(ctx, incrementGoalContribution, amount.Cents, id, userID)
	if err != nil {
		return fmt.Errorf("increment contribution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saving goal %d: %w", id, core.ErrSavingGoalNotFound)
	}
	return nil
}

const deleteGoal = `DELETE FROM saving_goals WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteGoal, id, userID)
	if err != nil {
		return fmt.Errorf("delete saving goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saving goal %d: %w", id, core.ErrSavingGoalNotFound)
	}
	return nil
}

const listGoals = `SELECT ` + goalColumns + ` FROM saving_goals WHERE user_id = ? ORDER BY due_date, id`

func (q *Queries) ListGoals(ctx context.Context, userID int64) ([]core.SavingGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, userID)
	if err != nil {
		return nil, fmt.Errorf("list saving goals: %w", err)
	}
	return scanGoals(rows)
}

const topGoalsByTarget = `SELECT ` + goalColumns + ` FROM saving_goals
WHERE user_id = ?
ORDER BY target_cents DESC, id
LIMIT ?`

func (q *Queries) TopGoalsByTarget(ctx context.Context, userID int64, limit int) ([]core.SavingGoal, error) {
	rows, err := q.db.QueryContext(ctx, topGoalsByTarget, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("top saving goals: %w", err)
	}
	return scanGoals(rows)
}

const sumContributed = `SELECT COALESCE(SUM(contributed_cents), 0) FROM saving_goals WHERE user_id = ?`

func (q *Queries) SumContributed(ctx context.Context, userID int64) (core.Money, error) {
	var m core.Money
	if err := q.db.QueryRowContext(ctx, sumContributed, userID).Scan(&m.Cents); err != nil {
		return core.Money{}, fmt.Errorf("sum contributions: %w", err)
	}
	return m, nil
}

const countGoals = `SELECT
    COUNT(*),
    COALESCE(SUM(contributed_cents >= target_cents), 0),
    COALESCE(SUM(contributed_cents < target_cents), 0),
    COALESCE(SUM(due_date < ?), 0)
FROM saving_goals WHERE user_id = ?`

// CountGoals classifies the user's goals relative to today in one pass.
func (q *Queries) CountGoals(ctx context.Context, userID int64, today core.Date) (core.GoalCounts, error) {
	var c core.GoalCounts
	err := q.db.QueryRowContext(ctx, countGoals, today.String(), userID).Scan(&c.Total, &c.Completed, &c.InProgress, &c.Overdue)
	if err != nil {
		return core.GoalCounts{}, fmt.Errorf("count saving goals: %w", err)
	}
	return c, nil
}
