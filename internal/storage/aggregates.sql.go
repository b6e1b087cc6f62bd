package storage

import (
	"context"
	"fmt"

	"budget/internal/core"
)

const sumIncome = `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
WHERE user_id = ? AND amount_cents > 0 AND date BETWEEN ? AND ?`

func (q *Queries) SumIncome(ctx context.Context, userID int64, start, end core.Date) (core.Money, error) {
	var m core.Money
	if err := q.db.QueryRowContext(ctx, sumIncome, userID, start.String(), end.String()).Scan(&m.Cents); err != nil {
		return core.Money{}, fmt.Errorf("sum income: %w", err)
	}
	return m, nil
}

const sumExpense = `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
WHERE user_id = ? AND amount_cents < 0 AND date BETWEEN ? AND ?`

func (q *Queries) SumExpense(ctx context.Context, userID int64, start, end core.Date) (core.Money, error) {
	var m core.Money
	if err := q.db.QueryRowContext(ctx, sumExpense, userID, start.String(), end.String()).Scan(&m.Cents); err != nil {
		return core.Money{}, fmt.Errorf("sum expense: %w", err)
	}
	return m, nil
}

const incomeByMonth = `SELECT CAST(strftime('%m', date) AS INTEGER) AS month, SUM(amount_cents)
FROM transactions
WHERE user_id = ? AND amount_cents > 0 AND strftime('%Y', date) = ?
GROUP BY month
ORDER BY month`

// IncomeByMonth returns the sparse per-month income of year. Months without
// credits have no row.
func (q *Queries) IncomeByMonth(ctx context.Context, userID int64, year int) ([]core.MonthAmount, error) {
	rows, err := q.db.QueryContext(ctx, incomeByMonth, userID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("income by month: %w", err)
	}
	defer rows.Close()
	var out []core.MonthAmount
	for rows.Next() {
		var m core.MonthAmount
		if err := rows.Scan(&m.Month, &m.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan income month: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const topExpenseCategories = `SELECT category, SUM(amount_cents) AS total
FROM transactions
WHERE user_id = ? AND amount_cents < 0 AND category != ?
GROUP BY category
ORDER BY total ASC, category ASC
LIMIT ?`

// TopExpenseCategories ranks categories by spend, largest outflow first.
func (q *Queries) TopExpenseCategories(ctx context.Context, userID int64, exclude string, limit int) ([]core.CategoryAmount, error) {
	rows, err := q.db.QueryContext(ctx, topExpenseCategories, userID, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("top expense categories: %w", err)
	}
	defer rows.Close()
	var out []core.CategoryAmount
	for rows.Next() {
		var c core.CategoryAmount
		if err := rows.Scan(&c.Name, &c.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const recentTransactions = `SELECT date, description, category, amount_cents FROM transactions
WHERE user_id = ?
ORDER BY date DESC, id DESC
LIMIT ?`

func (q *Queries) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.RecentTransaction, error) {
	rows, err := q.db.QueryContext(ctx, recentTransactions, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()
	var out []core.RecentTransaction
	for rows.Next() {
		var (
			r    core.RecentTransaction
			date string
		)
		if err := rows.Scan(&date, &r.Description, &r.Category, &r.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan recent transaction: %w", err)
		}
		if r.Date, err = core.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
