package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget/internal/core"
)

const transactionColumns = `id, user_id, account_id, date, amount_cents, description, category, merchant,
balance_at_transaction_cents, source, import_batch`

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		date     string
		merchant sql.NullString
		source   string
		batch    sql.NullString
	)
	err := r.Scan(&t.ID, &t.UserID, &t.AccountID, &date, &t.Amount.Cents, &t.Description, &t.Category,
		&merchant, &t.BalanceAtTransaction.Cents, &source, &batch)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := time.Parse(core.DateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: bad stored date %q: %w", t.ID, date, err)
	}
	t.Date = core.Date{Time: d}
	t.Merchant = merchant.String
	t.Source = core.Source(source)
	t.ImportBatch = batch.String
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const createTransaction = `INSERT INTO transactions
(user_id, account_id, date, amount_cents, description, category, merchant, balance_at_transaction_cents, source, import_batch)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, transactionArgs(t)...)
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

func transactionArgs(t core.Transaction) []any {
	return []any{
		t.UserID, t.AccountID, t.Date.String(), t.Amount.Cents, t.Description, t.Category,
		nullString(t.Merchant), t.BalanceAtTransaction.Cents, string(t.Source), nullString(t.ImportBatch),
	}
}

// transactionParams is the number of bound parameters per inserted row.
const transactionParams = 10

// BulkCreateTransactions inserts rows with multi-row INSERT statements of at
// most chunk rows each. chunk is capped so a statement never exceeds SQLite's
// parameter limit.
func (q *Queries) BulkCreateTransactions(ctx context.Context, txs []core.Transaction, chunk int) (int64, error) {
	const maxParams = 32766
	if chunk <= 0 || chunk*transactionParams > maxParams {
		chunk = maxParams / transactionParams
	}
	var inserted int64
	for start := 0; start < len(txs); start += chunk {
		end := min(start+chunk, len(txs))
		batch := txs[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO transactions
(user_id, account_id, date, amount_cents, description, category, merchant, balance_at_transaction_cents, source, import_batch)
VALUES `)
		args := make([]any, 0, len(batch)*transactionParams)
		for i, t := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, transactionArgs(t)...)
		}
		res, err := q.db.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return inserted, fmt.Errorf("bulk insert transactions [%d:%d]: %w", start, end, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("bulk insert transactions: %w", err)
		}
		inserted += n
	}
	return inserted, nil
}

const getTransactionForUser = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) GetTransactionForUser(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransactionForUser, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrTransactionNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

const updateTransaction = `UPDATE transactions
SET date = ?, amount_cents = ?, description = ?, category = ?, merchant = ?, balance_at_transaction_cents = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.Date.String(), t.Amount.Cents, t.Description, t.Category, nullString(t.Merchant),
		t.BalanceAtTransaction.Cents, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrTransactionNotFound)
	}
	return nil
}

const updateTransactionAmount = `UPDATE transactions SET amount_cents = ? WHERE id = ?`

func (q *Queries) UpdateTransactionAmount(ctx context.Context, id int64, amount core.Money) error {
	res, err := q.db.ExecContext(ctx, updateTransactionAmount, amount.Cents, id)
	if err != nil {
		return fmt.Errorf("update transaction amount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrTransactionNotFound)
	}
	return nil
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrTransactionNotFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(userID int64, ids []int64) []any {
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// ListAccountIDsForTransactions returns the distinct accounts owning the
// given transactions of userID.
func (q *Queries) ListAccountIDsForTransactions(ctx context.Context, userID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT account_id FROM transactions WHERE user_id = ? AND id IN (` + placeholders(len(ids)) + `) ORDER BY account_id`
	rows, err := q.db.QueryContext(ctx, query, idArgs(userID, ids)...)
	if err != nil {
		return nil, fmt.Errorf("list transaction accounts: %w", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteTransactionsByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `DELETE FROM transactions WHERE user_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	res, err := q.db.ExecContext(ctx, query, idArgs(userID, ids)...)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	return res.RowsAffected()
}

const listTransactionsByDateRange = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND date BETWEEN ? AND ?
ORDER BY date, id`

func (q *Queries) ListTransactionsByDateRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByDateRange, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions by date: %w", err)
	}
	return scanTransactions(rows)
}

const summarizeDateRange = `SELECT COUNT(*), COALESCE(MIN(date), ''), COALESCE(MAX(date), '') FROM transactions
WHERE user_id = ? AND date BETWEEN ? AND ?`

func (q *Queries) SummarizeDateRange(ctx context.Context, userID int64, start, end core.Date) (core.TransactionSummary, error) {
	var (
		s                core.TransactionSummary
		earliest, latest string
	)
	err := q.db.QueryRowContext(ctx, summarizeDateRange, userID, start.String(), end.String()).Scan(&s.Count, &earliest, &latest)
	if err != nil {
		return core.TransactionSummary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	if s.Count == 0 {
		return s, nil
	}
	if s.Earliest, err = core.ParseDate(earliest); err != nil {
		return core.TransactionSummary{}, err
	}
	if s.Latest, err = core.ParseDate(latest); err != nil {
		return core.TransactionSummary{}, err
	}
	return s, nil
}

// ListTransactionsPage pages through a user's ledger by date, newest first
// unless ascending is set.
func (q *Queries) ListTransactionsPage(ctx context.Context, userID int64, limit, offset int, ascending bool) ([]core.Transaction, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?
ORDER BY date ` + order + `, id ` + order + ` LIMIT ? OFFSET ?`
	rows, err := q.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions page: %w", err)
	}
	return scanTransactions(rows)
}

const listTransactionsByBatch = `SELECT ` + transactionColumns + ` FROM transactions WHERE import_batch = ? ORDER BY id`

func (q *Queries) ListTransactionsByBatch(ctx context.Context, batch string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByBatch, batch)
	if err != nil {
		return nil, fmt.Errorf("list imported transactions: %w", err)
	}
	return scanTransactions(rows)
}

const sumTransactionAmounts = `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE account_id = ?`

// SumTransactionAmounts is the ledger-derived balance of an account.
func (q *Queries) SumTransactionAmounts(ctx context.Context, accountID int64) (core.Money, error) {
	var m core.Money
	if err := q.db.QueryRowContext(ctx, sumTransactionAmounts, accountID).Scan(&m.Cents); err != nil {
		return core.Money{}, fmt.Errorf("sum transaction amounts: %w", err)
	}
	return m, nil
}
