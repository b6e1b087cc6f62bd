package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const accountColumns = `id, user_id, name, type, account_number, balance_cents, is_manual, version`

func scanAccount(r rowScanner) (core.Account, error) {
	var (
		a      core.Account
		typ    string
		number sql.NullInt64
		manual int64
	)
	if err := r.Scan(&a.ID, &a.UserID, &a.Name, &typ, &number, &a.Balance.Cents, &manual, &a.Version); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Manual = manual == 1
	if number.Valid {
		n := number.Int64
		a.AccountNumber = &n
	}
	return a, nil
}

func scanAccounts(rows *sql.Rows) ([]core.Account, error) {
	defer rows.Close()
	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func accountLookup(row *sql.Row, what string) (core.Account, bool, error) {
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, false, nil
	}
	if err != nil {
		return core.Account{}, false, fmt.Errorf("%s: %w", what, err)
	}
	return a, true, nil
}

type CreateAccountParams struct {
	UserID        int64
	Name          string
	Type          core.AccountType
	AccountNumber *int64
	Balance       core.Money
	Manual        bool
}

const createAccount = `INSERT INTO accounts (user_id, name, type, account_number, balance_cents, is_manual)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + accountColumns

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (core.Account, error) {
	var number sql.NullInt64
	if arg.AccountNumber != nil {
		number = sql.NullInt64{Int64: *arg.AccountNumber, Valid: true}
	}
	row := q.db.QueryRowContext(ctx, createAccount,
		arg.UserID, arg.Name, string(arg.Type), number, arg.Balance.Cents, boolToInt(arg.Manual))
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, ok, err := accountLookup(q.db.QueryRowContext(ctx, getAccount, id), "get account")
	if err != nil {
		return core.Account{}, err
	}
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrAccountNotFound)
	}
	return a, nil
}

const getAccountForUser = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

func (q *Queries) GetAccountForUser(ctx context.Context, userID, id int64) (core.Account, error) {
	a, ok, err := accountLookup(q.db.QueryRowContext(ctx, getAccountForUser, id, userID), "get account")
	if err != nil {
		return core.Account{}, err
	}
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrAccountNotFound)
	}
	return a, nil
}

const findAccountByUserAndType = `SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = ? AND type = ?
ORDER BY id LIMIT 1`

// FindAccountByUserAndType reports ok=false when the user has no account of
// that type.
func (q *Queries) FindAccountByUserAndType(ctx context.Context, userID int64, typ core.AccountType) (core.Account, bool, error) {
	return accountLookup(q.db.QueryRowContext(ctx, findAccountByUserAndType, userID, string(typ)), "find account by type")
}

const findAccountByUserNameType = `SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = ? AND name = ? AND type = ?
ORDER BY id LIMIT 1`

func (q *Queries) FindAccountByUserNameType(ctx context.Context, userID int64, name string, typ core.AccountType) (core.Account, bool, error) {
	return accountLookup(q.db.QueryRowContext(ctx, findAccountByUserNameType, userID, name, string(typ)), "find account by name")
}

const findAccountByNumber = `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = ?`

func (q *Queries) FindAccountByNumber(ctx context.Context, number int64) (core.Account, bool, error) {
	return accountLookup(q.db.QueryRowContext(ctx, findAccountByNumber, number), "find account by number")
}

const listAccountsByUser = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY id`

func (q *Queries) ListAccountsByUser(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return scanAccounts(rows)
}

// AccountDrift is a spending account whose cached balance differs from the
// sum of its transactions.
type AccountDrift struct {
	AccountID int64
	UserID    int64
	Cached    core.Money
	Ledger    core.Money
}

const listDriftedAccounts = `SELECT a.id, a.user_id, a.balance_cents, COALESCE(SUM(t.amount_cents), 0) AS ledger
FROM accounts a
LEFT JOIN transactions t ON t.account_id = a.id
WHERE a.type = 'SPENDING'
GROUP BY a.id
HAVING a.balance_cents != ledger
ORDER BY a.id
LIMIT ?`

func (q *Queries) ListDriftedAccounts(ctx context.Context, limit int) ([]AccountDrift, error) {
	rows, err := q.db.QueryContext(ctx, listDriftedAccounts, limit)
	if err != nil {
		return nil, fmt.Errorf("list drifted accounts: %w", err)
	}
	defer rows.Close()
	var out []AccountDrift
	for rows.Next() {
		var d AccountDrift
		if err := rows.Scan(&d.AccountID, &d.UserID, &d.Cached.Cents, &d.Ledger.Cents); err != nil {
			return nil, fmt.Errorf("scan drift: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const updateAccountBalance = `UPDATE accounts
SET balance_cents = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?`

// UpdateAccountBalance writes a new cached balance if the row still carries
// expectedVersion. It returns the account with its bumped version, or
// core.ErrConflict when another writer got there first.
func (q *Queries) UpdateAccountBalance(ctx context.Context, a core.Account, balance core.Money) (core.Account, error) {
	res, err := q.db.ExecContext(ctx, updateAccountBalance, balance.Cents, a.ID, a.Version)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Account{}, fmt.Errorf("update account balance: %w", err)
	}
	if n == 0 {
		return core.Account{}, fmt.Errorf("account %d version %d: %w", a.ID, a.Version, core.ErrConflict)
	}
	a.Balance = balance
	a.Version++
	return a, nil
}

const renameAccount = `UPDATE accounts
SET name = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?`

func (q *Queries) RenameAccount(ctx context.Context, a core.Account, name string) (core.Account, error) {
	res, err := q.db.ExecContext(ctx, renameAccount, name, a.ID, a.Version)
	if err != nil {
		return core.Account{}, fmt.Errorf("rename account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, fmt.Errorf("account %d version %d: %w", a.ID, a.Version, core.ErrConflict)
	}
	a.Name = name
	a.Version++
	return a, nil
}

const sumAccountBalances = `SELECT COALESCE(SUM(balance_cents), 0) FROM accounts WHERE user_id = ?`

func (q *Queries) SumAccountBalances(ctx context.Context, userID int64) (core.Money, error) {
	var m core.Money
	if err := q.db.QueryRowContext(ctx, sumAccountBalances, userID).Scan(&m.Cents); err != nil {
		return core.Money{}, fmt.Errorf("sum account balances: %w", err)
	}
	return m, nil
}
