package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

// TransactionInput is a manual ledger entry. Amount is a positive magnitude;
// Kind decides its sign.
type TransactionInput struct {
	Date        core.Date
	Amount      core.Money
	Kind        core.Kind
	Description string
	Category    string
	Merchant    string
}

func (in TransactionInput) validate() error {
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if _, err := core.ParseKind(string(in.Kind)); err != nil {
		return err
	}
	return in.transaction().Validate()
}

func (in TransactionInput) transaction() core.Transaction {
	return core.Transaction{
		Date:        in.Date,
		Amount:      in.Kind.Signed(in.Amount),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Merchant:    strings.TrimSpace(in.Merchant),
		Source:      core.SourceManual,
	}
}

// AccountInput declares the balance of a manually tracked account.
// ID is optional; without it the account is matched by name and type.
type AccountInput struct {
	ID      int64
	Name    string
	Type    core.AccountType
	Balance core.Money
}

// LedgerService is the transaction-scoped boundary for every ledger and
// saving goal mutation. Each call is one atomic unit of work pairing the
// ledger write with its balance reconciliation.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	resolver   *AccountResolver
	reconciler *Reconciler
	uow        unitOfWork
	notifiers  []Notifier
	now        func() time.Time
}

func NewLedgerService(
	storage *storage.SQLiteRepository,
	resolver *AccountResolver,
	reconciler *Reconciler,
	maxRetries int,
	notifiers ...Notifier,
) *LedgerService {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &LedgerService{
		storage:    storage,
		resolver:   resolver,
		reconciler: reconciler,
		uow:        unitOfWork{repo: storage, maxRetries: maxRetries},
		notifiers:  notifiers,
		now:        time.Now,
	}
}

func (s *LedgerService) emit(ctx context.Context, typ core.EventType, userID int64, strategy core.Strategy, count int, accountIDs ...int64) {
	notifyAll(ctx, s.notifiers, core.LedgerEvent{
		Type:       typ,
		UserID:     userID,
		AccountIDs: accountIDs,
		Strategy:   strategy,
		Count:      count,
		OccurredAt: s.now().UTC(),
	})
}

// RegisterUser creates the user record the ledger hangs off.
func (s *LedgerService) RegisterUser(ctx context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, fmt.Errorf("invalid email %q: %w", email, core.ErrInvalidArgument)
	}
	return s.storage.Queries().CreateUser(ctx, email)
}

func (s *LedgerService) FindUserByID(ctx context.Context, id int64) (core.User, error) {
	if err := core.ValidateID(id, "user id"); err != nil {
		return core.User{}, err
	}
	return s.storage.Queries().GetUser(ctx, id)
}

func (s *LedgerService) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.storage.Queries().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// AddTransaction records a manual entry on the user's spending account,
// provisioning the account on first use.
func (s *LedgerService) AddTransaction(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.Transaction{}, err
	}
	if err := in.validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := s.uow.run(ctx, "add_transaction", func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		account, err := s.resolver.ResolveOrCreate(ctx, q, userID, core.ManualSelector{
			Name: core.DefaultSpendingName,
			Type: core.Spending,
		})
		if err != nil {
			return err
		}

		t := in.transaction()
		t.UserID = userID
		t.AccountID = account.ID

		account, err = s.reconciler.ApplyDelta(ctx, q, account, t.Amount)
		if err != nil {
			return err
		}
		t.BalanceAtTransaction = account.Balance

		created, err = q.CreateTransaction(ctx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction added",
		"user_id", userID,
		"transaction_id", created.ID,
		"account_id", created.AccountID,
		"amount_cents", created.Amount.Cents,
		"balance_cents", created.BalanceAtTransaction.Cents)

	s.emit(ctx, core.EventTransactionAdded, userID, core.StrategyDelta, 1, created.AccountID)
	return created, nil
}

// UpdateTransaction edits an entry and shifts its account by the change in
// amount.
func (s *LedgerService) UpdateTransaction(ctx context.Context, userID, id int64, in TransactionInput) (core.Transaction, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.Transaction{}, err
	}
	if err := core.ValidateID(id, "transaction id"); err != nil {
		return core.Transaction{}, err
	}
	if err := in.validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.uow.run(ctx, "update_transaction", func(q *storage.Queries) error {
		t, err := q.GetTransactionForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		edit := in.transaction()
		t, account, err := s.reconciler.SyncOnEdit(ctx, q, t, edit.Amount)
		if err != nil {
			return err
		}
		t.Date = edit.Date
		t.Description = edit.Description
		t.Category = edit.Category
		t.Merchant = edit.Merchant
		t.BalanceAtTransaction = account.Balance
		if err := q.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"user_id", userID,
		"transaction_id", id,
		"amount_cents", updated.Amount.Cents,
		"balance_cents", updated.BalanceAtTransaction.Cents)

	s.emit(ctx, core.EventTransactionUpdated, userID, core.StrategyEditDelta, 1, updated.AccountID)
	return updated, nil
}

// DeleteTransaction removes an entry and backs its amount out of the account.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return err
	}
	if err := core.ValidateID(id, "transaction id"); err != nil {
		return err
	}

	var accountID int64
	err := s.uow.run(ctx, "delete_transaction", func(q *storage.Queries) error {
		t, err := q.GetTransactionForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		account, err := q.GetAccount(ctx, t.AccountID)
		if err != nil {
			return err
		}
		if _, err := s.reconciler.ApplyDelta(ctx, q, account, t.Amount.Neg()); err != nil {
			return err
		}
		accountID = account.ID
		return q.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "user_id", userID, "transaction_id", id)

	s.emit(ctx, core.EventTransactionDeleted, userID, core.StrategyDelta, 1, accountID)
	return nil
}

// DeleteTransactions removes the user's entries among ids, then recomputes
// each touched account once. Ids the user does not own are ignored.
func (s *LedgerService) DeleteTransactions(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("transaction ids: %w", core.ErrEmptyInput)
	}
	for _, id := range ids {
		if err := core.ValidateID(id, "transaction id"); err != nil {
			return 0, err
		}
	}
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var (
		deleted  int64
		accounts []int64
	)
	err := s.uow.run(ctx, "delete_transactions", func(q *storage.Queries) error {
		var err error
		accounts, err = q.ListAccountIDsForTransactions(ctx, userID, ids)
		if err != nil {
			return err
		}
		deleted, err = q.DeleteTransactionsByIDs(ctx, userID, ids)
		if err != nil {
			return err
		}
		for _, accountID := range accounts {
			account, err := q.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			if _, err := s.reconciler.RecomputeSpendingBalance(ctx, q, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions deleted",
		"user_id", userID,
		"requested", len(ids),
		"deleted", deleted,
		"accounts", len(accounts))

	s.emit(ctx, core.EventTransactionsDeleted, userID, core.StrategyRecompute, int(deleted), accounts...)
	return deleted, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	if err := core.ValidateID(id, "transaction id"); err != nil {
		return core.Transaction{}, err
	}
	return s.storage.Queries().GetTransactionForUser(ctx, userID, id)
}

// ListTransactions returns the user's entries dated within [start, end].
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	if err := core.ValidateRange(start, end); err != nil {
		return nil, err
	}
	q := s.storage.Queries()
	if _, err := q.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return q.ListTransactionsByDateRange(ctx, userID, start, end)
}

// ListTransactionsPage returns page (zero based) of size entries.
func (s *LedgerService) ListTransactionsPage(ctx context.Context, userID int64, page, size int, ascending bool) ([]core.Transaction, error) {
	if page < 0 {
		return nil, fmt.Errorf("page must be >= 0: %w", core.ErrInvalidArgument)
	}
	if size <= 0 {
		return nil, fmt.Errorf("page size must be positive: %w", core.ErrInvalidArgument)
	}
	return s.storage.Queries().ListTransactionsPage(ctx, userID, size, page*size, ascending)
}

// SummarizeTimeframe counts the user's entries in a preset window.
func (s *LedgerService) SummarizeTimeframe(ctx context.Context, userID int64, tf core.Timeframe) (core.TransactionSummary, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.TransactionSummary{}, err
	}
	if _, err := core.ParseTimeframe(string(tf)); err != nil {
		return core.TransactionSummary{}, err
	}
	q := s.storage.Queries()
	if _, err := q.GetUser(ctx, userID); err != nil {
		return core.TransactionSummary{}, err
	}
	start, end := tf.Range(core.Today(s.now))
	return q.SummarizeDateRange(ctx, userID, start, end)
}

// DeclareAccountBalance creates or updates a manually tracked SAVINGS or
// INVESTMENTS account and sets its balance. SPENDING and GOALSAVINGS balances
// are derived and cannot be declared.
func (s *LedgerService) DeclareAccountBalance(ctx context.Context, userID int64, in AccountInput) (core.Account, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.Account{}, err
	}
	if !in.Type.Declared() {
		return core.Account{}, fmt.Errorf("%q balances are derived: %w", in.Type, core.ErrInvalidAccountType)
	}
	if in.Balance.Cents < 0 || in.Balance.ValidateRange() != nil {
		return core.Account{}, fmt.Errorf("balance: %w", core.ErrInvalidAmount)
	}
	if in.Name == "" {
		in.Name = in.Type.DefaultName()
	}
	if err := (core.Account{Name: in.Name, Type: in.Type}).Validate(); err != nil {
		return core.Account{}, err
	}

	var account core.Account
	err := s.uow.run(ctx, "declare_balance", func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		var (
			found bool
			err   error
		)
		if in.ID > 0 {
			if account, err = q.GetAccountForUser(ctx, userID, in.ID); err != nil {
				return err
			}
			if account.Type != in.Type {
				return fmt.Errorf("account %d is %s, not %s: %w", account.ID, account.Type, in.Type, core.ErrInvalidAccountType)
			}
			found = true
		} else {
			account, found, err = q.FindAccountByUserNameType(ctx, userID, in.Name, in.Type)
			if err != nil {
				return err
			}
		}
		if !found {
			account, err = q.CreateAccount(ctx, storage.CreateAccountParams{
				UserID:  userID,
				Name:    in.Name,
				Type:    in.Type,
				Balance: in.Balance,
				Manual:  true,
			})
			return err
		}
		if account.Name != in.Name {
			if account, err = q.RenameAccount(ctx, account, in.Name); err != nil {
				return err
			}
		}
		account, err = q.UpdateAccountBalance(ctx, account, in.Balance)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("declare account balance: %w", err)
	}

	slog.InfoContext(ctx, "Account balance declared",
		"user_id", userID,
		"account_id", account.ID,
		"type", account.Type,
		"balance_cents", account.Balance.Cents)

	s.emit(ctx, core.EventBalanceDeclared, userID, core.StrategyDeclared, 1, account.ID)
	return account, nil
}

// RecomputeAccount forces a full recompute of one of the user's accounts.
func (s *LedgerService) RecomputeAccount(ctx context.Context, userID, accountID int64) (core.Account, error) {
	if err := core.ValidateID(accountID, "account id"); err != nil {
		return core.Account{}, err
	}
	var account core.Account
	err := s.uow.run(ctx, "recompute_account", func(q *storage.Queries) error {
		a, err := q.GetAccountForUser(ctx, userID, accountID)
		if err != nil {
			return err
		}
		switch a.Type {
		case core.GoalSavings:
			account, err = s.reconciler.RecomputeGoalBalance(ctx, q, userID)
		case core.Spending:
			account, err = s.reconciler.RecomputeSpendingBalance(ctx, q, a)
		case core.Savings, core.Investments:
			err = fmt.Errorf("%s balances are declared, not derived: %w", a.Type, core.ErrInvalidArgument)
		}
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("recompute account %d: %w", accountID, err)
	}
	s.emit(ctx, core.EventBalanceRepaired, userID, core.StrategyRecompute, 0, account.ID)
	return account, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.storage.Queries().ListAccountsByUser(ctx, userID)
}
