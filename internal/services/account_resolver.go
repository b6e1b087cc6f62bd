package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/storage"
)

// AccountResolver finds the account a ledger write lands on, provisioning it
// when it does not exist yet. Absence is never an error.
type AccountResolver struct{}

func NewAccountResolver() *AccountResolver {
	return &AccountResolver{}
}

// ResolveOrCreate looks the account up by selector inside q's unit of work.
// The create path issues exactly one insert.
func (r *AccountResolver) ResolveOrCreate(ctx context.Context, q *storage.Queries, userID int64, sel core.AccountSelector) (core.Account, error) {
	switch s := sel.(type) {
	case core.ManualSelector:
		return r.resolveManual(ctx, q, userID, s)
	case core.NumberSelector:
		return r.resolveNumber(ctx, q, userID, s)
	default:
		return core.Account{}, fmt.Errorf("unsupported account selector %T: %w", sel, core.ErrInvalidArgument)
	}
}

func (r *AccountResolver) resolveManual(ctx context.Context, q *storage.Queries, userID int64, s core.ManualSelector) (core.Account, error) {
	if !s.Type.Valid() {
		return core.Account{}, core.ErrInvalidAccountType
	}
	a, ok, err := q.FindAccountByUserAndType(ctx, userID, s.Type)
	if err != nil {
		return core.Account{}, err
	}
	if ok {
		return a, nil
	}

	name := s.Name
	if name == "" {
		name = s.Type.DefaultName()
	}
	a, err = q.CreateAccount(ctx, storage.CreateAccountParams{
		UserID:  userID,
		Name:    name,
		Type:    s.Type,
		Balance: s.InitialBalance,
		Manual:  true,
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account provisioned",
		"user_id", userID,
		"account_id", a.ID,
		"type", a.Type,
		"balance_cents", a.Balance.Cents)

	return a, nil
}

// resolveNumber looks the number up across all users. Bank account numbers
// are treated as globally unique, so an account owned by another user is
// returned as is.
func (r *AccountResolver) resolveNumber(ctx context.Context, q *storage.Queries, userID int64, s core.NumberSelector) (core.Account, error) {
	a, ok, err := q.FindAccountByNumber(ctx, s.Number)
	if err != nil {
		return core.Account{}, err
	}
	if ok {
		if a.UserID != userID {
			slog.WarnContext(ctx, "Account number belongs to another user",
				"user_id", userID,
				"owner_id", a.UserID,
				"account_id", a.ID)
		}
		return a, nil
	}

	number := s.Number
	a, err = q.CreateAccount(ctx, storage.CreateAccountParams{
		UserID:        userID,
		Name:          core.DefaultImportedName,
		Type:          core.Spending,
		AccountNumber: &number,
		Manual:        false,
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Imported account provisioned",
		"user_id", userID,
		"account_id", a.ID,
		"account_number", number)

	return a, nil
}
