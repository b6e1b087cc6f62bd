package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger wraps exactly one of these,
// so callers classify with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIO              = errors.New("i/o failure")
	ErrConflict        = errors.New("concurrent update conflict")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrSavingGoalNotFound  = fmt.Errorf("saving goal %w", ErrNotFound)

	ErrInvalidAmount    = fmt.Errorf("invalid amount: %w", ErrInvalidArgument)
	ErrInvalidDateRange = fmt.Errorf("start date must not be after end date: %w", ErrInvalidArgument)
	ErrEmptyInput       = fmt.Errorf("empty input: %w", ErrInvalidArgument)
)

// RowError describes a CSV row that was dropped during import.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error to the HTTP status an adapter should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrInvalidArgument):
		return 400
	case errors.Is(err, ErrConflict):
		return 409
	default:
		return 500
	}
}
