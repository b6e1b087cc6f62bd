package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-04-15 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-04-15" {
		t.Fatalf("expected 2025-04-15, got %s", d)
	}
	if _, err := ParseDate("15/04/2025"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestParseAccountType(t *testing.T) {
	for _, in := range []string{"spending", "SAVINGS", " Investments ", "goalsavings"} {
		if _, err := ParseAccountType(in); err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
	}
	if _, err := ParseAccountType("checking"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if Spending.DefaultName() != "Spending Account" || GoalSavings.DefaultName() != "Goal Savings" {
		t.Fatalf("unexpected default names")
	}
	if Spending.Declared() || GoalSavings.Declared() || !Savings.Declared() || !Investments.Declared() {
		t.Fatalf("only SAVINGS and INVESTMENTS balances are declared")
	}
}

func TestKindSigned(t *testing.T) {
	if got := Debit.Signed(Money{Cents: 7500}); got.Cents != -7500 {
		t.Fatalf("debit: expected -7500, got %d", got.Cents)
	}
	if got := Credit.Signed(Money{Cents: 120000}); got.Cents != 120000 {
		t.Fatalf("credit: expected 120000, got %d", got.Cents)
	}
	if _, err := ParseKind("transfer"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 4, 15),
		Amount:      Money{Cents: -7500},
		Description: "Groceries",
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, MaxDescriptionLen+1)
	for i := range long {
		long[i] = 'x'
	}
	bads := []Transaction{
		{Date: Date{}, Amount: Money{Cents: 1}, Description: "a", Category: "c"},
		{Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Description: "", Category: "c"},
		{Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Description: "a", Category: " "},
		{Date: NewDate(2025, 1, 1), Amount: Money{Cents: MaxMoneyCents + 1}, Description: "a", Category: "c"},
		{Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Description: string(long), Category: "c"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected invalid argument, got %v", i, err)
		}
	}
}

func TestSavingGoalValidate(t *testing.T) {
	good := SavingGoal{Title: "Car", Target: Money{Cents: 100000}, Date: NewDate(2026, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Contributed = Money{Cents: -1}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	bad = good
	bad.Title = ""
	if err := bad.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected empty title, got %v", err)
	}
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, 200},
		{ErrAccountNotFound, 404},
		{ErrInvalidDateRange, 400},
		{ErrConflict, 409},
		{ErrIO, 500},
		{&RowError{Line: 3, Err: ErrInvalidAmount}, 400},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, got)
		}
	}
}
