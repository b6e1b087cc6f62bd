package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Spending    AccountType = "SPENDING"
	Savings     AccountType = "SAVINGS"
	Investments AccountType = "INVESTMENTS"
	GoalSavings AccountType = "GOALSAVINGS"
)

const (
	SourceManual Source = "MANUAL"
	SourceCSV    Source = "CSV"
)

const (
	Debit  Kind = "DEBIT"
	Credit Kind = "CREDIT"
)

// Default names for accounts created on demand.
const (
	DefaultSpendingName    = "Spending Account"
	DefaultGoalSavingsName = "Goal Savings"
	DefaultImportedName    = "Imported Account"
)

// DateLayout is the storage and display layout for dates.
const DateLayout = "2006-01-02"

type (
	AccountType string
	Source      string
	Kind        string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID    int64
		Email string
	}

	Account struct {
		ID            int64
		UserID        int64
		Name          string
		Type          AccountType
		AccountNumber *int64 // external bank account number, CSV-imported accounts only
		Balance       Money
		Manual        bool
		Version       int64
	}

	Transaction struct {
		ID                   int64
		UserID               int64
		AccountID            int64
		Date                 Date
		Amount               Money // signed: negative is an outflow
		Description          string
		Category             string
		Merchant             string
		BalanceAtTransaction Money
		Source               Source
		ImportBatch          string
	}

	SavingGoal struct {
		ID          int64
		UserID      int64
		AccountID   int64
		Title       string
		Target      Money
		Contributed Money
		Date        Date
		ImageRef    string
	}
)

// Field length limits, matching the ledger schema.
const (
	MaxDescriptionLen = 255
	MaxCategoryLen    = 100
	MaxMerchantLen    = 100
	MaxTitleLen       = 100
	MaxNameLen        = 100
)

var (
	ErrInvalidDay         = fmt.Errorf("invalid day: %w", ErrInvalidArgument)
	ErrInvalidMonth       = fmt.Errorf("invalid month: %w", ErrInvalidArgument)
	ErrEmptyDescription   = fmt.Errorf("empty description: %w", ErrInvalidArgument)
	ErrEmptyCategory      = fmt.Errorf("empty category: %w", ErrInvalidArgument)
	ErrEmptyTitle         = fmt.Errorf("empty title: %w", ErrInvalidArgument)
	ErrInvalidAccountType = fmt.Errorf("invalid account type: %w", ErrInvalidArgument)
	ErrInvalidKind        = fmt.Errorf("invalid transaction kind: %w", ErrInvalidArgument)
)

// ParseAccountType accepts the enum names case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidAccountType)
	}
	return t, nil
}

func (t AccountType) Valid() bool {
	switch t {
	case Spending, Savings, Investments, GoalSavings:
		return true
	}
	return false
}

// Declared reports whether balances of this type are set by the user rather
// than derived from transactions or goal contributions.
func (t AccountType) Declared() bool {
	return t == Savings || t == Investments
}

// DefaultName is the name given to an account of this type when it is
// provisioned without one.
func (t AccountType) DefaultName() string {
	switch t {
	case Spending:
		return DefaultSpendingName
	case GoalSavings:
		return DefaultGoalSavingsName
	case Savings:
		return "Savings Account"
	case Investments:
		return "Investments Account"
	}
	return ""
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case Debit, Credit:
		return k, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidKind)
}

// Signed returns the ledger amount for a positive magnitude of this kind.
func (k Kind) Signed(m Money) Money {
	if k == Debit {
		return m.Neg()
	}
	return m
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("date cannot be zero: %w", ErrInvalidArgument)
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO yyyy-MM-dd date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidArgument)
	}
	return Date{Time: t}, nil
}

func (a Account) Validate() error {
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("empty account name: %w", ErrInvalidArgument)
	}
	if len(a.Name) > MaxNameLen {
		return fmt.Errorf("account name too long (max %d characters): %w", MaxNameLen, ErrInvalidArgument)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.ValidateRange(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLen {
		return fmt.Errorf("description too long (max %d characters): %w", MaxDescriptionLen, ErrInvalidArgument)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > MaxCategoryLen {
		return fmt.Errorf("category too long (max %d characters): %w", MaxCategoryLen, ErrInvalidArgument)
	}
	if len(t.Merchant) > MaxMerchantLen {
		return fmt.Errorf("merchant too long (max %d characters): %w", MaxMerchantLen, ErrInvalidArgument)
	}
	return nil
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > MaxTitleLen {
		return fmt.Errorf("title too long (max %d characters): %w", MaxTitleLen, ErrInvalidArgument)
	}
	if g.Target.Cents < 0 || g.Target.ValidateRange() != nil {
		return fmt.Errorf("target: %w", ErrInvalidAmount)
	}
	if g.Contributed.Cents < 0 || g.Contributed.ValidateRange() != nil {
		return fmt.Errorf("contributed: %w", ErrInvalidAmount)
	}
	return g.Date.Validate()
}

// ValidateID rejects non-positive identifiers.
func ValidateID(id int64, what string) error {
	if id <= 0 {
		return fmt.Errorf("%s must be positive: %w", what, ErrInvalidArgument)
	}
	return nil
}
