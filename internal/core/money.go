// Package core provides money parsing and handling utilities.
//
// Amounts are held as signed integer cents. Parsing and formatting go through
// shopspring/decimal so that values with up to 12 integer digits and 2
// fractional digits round-trip exactly.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMoneyCents is the largest magnitude representable with 12 integer and
// 2 fractional digits.
const MaxMoneyCents int64 = 99_999_999_999_999

var maxIntegerPart = decimal.New(999_999_999_999, 0)

// ParseMoney parses a signed decimal string into Money.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Extra
// fractional digits are rounded half away from zero. More than 12 integer
// digits is an error.
//
// Examples:
//
//	ParseMoney("1200.00") -> 120000
//	ParseMoney("-75")     -> -7500
//	ParseMoney("12.345")  -> 1235
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("empty amount: %w", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}
	if d.Abs().Truncate(0).GreaterThan(maxIntegerPart) {
		return Money{}, fmt.Errorf("amount %q exceeds 12 integer digits: %w", s, ErrInvalidAmount)
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// ParsePositiveMoney is ParseMoney restricted to amounts greater than zero.
func ParsePositiveMoney(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate requires a strictly positive amount within range.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return m.ValidateRange()
}

// ValidateRange only checks the magnitude.
func (m Money) ValidateRange() error {
	if m.Cents > MaxMoneyCents || m.Cents < -MaxMoneyCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}
