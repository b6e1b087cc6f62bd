package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	TimeframeWeekly Timeframe = "weekly"
	Timeframe7Days  Timeframe = "7days"
	Timeframe30Days Timeframe = "30days"
	Timeframe60Days Timeframe = "60days"
	Timeframe90Days Timeframe = "90days"
	TimeframeAll    Timeframe = "all"
)

// Timeframe names a preset date window relative to today.
type Timeframe string

// EpochDate is the lower bound used for unbounded ranges.
var EpochDate = NewDate(1, 1, 1)

func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("timeframe must not be empty: %w", ErrInvalidArgument)
	}
	switch tf := Timeframe(s); tf {
	case TimeframeWeekly, Timeframe7Days, Timeframe30Days, Timeframe60Days, Timeframe90Days, TimeframeAll:
		return tf, nil
	}
	return "", fmt.Errorf("unknown timeframe %q: %w", s, ErrInvalidArgument)
}

// Range returns the inclusive [start, end] window for the timeframe.
// Weekly is Monday through Sunday of the current week.
func (tf Timeframe) Range(today Date) (Date, Date) {
	switch tf {
	case TimeframeWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return start, start.AddDays(6)
	case Timeframe7Days:
		return today.AddDays(-7), today
	case Timeframe30Days:
		return today.AddDays(-30), today
	case Timeframe60Days:
		return today.AddDays(-60), today
	case Timeframe90Days:
		return today.AddDays(-90), today
	}
	return EpochDate, today
}

// ValidateRange rejects start after end.
func ValidateRange(start, end Date) error {
	if start.After(end.Time) {
		return fmt.Errorf("%s > %s: %w", start, end, ErrInvalidDateRange)
	}
	return nil
}

// Today returns the calendar date of now.
func Today(now func() time.Time) Date {
	return DateOf(now())
}
