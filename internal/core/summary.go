package core

import (
	"slices"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// AccountSummary is the dashboard projection of one account.
type AccountSummary struct {
	ID      int64
	Type    AccountType
	Name    string
	Balance Money
}

type NetWorthEntry struct {
	Name    string
	Balance Money
}

// NetWorth is the total balance plus its per-account breakdown.
type NetWorth struct {
	Total     Money
	Breakdown []NetWorthEntry
}

// IncomeExpense holds the income and expense sums of one calendar month.
// Expense is reported as the (negative) ledger sum.
type IncomeExpense struct {
	Label   string
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
}

// MonthLabels are the income trend slot labels in calendar order.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// IncomeTrend is a dense month-indexed series for two consecutive years.
type IncomeTrend struct {
	Labels       [12]string
	CurrentYear  int
	Current      [12]Money
	PreviousYear int
	Previous     [12]Money
}

// MonthAmount is a sparse (month, amount) aggregate row.
type MonthAmount struct {
	Month  int // 1-12
	Amount Money
}

// RecentTransaction is the dashboard projection of a ledger row.
type RecentTransaction struct {
	Date        Date
	Description string
	Category    string
	Amount      Money
}

type GoalSummary struct {
	ID          int64
	Title       string
	Target      Money
	Contributed Money
	Date        Date
}

// TransactionSummary describes the transactions falling in a timeframe.
// Earliest and Latest are zero when Count is zero.
type TransactionSummary struct {
	Count    int
	Earliest Date
	Latest   Date
}

// Dashboard bundles every read-side view for one user.
type Dashboard struct {
	UserID        int64
	TotalBalance  Money
	Accounts      []AccountSummary
	NetWorth      NetWorth
	Monthly       []IncomeExpense
	Trend         IncomeTrend
	TopCategories []CategoryAmount
	Recent        []RecentTransaction
	Goals         []GoalSummary
	GoalStats     []GoalStat
	GeneratedAt   time.Time
}

// Clone returns a copy of d that shares no slices with it.
func (d Dashboard) Clone() Dashboard {
	d.Accounts = slices.Clone(d.Accounts)
	d.NetWorth.Breakdown = slices.Clone(d.NetWorth.Breakdown)
	d.Monthly = slices.Clone(d.Monthly)
	d.TopCategories = slices.Clone(d.TopCategories)
	d.Recent = slices.Clone(d.Recent)
	d.Goals = slices.Clone(d.Goals)
	d.GoalStats = slices.Clone(d.GoalStats)
	return d
}

// DenseMonths reindexes sparse month rows into calendar order, zero-filling
// the months that have no row. Rows outside 1-12 are ignored.
func DenseMonths(rows []MonthAmount) [12]Money {
	var out [12]Money
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		out[r.Month-1] = out[r.Month-1].Add(r.Amount)
	}
	return out
}

// MonthRange returns the first and last calendar day of year/month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}
