package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"budget/internal/core"
)

type dashboardCmd struct {
	*app
	userID int64
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "print the user's dashboard" }
func (*dashboardCmd) Usage() string {
	return `dashboard -u <user-id>

  Prints balances, net worth, monthly income and expense, the income trend,
  top expense categories, recent transactions and saving goal insights.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) { userFlag(f, &c.userID) }

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	d, err := c.services().Projector.Dashboard(ctx, c.userID)
	if err != nil {
		return fail(err)
	}
	printDashboard(c.app, d)
	return subcommands.ExitSuccess
}

func printDashboard(a *app, d core.Dashboard) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Total balance\t%s\n", d.TotalBalance)
	for _, acc := range d.Accounts {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", acc.Name, acc.Type, acc.Balance)
	}
	fmt.Fprintf(w, "Net worth\t%s\n", d.NetWorth.Total)

	fmt.Fprintln(w, "\nMonth\tIncome\tExpense")
	for _, m := range d.Monthly {
		fmt.Fprintf(w, "%s (%04d-%02d)\t%s\t%s\n", m.Label, m.Year, m.Month, m.Income, m.Expense)
	}

	fmt.Fprintf(w, "\nIncome\t%d\t%d\n", d.Trend.PreviousYear, d.Trend.CurrentYear)
	for i, label := range d.Trend.Labels {
		fmt.Fprintf(w, "%s\t%s\t%s\n", label, d.Trend.Previous[i], d.Trend.Current[i])
	}

	fmt.Fprintln(w, "\nTop expenses\t")
	for _, cat := range d.TopCategories {
		fmt.Fprintf(w, "  %s\t%s\n", cat.Name, cat.Amount)
	}

	fmt.Fprintln(w, "\nRecent\t")
	for _, r := range d.Recent {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", r.Date, r.Category, r.Description, r.Amount)
	}

	fmt.Fprintln(w, "\nGoals\t")
	for _, g := range d.Goals {
		fmt.Fprintf(w, "  %s\t%s/%s\tdue %s\n", g.Title, g.Contributed, g.Target, g.Date)
	}
	for _, s := range d.GoalStats {
		fmt.Fprintf(w, "  %s\t%d\t%s\n", s.Type, s.Amount, s.Insight)
	}
}
