package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"budget/internal/core"
	"budget/internal/services"
)

// txFlags are the editable fields shared by add-tx and edit-tx.
type txFlags struct {
	date        string
	amount      string
	kind        string
	description string
	category    string
	merchant    string
}

func (t *txFlags) set(f *flag.FlagSet) {
	f.StringVar(&t.date, "d", core.DateOf(time.Now()).String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&t.amount, "amount", "", "Positive amount (e.g. 75.00)")
	f.StringVar(&t.kind, "kind", string(core.Debit), "DEBIT or CREDIT")
	f.StringVar(&t.description, "m", "", "Description")
	f.StringVar(&t.category, "c", "", "Category")
	f.StringVar(&t.merchant, "merchant", "", "Merchant (optional)")
}

func (t *txFlags) input() (services.TransactionInput, error) {
	date, err := core.ParseDate(t.date)
	if err != nil {
		return services.TransactionInput{}, err
	}
	amount, err := core.ParsePositiveMoney(t.amount)
	if err != nil {
		return services.TransactionInput{}, err
	}
	kind, err := core.ParseKind(t.kind)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Description: t.description,
		Category:    t.category,
		Merchant:    t.merchant,
	}, nil
}

type addTxCmd struct {
	*app
	userID int64
	fields txFlags
}

func (*addTxCmd) Name() string     { return "add-tx" }
func (*addTxCmd) Synopsis() string { return "record a manual transaction on the spending account" }
func (*addTxCmd) Usage() string {
	return `add-tx -u <user-id> -amount <amount> -kind <DEBIT|CREDIT> -m <description> -c <category> [-d <date>] [-merchant <merchant>]
`
}

func (c *addTxCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	c.fields.set(f)
}

func (c *addTxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.fields.input()
	if err != nil {
		return fail(err)
	}
	tx, err := c.services().Ledger.AddTransaction(ctx, c.userID, in)
	if err != nil {
		return fail(err)
	}
	c.printf("transaction %d %s %s, balance %s\n", tx.ID, tx.Date, tx.Amount, tx.BalanceAtTransaction)
	return subcommands.ExitSuccess
}

type editTxCmd struct {
	*app
	userID int64
	id     int64
	fields txFlags
}

func (*editTxCmd) Name() string     { return "edit-tx" }
func (*editTxCmd) Synopsis() string { return "replace the fields of a transaction" }
func (*editTxCmd) Usage() string {
	return `edit-tx -u <user-id> -id <transaction-id> -amount <amount> -kind <DEBIT|CREDIT> -m <description> -c <category> [-d <date>]

  The account balance moves by the difference between the new and old amount.
`
}

func (c *editTxCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.id, "id", 0, "Transaction id")
	c.fields.set(f)
}

func (c *editTxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.fields.input()
	if err != nil {
		return fail(err)
	}
	tx, err := c.services().Ledger.UpdateTransaction(ctx, c.userID, c.id, in)
	if err != nil {
		return fail(err)
	}
	c.printf("transaction %d %s %s, balance %s\n", tx.ID, tx.Date, tx.Amount, tx.BalanceAtTransaction)
	return subcommands.ExitSuccess
}

type rmTxCmd struct {
	*app
	userID int64
}

func (*rmTxCmd) Name() string     { return "rm-tx" }
func (*rmTxCmd) Synopsis() string { return "delete one or more transactions" }
func (*rmTxCmd) Usage() string {
	return `rm-tx -u <user-id> <transaction-id>...
`
}

func (c *rmTxCmd) SetFlags(f *flag.FlagSet) { userFlag(f, &c.userID) }

func (c *rmTxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ids := make([]int64, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fail(fmt.Errorf("transaction id %q: %w", arg, core.ErrInvalidArgument))
		}
		ids = append(ids, id)
	}

	ledger := c.services().Ledger
	if len(ids) == 1 {
		if err := ledger.DeleteTransaction(ctx, c.userID, ids[0]); err != nil {
			return fail(err)
		}
		c.printf("deleted 1 transaction\n")
		return subcommands.ExitSuccess
	}
	n, err := ledger.DeleteTransactions(ctx, c.userID, ids)
	if err != nil {
		return fail(err)
	}
	c.printf("deleted %d transactions\n", n)
	return subcommands.ExitSuccess
}

type txCmd struct {
	*app
	userID    int64
	start     string
	end       string
	timeframe string
	page      int
	size      int
	asc       bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list transactions" }
func (*txCmd) Usage() string {
	return `tx -u <user-id> [-s <start> -e <end> | -t <timeframe> | -page <n> -size <n> [-asc]]

  Lists transactions in a date range, summarizes a preset timeframe
  (weekly, 7days, 30days, 60days, 90days, all), or pages through the ledger.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.StringVar(&c.start, "s", "", "Range start date")
	f.StringVar(&c.end, "e", "", "Range end date (inclusive)")
	f.StringVar(&c.timeframe, "t", "", "Summarize a preset timeframe")
	f.IntVar(&c.page, "page", 0, "Zero-based page")
	f.IntVar(&c.size, "size", 20, "Page size")
	f.BoolVar(&c.asc, "asc", false, "Oldest first")
}

func (c *txCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.userID); err != nil {
		return fail(err)
	}
	ledger := c.services().Ledger

	if c.timeframe != "" {
		tf, err := core.ParseTimeframe(c.timeframe)
		if err != nil {
			return fail(err)
		}
		s, err := ledger.SummarizeTimeframe(ctx, c.userID, tf)
		if err != nil {
			return fail(err)
		}
		if s.Count == 0 {
			c.printf("no transactions in %s\n", tf)
			return subcommands.ExitSuccess
		}
		c.printf("%d transactions in %s, from %s to %s\n", s.Count, tf, s.Earliest, s.Latest)
		return subcommands.ExitSuccess
	}

	var (
		txs []core.Transaction
		err error
	)
	if c.start != "" || c.end != "" {
		var start, end core.Date
		if start, err = core.ParseDate(c.start); err != nil {
			return fail(err)
		}
		if end, err = core.ParseDate(c.end); err != nil {
			return fail(err)
		}
		txs, err = ledger.ListTransactions(ctx, c.userID, start, end)
	} else {
		txs, err = ledger.ListTransactionsPage(ctx, c.userID, c.page, c.size, c.asc)
	}
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDate\tAmount\tBalance\tCategory\tDescription\tSource")
	for _, t := range txs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Amount, t.BalanceAtTransaction, t.Category, t.Description, t.Source)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
