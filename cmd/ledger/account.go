package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"budget/internal/core"
	"budget/internal/services"
)

type accountsCmd struct {
	*app
	userID int64
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list a user's accounts and balances" }
func (*accountsCmd) Usage() string {
	return `accounts -u <user-id>
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) { userFlag(f, &c.userID) }

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.userID); err != nil {
		return fail(err)
	}
	accounts, err := c.services().Ledger.ListAccounts(ctx, c.userID)
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tType\tName\tNumber\tBalance\t")
	for _, a := range accounts {
		number := "-"
		if a.AccountNumber != nil {
			number = fmt.Sprint(*a.AccountNumber)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", a.ID, a.Type, a.Name, number, a.Balance)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type declareCmd struct {
	*app
	userID    int64
	accountID int64
	name      string
	typ       string
	balance   string
}

func (*declareCmd) Name() string     { return "declare" }
func (*declareCmd) Synopsis() string { return "declare the balance of a savings or investment account" }
func (*declareCmd) Usage() string {
	return `declare -u <user-id> -type <SAVINGS|INVESTMENTS> -balance <amount> [-name <name>] [-a <account-id>]

  Creates the account when it does not exist, otherwise renames it and sets
  its balance.
`
}

func (c *declareCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.accountID, "a", 0, "Existing account id")
	f.StringVar(&c.name, "name", "", "Account name (defaults to the type's name)")
	f.StringVar(&c.typ, "type", string(core.Savings), "Account type")
	f.StringVar(&c.balance, "balance", "", "Declared balance (e.g. 1250.00)")
}

func (c *declareCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.userID); err != nil {
		return fail(err)
	}
	typ, err := core.ParseAccountType(c.typ)
	if err != nil {
		return fail(err)
	}
	balance, err := core.ParseMoney(c.balance)
	if err != nil {
		return fail(err)
	}
	a, err := c.services().Ledger.DeclareAccountBalance(ctx, c.userID, services.AccountInput{
		ID: c.accountID, Name: c.name, Type: typ, Balance: balance,
	})
	if err != nil {
		return fail(err)
	}
	c.printf("account %d %q (%s) balance %s\n", a.ID, a.Name, a.Type, a.Balance)
	return subcommands.ExitSuccess
}

type recomputeCmd struct {
	*app
	userID    int64
	accountID int64
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "rederive an account balance from its ledger" }
func (*recomputeCmd) Usage() string {
	return `recompute -u <user-id> -a <account-id>
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.accountID, "a", 0, "Account id")
}

func (c *recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := c.services().Ledger.RecomputeAccount(ctx, c.userID, c.accountID)
	if err != nil {
		return fail(err)
	}
	c.printf("account %d balance %s\n", a.ID, a.Balance)
	return subcommands.ExitSuccess
}
