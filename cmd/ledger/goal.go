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

type goalFlags struct {
	title       string
	target      string
	contributed string
	due         string
	image       string
}

func (g *goalFlags) set(f *flag.FlagSet) {
	f.StringVar(&g.title, "title", "", "Goal title")
	f.StringVar(&g.target, "target", "", "Target amount")
	f.StringVar(&g.contributed, "contributed", "0", "Amount already saved")
	f.StringVar(&g.due, "due", "", "Due date (YYYY-MM-DD)")
	f.StringVar(&g.image, "image", "", "Image reference (optional)")
}

func (g *goalFlags) input() (services.GoalInput, error) {
	target, err := core.ParseMoney(g.target)
	if err != nil {
		return services.GoalInput{}, fmt.Errorf("target: %w", err)
	}
	contributed, err := core.ParseMoney(g.contributed)
	if err != nil {
		return services.GoalInput{}, fmt.Errorf("contributed: %w", err)
	}
	due, err := core.ParseDate(g.due)
	if err != nil {
		return services.GoalInput{}, err
	}
	return services.GoalInput{
		Title:       g.title,
		Target:      target,
		Contributed: contributed,
		Date:        due,
		ImageRef:    g.image,
	}, nil
}

type addGoalCmd struct {
	*app
	userID int64
	fields goalFlags
}

func (*addGoalCmd) Name() string     { return "add-goal" }
func (*addGoalCmd) Synopsis() string { return "create a saving goal" }
func (*addGoalCmd) Usage() string {
	return `add-goal -u <user-id> -title <title> -target <amount> -due <date> [-contributed <amount>]
`
}

func (c *addGoalCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	c.fields.set(f)
}

func (c *addGoalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.fields.input()
	if err != nil {
		return fail(err)
	}
	g, err := c.services().Ledger.CreateGoal(ctx, c.userID, in)
	if err != nil {
		return fail(err)
	}
	c.printf("goal %d %q %s/%s due %s\n", g.ID, g.Title, g.Contributed, g.Target, g.Date)
	return subcommands.ExitSuccess
}

type editGoalCmd struct {
	*app
	userID int64
	id     int64
	fields goalFlags
}

func (*editGoalCmd) Name() string     { return "edit-goal" }
func (*editGoalCmd) Synopsis() string { return "replace the fields of a saving goal" }
func (*editGoalCmd) Usage() string {
	return `edit-goal -u <user-id> -id <goal-id> -title <title> -target <amount> -due <date> [-contributed <amount>]

  A goal whose contribution reaches its target is reopened at zero.
`
}

func (c *editGoalCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.id, "id", 0, "Goal id")
	c.fields.set(f)
}

func (c *editGoalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.fields.input()
	if err != nil {
		return fail(err)
	}
	g, err := c.services().Ledger.UpdateGoal(ctx, c.userID, c.id, in)
	if err != nil {
		return fail(err)
	}
	c.printf("goal %d %q %s/%s due %s\n", g.ID, g.Title, g.Contributed, g.Target, g.Date)
	return subcommands.ExitSuccess
}

type contributeCmd struct {
	*app
	userID int64
	id     int64
	amount string
}

func (*contributeCmd) Name() string     { return "contribute" }
func (*contributeCmd) Synopsis() string { return "add money to a saving goal" }
func (*contributeCmd) Usage() string {
	return `contribute -u <user-id> -id <goal-id> -amount <amount>
`
}

func (c *contributeCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.id, "id", 0, "Goal id")
	f.StringVar(&c.amount, "amount", "", "Amount to contribute")
}

func (c *contributeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return fail(err)
	}
	g, err := c.services().Ledger.Contribute(ctx, c.userID, c.id, amount)
	if err != nil {
		return fail(err)
	}
	c.printf("goal %d %q %s/%s\n", g.ID, g.Title, g.Contributed, g.Target)
	return subcommands.ExitSuccess
}

type rmGoalCmd struct {
	*app
	userID int64
	id     int64
}

func (*rmGoalCmd) Name() string     { return "rm-goal" }
func (*rmGoalCmd) Synopsis() string { return "delete a saving goal" }
func (*rmGoalCmd) Usage() string {
	return `rm-goal -u <user-id> -id <goal-id>
`
}

func (c *rmGoalCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.Int64Var(&c.id, "id", 0, "Goal id")
}

func (c *rmGoalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.services().Ledger.DeleteGoal(ctx, c.userID, c.id); err != nil {
		return fail(err)
	}
	c.printf("deleted goal %d\n", c.id)
	return subcommands.ExitSuccess
}

type goalsCmd struct {
	*app
	userID int64
}

func (*goalsCmd) Name() string     { return "goals" }
func (*goalsCmd) Synopsis() string { return "list saving goals" }
func (*goalsCmd) Usage() string {
	return `goals -u <user-id>
`
}

func (c *goalsCmd) SetFlags(f *flag.FlagSet) { userFlag(f, &c.userID) }

func (c *goalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.userID); err != nil {
		return fail(err)
	}
	goals, err := c.services().Ledger.ListGoals(ctx, c.userID)
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTitle\tContributed\tTarget\tDue")
	for _, g := range goals {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", g.ID, g.Title, g.Contributed, g.Target, g.Date)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
