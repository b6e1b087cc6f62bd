package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type userCmd struct {
	*app
	add   string
	email string
	id    int64
}

func (*userCmd) Name() string     { return "user" }
func (*userCmd) Synopsis() string { return "register or look up a ledger user" }
func (*userCmd) Usage() string {
	return `user -add <email> | -email <email> | -id <user-id>

  Registers a new user, or prints an existing one.
`
}

func (c *userCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Register a user with this email")
	f.StringVar(&c.email, "email", "", "Look a user up by email")
	f.Int64Var(&c.id, "id", 0, "Look a user up by id")
}

func (c *userCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.add == "" && c.email == "" && c.id == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	ledger := c.services().Ledger
	switch {
	case c.add != "":
		u, err := ledger.RegisterUser(ctx, c.add)
		if err != nil {
			return fail(err)
		}
		c.printf("registered user %d <%s>\n", u.ID, u.Email)
	case c.email != "":
		u, err := ledger.FindUserByEmail(ctx, c.email)
		if err != nil {
			return fail(err)
		}
		c.printf("user %d <%s>\n", u.ID, u.Email)
	default:
		u, err := ledger.FindUserByID(ctx, c.id)
		if err != nil {
			return fail(err)
		}
		c.printf("user %d <%s>\n", u.ID, u.Email)
	}
	return subcommands.ExitSuccess
}
