package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/subcommands"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// register adds every ledger subcommand to c.
func register(c *subcommands.Commander, a *app) {
	c.Register(&userCmd{app: a}, "users")

	c.Register(&accountsCmd{app: a}, "accounts")
	c.Register(&declareCmd{app: a}, "accounts")
	c.Register(&recomputeCmd{app: a}, "accounts")

	c.Register(&addTxCmd{app: a}, "transactions")
	c.Register(&editTxCmd{app: a}, "transactions")
	c.Register(&rmTxCmd{app: a}, "transactions")
	c.Register(&txCmd{app: a}, "transactions")
	c.Register(&importCmd{app: a}, "transactions")

	c.Register(&addGoalCmd{app: a}, "goals")
	c.Register(&editGoalCmd{app: a}, "goals")
	c.Register(&contributeCmd{app: a}, "goals")
	c.Register(&rmGoalCmd{app: a}, "goals")
	c.Register(&goalsCmd{app: a}, "goals")

	c.Register(&dashboardCmd{app: a}, "reports")
}

// app opens the ledger on first use so help and usage errors never touch
// the database.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	out    io.Writer

	once   sync.Once
	svc    *cli.Services
	client *amqp.Client
}

func newApp(cfg *config.Config, logger *log.Logger, out io.Writer) *app {
	return &app{cfg: cfg, logger: logger.WithComponent(log.ComponentCLI), out: out}
}

func (a *app) services() *cli.Services {
	a.once.Do(func() {
		repo := cli.InitSQLite(a.logger, a.cfg.SQLiteDBPath)

		var extra []services.Notifier
		client, err := cli.ConnectAMQP(a.logger, a.cfg)
		if err != nil {
			a.logger.Warn("AMQP unavailable, ledger events will not be published", log.FieldError, err)
		} else if client != nil {
			a.client = client
			extra = append(extra, client)
		}
		a.svc = cli.NewServices(a.cfg, repo, extra...)
	})
	return a.svc
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.svc != nil {
		a.svc.Repo.Close()
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail reports err and maps its kind to an exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.Is(err, core.ErrInvalidArgument) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}

// userFlag registers the -u flag every ledger command takes.
func userFlag(f *flag.FlagSet, p *int64) {
	f.Int64Var(p, "u", 0, "User id owning the ledger")
}

func requireUser(userID int64) error {
	return core.ValidateID(userID, "user id (-u)")
}
