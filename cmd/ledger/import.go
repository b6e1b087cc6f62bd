package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/google/subcommands"

	"budget/internal/core"
)

type importCmd struct {
	*app
	userID int64
	file   string
	async  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a bank CSV export" }
func (*importCmd) Usage() string {
	return `import -u <user-id> -f <file.csv> [-async]

  Columns: date, amount, account number, description, balance, category,
  merchant. The first line is a header. Malformed rows are skipped.
  With -async the file is queued for ledger-worker instead.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	userFlag(f, &c.userID)
	f.StringVar(&c.file, "f", "", "CSV file to import")
	f.BoolVar(&c.async, "async", false, "Queue the import for the worker")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := requireUser(c.userID); err != nil {
		return fail(err)
	}
	if c.file == "" {
		return fail(fmt.Errorf("-f is required: %w", core.ErrInvalidArgument))
	}
	svc := c.services()

	if c.async {
		if c.client == nil {
			return fail(errors.New("-async needs AMQP_URL"))
		}
		path, err := filepath.Abs(c.file)
		if err != nil {
			return fail(err)
		}
		job, err := c.client.PublishImportJob(ctx, c.userID, path)
		if err != nil {
			return fail(err)
		}
		c.printf("queued import job %s\n", job.JobID)
		return subcommands.ExitSuccess
	}

	report, err := svc.Importer.ImportFile(ctx, c.userID, c.file)
	if err != nil {
		return fail(err)
	}
	for _, skipped := range report.Skipped {
		c.printf("skipped %v\n", skipped)
	}
	c.printf("batch %s: imported %d rows into %d accounts, skipped %d\n",
		report.BatchID, len(report.Imported), len(report.Accounts), len(report.Skipped))
	return subcommands.ExitSuccess
}
