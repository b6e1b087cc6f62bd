package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Load()
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "ledger.db")
	cfg.AMQPURL = ""

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	out := &bytes.Buffer{}
	a := newApp(cfg, logger, out)
	t.Cleanup(a.close)
	return a, out
}

func run(t *testing.T, a *app, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	commander := subcommands.NewCommander(fs, "ledger")
	commander.Output = io.Discard
	commander.Error = io.Discard
	register(commander, a)
	return commander.Execute(context.Background())
}

func TestLedgerCommands(t *testing.T) {
	a, out := newTestApp(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"user", "-add", "ana@example.com"}, "registered user 1 <ana@example.com>"},
		{[]string{"add-tx", "-u", "1", "-d", "2025-04-01", "-amount", "12.00", "-kind", "CREDIT", "-m", "pay", "-c", "Salary"}, "balance 12.00"},
		{[]string{"add-tx", "-u", "1", "-d", "2025-04-02", "-amount", "2.50", "-m", "coffee", "-c", "Food"}, "balance 9.50"},
		{[]string{"accounts", "-u", "1"}, "9.50"},
		{[]string{"recompute", "-u", "1", "-a", "1"}, "account 1 balance 9.50"},
		{[]string{"tx", "-u", "1", "-t", "all"}, "2 transactions in all"},
		{[]string{"tx", "-u", "1", "-s", "2025-04-01", "-e", "2025-04-30"}, "coffee"},
		{[]string{"add-goal", "-u", "1", "-title", "Bike", "-target", "300", "-contributed", "50", "-due", "2030-01-01"}, `"Bike" 50.00/300.00`},
		{[]string{"contribute", "-u", "1", "-id", "1", "-amount", "25"}, "75.00/300.00"},
		{[]string{"goals", "-u", "1"}, "Bike"},
		{[]string{"dashboard", "-u", "1"}, "Top expenses"},
	}
	for _, step := range steps {
		out.Reset()
		if status := run(t, a, step.args...); status != subcommands.ExitSuccess {
			t.Fatalf("%v: status = %v, output %q", step.args, status, out.String())
		}
		if !strings.Contains(out.String(), step.want) {
			t.Errorf("%v: output %q does not contain %q", step.args, out.String(), step.want)
		}
	}
}

func TestLedgerCommands_Errors(t *testing.T) {
	a, _ := newTestApp(t)

	tests := []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{"missing user", []string{"goals"}, subcommands.ExitUsageError},
		{"bad amount", []string{"add-tx", "-u", "1", "-amount", "abc", "-m", "x", "-c", "y"}, subcommands.ExitUsageError},
		{"unknown user", []string{"dashboard", "-u", "42"}, subcommands.ExitFailure},
		{"import without file", []string{"import", "-u", "1"}, subcommands.ExitUsageError},
		{"async without broker", []string{"import", "-u", "1", "-f", "x.csv", "-async"}, subcommands.ExitFailure},
		{"declare spending", []string{"declare", "-u", "1", "-type", "SPENDING", "-balance", "500"}, subcommands.ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, a, tt.args...); got != tt.want {
				t.Errorf("status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFail(t *testing.T) {
	if got := fail(fmt.Errorf("wrap: %w", core.ErrInvalidAmount)); got != subcommands.ExitUsageError {
		t.Errorf("invalid argument: got %v", got)
	}
	if got := fail(errors.New("boom")); got != subcommands.ExitFailure {
		t.Errorf("other error: got %v", got)
	}
}
