package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"budget/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	a := newApp(cfg, logger, os.Stdout)
	register(commander, a)

	flag.Parse()
	status := commander.Execute(context.Background())
	a.close()
	os.Exit(int(status))
}
