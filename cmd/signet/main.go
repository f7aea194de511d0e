// Command signet runs signet entities described by YAML run files and manages the model store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/urfave/cli"

	"github.com/AnatoleLucet/signet/store"
)

func main() {
	os.Exit(int(Main(context.Background(), os.Args, os.Stdout, os.Stderr)))
}

// Main runs the command line and returns the process exit code.
// Results go to stdout, logs and errors to stderr.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) (code ExitCode) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "signet: panic: %v\n", r)
			code = ExitPanic
		}
	}()

	app := cli.NewApp()
	app.Name = "signet"
	app.Usage = "Evaluate models over time-stamped signals."
	app.Version = "0.1.0"
	app.Writer = stdout
	app.ErrWriter = stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "store, s",
			Value:  "signet.db",
			Usage:  "SQLite model store, or \":memory:\"",
			EnvVar: "SIGNET_STORE",
		},
		cli.StringFlag{
			Name:   "log-level, l",
			Value:  "info",
			Usage:  "One of debug, info, warn, error, crit",
			EnvVar: "SIGNET_LOG_LEVEL",
		},
	}

	var log log15.Logger
	app.Before = func(c *cli.Context) error {
		lvl, err := log15.LvlFromString(c.GlobalString("log-level"))
		if err != nil {
			return Error.Wrap(err, SetExitCode(ExitBadArgs))
		}

		log = log15.New()
		log.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(stderr, log15.LogfmtFormat())))
		return nil
	}

	withStore := func(action func(c *cli.Context, s store.Store) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			s, err := openStore(ctx, c.GlobalString("store"))
			if err != nil {
				return err
			}
			defer store.CloseIfSupported(s)

			return action(c, s)
		}
	}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Evaluate an entity described by a run file",
			ArgsUsage: "<runfile.yaml>",
			Action: withStore(func(c *cli.Context, s store.Store) error {
				if c.NArg() != 1 {
					return Error.NewWith("run requires exactly one run file", SetExitCode(ExitBadArgs))
				}
				rf, err := LoadRunFile(c.Args().First())
				if err != nil {
					return err
				}
				return Run(ctx, rf, s, log, stdout)
			}),
		},
		{
			Name:  "store",
			Usage: "Manage stored models",
			Subcommands: []cli.Command{
				{
					Name:      "put",
					Usage:     "Validate a program file and store it",
					ArgsUsage: "<name> <file>",
					Action:    withStore(func(c *cli.Context, s store.Store) error { return StorePut(ctx, c, s, log, stdout) }),
				},
				{
					Name:   "ls",
					Usage:  "List stored models",
					Action: withStore(func(c *cli.Context, s store.Store) error { return StoreList(ctx, s, stdout) }),
				},
				{
					Name:      "rm",
					Usage:     "Delete a stored model",
					ArgsUsage: "<name>",
					Action:    withStore(func(c *cli.Context, s store.Store) error { return StoreRemove(ctx, c, s, log) }),
				},
			},
		},
	}

	// an unknown command is a failure, not a help topic
	app.CommandNotFound = func(c *cli.Context, command string) {
		fmt.Fprintf(stderr, "'%s %s' is not a signet command\n", c.App.Name, command)
		code = ExitBadArgs
	}

	if err := app.Run(args); err != nil {
		// first line only, backtraces stay out of user output
		msg, _, _ := strings.Cut(strings.TrimSpace(err.Error()), "\n")
		fmt.Fprintf(stderr, "signet: %s\n", msg)
		return exitCodeFor(err)
	}

	return code
}

func openStore(ctx context.Context, path string) (store.Store, error) {
	kind := "sqlite"
	if path == ":memory:" {
		kind = "memory"
	}

	s, err := store.NewStore(kind, path)
	if err != nil {
		return nil, Error.Wrap(err, SetExitCode(ExitBadArgs))
	}
	if err := s.Init(ctx); err != nil {
		return nil, Error.Wrap(err, SetExitCode(ExitUser))
	}

	return s, nil
}
