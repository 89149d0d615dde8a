package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "jjlog",
		Usage:   "Read-only revset queries for jj and Git repositories",
		Version: "0.1.0",
		Commands: []*cli.Command{
			LogCmd(),
			ChainCmd(),
			ConfigCmd(),
		},
		Flags:     globalFlags(),
		ArgsUsage: "[path]",
		Action:    legacyAction,
	}
}

// Flags accepted before any subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log diagnostics to stderr",
		},
	}
}

func repositoryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "repository",
		Aliases: []string{"R"},
		Usage:   "Path to the workspace",
		Value:   ".",
	}
}

func limitFlag(usage string) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   usage,
	}
}

// legacyAction handles `jjlog <path>`: it runs log with the default revset
// on that path.
func legacyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	return runLog(c, c.Args().Get(0), "", 0)
}

// Run executes the CLI application.
func Run() {
	os.Exit(run(os.Args, os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	if err := App().Run(args); err != nil {
		fmt.Fprint(stderr, renderError(err))
		return 1
	}
	return 0
}
