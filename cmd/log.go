package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/jjlog-go/internal/output"
)

// LogCmd returns the log command.
func LogCmd() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Show the commits selected by a revset",
		Flags: []cli.Flag{
			repositoryFlag(),
			&cli.StringFlag{
				Name:    "revisions",
				Aliases: []string{"r"},
				Usage:   "Revset to show (default: revsets.log)",
			},
			limitFlag("Show at most this many commits"),
		},
		Action: func(c *cli.Context) error {
			return runLog(c, c.String("repository"), c.String("revisions"), c.Int("limit"))
		},
	}
}

func runLog(c *cli.Context, repoPath, revset string, limit int) error {
	ctx, err := NewCommandContext(c, repoPath)
	if err != nil {
		return err
	}
	defer ctx.Close()

	res, err := ctx.Handle.Run(c.Context, revset, limit)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("log", "revset", res.Revset, "generation", res.Generation, "commits", len(res.Commits))

	writer := output.NewCommitReportWriter(ctx.Output.Format)
	return writer.Write(ctx.CommitReport(output.CommandLog, res), ctx.Output)
}
