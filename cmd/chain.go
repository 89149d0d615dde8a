package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/jjlog-go/internal/output"
)

// ChainCmd returns the chain command.
func ChainCmd() *cli.Command {
	return &cli.Command{
		Name:  "chain",
		Usage: "Show the first-parent chain from the working-copy commit",
		Flags: []cli.Flag{
			repositoryFlag(),
			limitFlag("Number of commits to follow (default: jjlog.chain-limit)"),
		},
		Action: chainAction,
	}
}

func chainAction(c *cli.Context) error {
	ctx, err := NewCommandContext(c, c.String("repository"))
	if err != nil {
		return err
	}
	defer ctx.Close()

	res, err := ctx.Handle.Chain(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	writer := output.NewCommitReportWriter(ctx.Output.Format)
	return writer.Write(ctx.CommitReport(output.CommandChain, res), ctx.Output)
}
