package cmd

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/jjlog-go/config"
	"github.com/masmgr/jjlog-go/internal/output"
)

// ConfigCmd returns the config command.
func ConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List settings that differ from the built-in defaults",
				Flags:  []cli.Flag{repositoryFlag()},
				Action: configListAction,
			},
		},
	}
}

func configListAction(c *cli.Context) error {
	settings, err := config.ResolveWithOptions(c.String("repository"), configOptions(c))
	if err != nil {
		return err
	}
	output.ConfigureColor(settings.Color())

	root := settings.WorkspaceRoot()
	if root == "" {
		root = c.String("repository")
	}
	report := &output.ConfigReport{
		RepoPath:    root,
		GeneratedAt: time.Now(),
		Values:      config.ListNonDefault(settings),
	}
	opts := OutputOptions(c)
	return output.NewConfigReportWriter(opts.Format).Write(report, opts)
}
