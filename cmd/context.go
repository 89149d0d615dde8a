package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/jjlog-go/config"
	"github.com/masmgr/jjlog-go/internal/logging"
	"github.com/masmgr/jjlog-go/internal/output"
	"github.com/masmgr/jjlog-go/internal/session"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across the query commands.
type CommandContext struct {
	Handle   *session.Handle
	RepoPath string
	Logger   *slog.Logger
	Output   output.OutputOptions
}

// NewCommandContext opens the workspace containing repoPath and applies its
// color setting.
func NewCommandContext(c *cli.Context, repoPath string) (*CommandContext, error) {
	logger := newLogger(c)
	h, err := session.Open(c.Context, repoPath, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	settings, err := h.Settings(c.Context)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	root, err := h.WorkspaceRoot(c.Context)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	output.ConfigureColor(settings.Color())
	return &CommandContext{
		Handle:   h,
		RepoPath: root,
		Logger:   logger,
		Output:   OutputOptions(c),
	}, nil
}

// Close releases the workspace handle.
func (ctx *CommandContext) Close() error {
	return ctx.Handle.Close()
}

// CommitReport wraps a query result for the output writers.
func (ctx *CommandContext) CommitReport(command string, res *session.Result) *output.CommitReport {
	return &output.CommitReport{
		Command:     command,
		RepoPath:    ctx.RepoPath,
		Revset:      res.Revset,
		Generation:  res.Generation,
		WorkingCopy: res.WorkingCopy,
		GeneratedAt: time.Now(),
		Items:       res.Commits,
	}
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     output.ParseFormat(c.String("format")),
		OutputPath: c.String("output"),
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	return logging.New(os.Stderr, c.Bool("debug"))
}

func configOptions(c *cli.Context) config.Options {
	return config.Options{Logger: newLogger(c)}
}
