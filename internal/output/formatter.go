package output

import (
	"time"

	"github.com/masmgr/jjlog-go/config"
	"github.com/masmgr/jjlog-go/internal/session"
)

// Compile-time interface conformance checks.
var (
	_ CommitReportWriter = (*ConsoleCommitWriter)(nil)
	_ CommitReportWriter = (*JSONCommitWriter)(nil)
	_ CommitReportWriter = (*CSVCommitWriter)(nil)
	_ CommitReportWriter = (*MarkdownCommitWriter)(nil)
	_ CommitReportWriter = (*CICommitWriter)(nil)

	_ ConfigReportWriter = (*ConsoleConfigWriter)(nil)
	_ ConfigReportWriter = (*JSONConfigWriter)(nil)
	_ ConfigReportWriter = (*CSVConfigWriter)(nil)
	_ ConfigReportWriter = (*MarkdownConfigWriter)(nil)
	_ ConfigReportWriter = (*CIConfigWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// ParseFormat maps a --format value to an OutputFormat. Unknown values
// fall back to console.
func ParseFormat(s string) OutputFormat {
	switch s {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "markdown", "md":
		return FormatMarkdown
	case "ci", "ndjson":
		return FormatCI
	default:
		return FormatConsole
	}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	OutputPath string
}

// Report commands.
const (
	CommandLog   = "log"
	CommandChain = "chain"
)

// CommitReport is a list of projected commits, newest first.
type CommitReport struct {
	Command     string
	RepoPath    string
	Revset      string
	Generation  uint64
	WorkingCopy string
	GeneratedAt time.Time
	Items       []session.CommitProjection
}

// Title returns the heading used by the console and Markdown writers.
func (r *CommitReport) Title() string {
	if r.Command == CommandChain {
		return "Head Commit Chain"
	}
	return "Revision Log"
}

// ConfigReport lists effective configuration values that differ from the
// built-in defaults.
type ConfigReport struct {
	RepoPath    string
	GeneratedAt time.Time
	Values      []config.AnnotatedValue
}

// CommitReportWriter writes commit reports.
type CommitReportWriter interface {
	Write(report *CommitReport, options OutputOptions) error
}

// ConfigReportWriter writes configuration reports.
type ConfigReportWriter interface {
	Write(report *ConfigReport, options OutputOptions) error
}

// NewCommitReportWriter creates a commit report writer for the specified format.
func NewCommitReportWriter(format OutputFormat) CommitReportWriter {
	switch format {
	case FormatJSON:
		return &JSONCommitWriter{}
	case FormatCSV:
		return &CSVCommitWriter{}
	case FormatMarkdown:
		return &MarkdownCommitWriter{}
	case FormatCI:
		return &CICommitWriter{}
	default:
		return &ConsoleCommitWriter{}
	}
}

// NewConfigReportWriter creates a configuration report writer for the
// specified format.
func NewConfigReportWriter(format OutputFormat) ConfigReportWriter {
	switch format {
	case FormatJSON:
		return &JSONConfigWriter{}
	case FormatCSV:
		return &CSVConfigWriter{}
	case FormatMarkdown:
		return &MarkdownConfigWriter{}
	case FormatCI:
		return &CIConfigWriter{}
	default:
		return &ConsoleConfigWriter{}
	}
}
