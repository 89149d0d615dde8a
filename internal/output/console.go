package output

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

var (
	changePrefixColor = color.New(color.FgMagenta, color.Bold)
	commitPrefixColor = color.New(color.FgBlue, color.Bold)
	idRestColor       = color.New(color.FgHiBlack)
	workingCopyColor  = color.New(color.FgGreen, color.Bold)
	sourceColor       = color.New(color.FgCyan)
)

// ConfigureColor applies a ui.color setting: "always", "never" or "auto".
func ConfigureColor(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

// ConsoleCommitWriter writes commit reports as a colored table.
type ConsoleCommitWriter struct {
	// Location for timestamps; nil means local time.
	Location *time.Location
}

// Write outputs the commit report to the console.
func (w *ConsoleCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}

	fmt.Fprintln(out, color.GreenString(report.Title()))
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	if report.Revset != "" {
		fmt.Fprintf(out, "Revset: %s\n", report.Revset)
	}
	fmt.Fprintf(out, "Commits: %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No commits matched.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, item := range report.Items {
		marker := "○"
		if item.CommitID == report.WorkingCopy {
			marker = workingCopyColor.Sprint("@")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker,
			highlightID(item.ChangeID, item.ChangeIDPrefixLen, changePrefixColor),
			highlightID(item.CommitID, item.CommitIDPrefixLen, commitPrefixColor),
			formatAuthor(item.AuthorName, item.AuthorEmail),
			formatTimestamp(item.AuthorTimestamp, loc),
			describe(item.MessageFirstLine),
		)
	}
	return tw.Flush()
}

// ConsoleConfigWriter writes configuration reports as key = value lines.
type ConsoleConfigWriter struct{}

// Write outputs the configuration report to the console.
func (w *ConsoleConfigWriter) Write(report *ConfigReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if len(report.Values) == 0 {
		fmt.Fprintln(out, "No settings differ from the defaults.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, v := range report.Values {
		fmt.Fprintf(tw, "%s = %s\t%s\n", v.Key(), v.Rendered(), sourceColor.Sprintf("# %s", sourceLabel(v.Source.String(), v.File)))
	}
	return tw.Flush()
}

// highlightID renders the unique prefix of id in c and the remainder dimmed.
func highlightID(id string, prefixLen uint8, c *color.Color) string {
	prefix, rest := displayID(id, prefixLen)
	return c.Sprint(prefix) + idRestColor.Sprint(rest)
}

func sourceLabel(source, file string) string {
	if file == "" {
		return source
	}
	return source + " " + file
}
