package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownCommitWriter writes commit reports as Markdown.
type MarkdownCommitWriter struct{}

// Write outputs the commit report as Markdown.
func (w *MarkdownCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# %s\n\n", report.Title())
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	if report.Revset != "" {
		fmt.Fprintf(out, "**Revset:** `%s`\n\n", report.Revset)
	}
	fmt.Fprintf(out, "**Commits:** %d\n\n", len(report.Items))

	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No commits matched.")
		return nil
	}

	fmt.Fprintln(out, "| # | Change | Commit | Author | Date | Description |")
	fmt.Fprintln(out, "|---|--------|--------|--------|------|-------------|")
	for i, item := range report.Items {
		changePrefix, changeRest := displayID(item.ChangeID, item.ChangeIDPrefixLen)
		commitPrefix, commitRest := displayID(item.CommitID, item.CommitIDPrefixLen)
		marker := ""
		if item.CommitID == report.WorkingCopy {
			marker = " @"
		}
		fmt.Fprintf(out, "| %d%s | **%s**%s | **%s**%s | %s | %s | %s |\n",
			i+1, marker,
			changePrefix, changeRest,
			commitPrefix, commitRest,
			escapeMarkdown(formatAuthor(item.AuthorName, item.AuthorEmail)),
			formatTimestamp(item.AuthorTimestamp, time.UTC),
			escapeMarkdown(describe(item.MessageFirstLine)))
	}
	return nil
}

// MarkdownConfigWriter writes configuration reports as Markdown.
type MarkdownConfigWriter struct{}

// Write outputs the configuration report as Markdown.
func (w *MarkdownConfigWriter) Write(report *ConfigReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Effective Configuration")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	if len(report.Values) == 0 {
		fmt.Fprintln(out, "No settings differ from the defaults.")
		return nil
	}

	fmt.Fprintln(out, "| Key | Value | Source |")
	fmt.Fprintln(out, "|-----|-------|--------|")
	for _, v := range report.Values {
		fmt.Fprintf(out, "| `%s` | `%s` | %s |\n",
			v.Key(), strings.ReplaceAll(v.Rendered(), "|", "\\|"),
			escapeMarkdown(sourceLabel(v.Source.String(), v.File)))
	}
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
