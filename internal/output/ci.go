package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/masmgr/jjlog-go/internal/session"
)

// CICommitWriter writes commit reports as NDJSON (one JSON object per line) for CI pipelines.
type CICommitWriter struct{}

// CICommitSummary is the first line of commit output.
type CICommitSummary struct {
	Type         string `json:"type"`
	Command      string `json:"command"`
	Revset       string `json:"revset,omitempty"`
	Generation   uint64 `json:"generation"`
	TotalCommits int    `json:"totalCommits"`
}

// CICommitEntry represents a single commit in CI output.
type CICommitEntry struct {
	Type        string `json:"type"`
	WorkingCopy bool   `json:"workingCopy"`
	session.CommitProjection
}

// Write outputs the commit report as NDJSON.
func (w *CICommitWriter) Write(report *CommitReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CICommitSummary{
		Type:         "summary",
		Command:      report.Command,
		Revset:       report.Revset,
		Generation:   report.Generation,
		TotalCommits: len(report.Items),
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}
	for _, item := range report.Items {
		entry := CICommitEntry{
			Type:             "commit",
			WorkingCopy:      item.CommitID == report.WorkingCopy,
			CommitProjection: item,
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}
	return nil
}

// CIConfigWriter writes configuration reports as NDJSON.
type CIConfigWriter struct{}

// CIConfigSummary is the first line of configuration output.
type CIConfigSummary struct {
	Type        string `json:"type"`
	TotalValues int    `json:"totalValues"`
}

// CIConfigEntry represents a single configuration value in CI output.
type CIConfigEntry struct {
	Type string `json:"type"`
	JSONConfigValue
}

// Write outputs the configuration report as NDJSON.
func (w *CIConfigWriter) Write(report *ConfigReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writeNDJSONLine(out, CIConfigSummary{Type: "summary", TotalValues: len(report.Values)}); err != nil {
		return err
	}
	for _, v := range report.Values {
		entry := CIConfigEntry{
			Type: "value",
			JSONConfigValue: JSONConfigValue{
				Key:    v.Key(),
				Value:  v.Rendered(),
				Source: v.Source.String(),
				File:   v.File,
			},
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}
	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
