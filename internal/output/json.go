package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/masmgr/jjlog-go/internal/session"
)

// JSONCommitWriter writes commit reports as JSON.
type JSONCommitWriter struct{}

// JSONCommitReport is the JSON output structure for commit reports.
type JSONCommitReport struct {
	Command      string                     `json:"command"`
	RepoPath     string                     `json:"repo"`
	Revset       string                     `json:"revset,omitempty"`
	Generation   uint64                     `json:"generation"`
	WorkingCopy  string                     `json:"workingCopy,omitempty"`
	GeneratedAt  string                     `json:"generatedAt"`
	TotalCommits int                        `json:"totalCommits"`
	Items        []session.CommitProjection `json:"items"`
}

// Write outputs the commit report as JSON.
func (w *JSONCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	items := report.Items
	if items == nil {
		items = []session.CommitProjection{}
	}
	return writeJSON(JSONCommitReport{
		Command:      report.Command,
		RepoPath:     report.RepoPath,
		Revset:       report.Revset,
		Generation:   report.Generation,
		WorkingCopy:  report.WorkingCopy,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		TotalCommits: len(items),
		Items:        items,
	}, options.OutputPath)
}

// JSONConfigWriter writes configuration reports as JSON.
type JSONConfigWriter struct{}

// JSONConfigReport is the JSON output structure for configuration reports.
type JSONConfigReport struct {
	RepoPath    string            `json:"repo"`
	GeneratedAt string            `json:"generatedAt"`
	Values      []JSONConfigValue `json:"values"`
}

// JSONConfigValue is one effective configuration value.
type JSONConfigValue struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
	File   string `json:"file,omitempty"`
}

// Write outputs the configuration report as JSON.
func (w *JSONConfigWriter) Write(report *ConfigReport, options OutputOptions) error {
	values := make([]JSONConfigValue, len(report.Values))
	for i, v := range report.Values {
		values[i] = JSONConfigValue{
			Key:    v.Key(),
			Value:  v.Rendered(),
			Source: v.Source.String(),
			File:   v.File,
		}
	}
	return writeJSON(JSONConfigReport{
		RepoPath:    report.RepoPath,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Values:      values,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
