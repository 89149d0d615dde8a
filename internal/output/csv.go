package output

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVCommitWriter writes commit reports as CSV.
type CSVCommitWriter struct{}

// Write outputs the commit report as CSV.
func (w *CSVCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	headers := []string{"ChangeID", "ChangeIDPrefixLen", "CommitID", "CommitIDPrefixLen",
		"AuthorName", "AuthorEmail", "AuthorTimestamp", "WorkingCopy", "Message"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, item := range report.Items {
		row := []string{
			item.ChangeID,
			strconv.Itoa(int(item.ChangeIDPrefixLen)),
			item.CommitID,
			strconv.Itoa(int(item.CommitIDPrefixLen)),
			item.AuthorName,
			item.AuthorEmail,
			strconv.FormatInt(item.AuthorTimestamp, 10),
			strconv.FormatBool(item.CommitID == report.WorkingCopy),
			item.MessageFirstLine,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVConfigWriter writes configuration reports as CSV.
type CSVConfigWriter struct{}

// Write outputs the configuration report as CSV.
func (w *CSVConfigWriter) Write(report *ConfigReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := writer.Write([]string{"Key", "Value", "Source", "File"}); err != nil {
		return err
	}
	for _, v := range report.Values {
		if err := writer.Write([]string{v.Key(), v.Rendered(), v.Source.String(), v.File}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewWriter(out), file, nil
}
