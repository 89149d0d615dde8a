package output

import (
	"io"
	"os"
	"time"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	displayIDLen      = 8
	noDescription     = "(no description set)"
)

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// displayID returns the part of id shown to the user, split at the end of
// its unique prefix.
func displayID(id string, prefixLen uint8) (prefix, rest string) {
	n := min(max(displayIDLen, int(prefixLen)), len(id))
	p := min(int(prefixLen), n)
	return id[:p], id[p:n]
}

func describe(message string) string {
	if message == "" {
		return noDescription
	}
	return message
}

func formatTimestamp(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format(consoleTimeLayout)
}

func formatAuthor(name, email string) string {
	switch {
	case name == "" && email == "":
		return ""
	case email == "":
		return name
	case name == "":
		return "<" + email + ">"
	}
	return name + " <" + email + ">"
}
