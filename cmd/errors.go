package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/masmgr/jjlog-go/internal/revset"
	"github.com/masmgr/jjlog-go/internal/session"
)

// renderError formats err for the terminal. Parse errors get the offending
// text with a caret line under the failing span.
func renderError(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %v\n", err)

	var pe *revset.ParseError
	if errors.As(err, &pe) {
		writeIndented(&b, pe.Caret())
		return b.String()
	}

	var re *revset.ResolveError
	var qe *session.QueryError
	if errors.As(err, &re) && errors.As(err, &qe) && re.Span.End > re.Span.Start && re.Span.End <= len(qe.Revset) {
		marker := &revset.ParseError{Span: re.Span, Input: qe.Revset}
		writeIndented(&b, marker.Caret())
		if re.Reason == revset.Ambiguous {
			fmt.Fprintln(&b, "Hint: use a longer prefix")
		}
	}
	return b.String()
}

func writeIndented(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "  %s\n", line)
	}
}
