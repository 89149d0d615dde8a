package revset

import (
	"fmt"
	"strings"
)

// ParseError reports a syntax error, or an argument that does not convert
// to the type a function expects.
type ParseError struct {
	Message string
	Span    Span
	Input   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Span.Start)
}

// Caret renders the input with a marker line under the offending span.
func (e *ParseError) Caret() string {
	if e.Input == "" {
		return ""
	}
	start := min(e.Span.Start, len(e.Input))
	width := max(e.Span.End-start, 1)
	return e.Input + "\n" + strings.Repeat(" ", start) + strings.Repeat("^", width)
}

func newParseError(input string, at Span, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Span: at, Input: input}
}

// AliasCycleError reports an alias whose expansion refers back to itself.
type AliasCycleError struct {
	Name string
}

func (e *AliasCycleError) Error() string {
	return fmt.Sprintf("alias %q expanded recursively", e.Name)
}

// AliasError reports an alias declaration or body that fails to parse.
type AliasError struct {
	Name string
	Err  error
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("alias %q: %v", e.Name, e.Err)
}

func (e *AliasError) Unwrap() error { return e.Err }

// ResolveReason distinguishes resolution failures.
type ResolveReason int

const (
	NotFound ResolveReason = iota
	Ambiguous
)

// String returns a string representation of the reason.
func (r ResolveReason) String() string {
	if r == Ambiguous {
		return "ambiguous"
	}
	return "not found"
}

// ResolveError reports a symbol that names no commit, or a prefix matching
// more than one.
type ResolveError struct {
	Symbol     string
	Reason     ResolveReason
	Candidates int
	Span       Span
}

func (e *ResolveError) Error() string {
	if e.Reason == Ambiguous {
		return fmt.Sprintf("revision %q is ambiguous: matches %d candidates", e.Symbol, e.Candidates)
	}
	return fmt.Sprintf("revision %q doesn't exist", e.Symbol)
}

// EvaluateError reports an inconsistency between an expression and the
// snapshot it is evaluated against.
type EvaluateError struct {
	Err error
}

func (e *EvaluateError) Error() string {
	return fmt.Sprintf("evaluate revset: %v", e.Err)
}

func (e *EvaluateError) Unwrap() error { return e.Err }

// Diagnostic is a warning that does not stop the pipeline.
type Diagnostic struct {
	Message string
	Span    Span
}

// Diagnostics accumulates warnings across stages.
type Diagnostics []Diagnostic

func (d *Diagnostics) warn(at Span, format string, args ...any) {
	*d = append(*d, Diagnostic{Message: fmt.Sprintf(format, args...), Span: at})
}
