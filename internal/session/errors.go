package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when another call holds the session longer than
	// the lock timeout. It is the only error worth retrying.
	ErrBusy = errors.New("session is busy")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session is closed")
)

// LoadKind is the loading step that failed.
type LoadKind int

const (
	NoWorkspace LoadKind = iota
	StoreOpen
	HeadUnavailable
	AliasSyntax
)

func (k LoadKind) String() string {
	switch k {
	case NoWorkspace:
		return "no workspace"
	case StoreOpen:
		return "store open"
	case HeadUnavailable:
		return "head unavailable"
	case AliasSyntax:
		return "alias syntax"
	}
	return fmt.Sprintf("LoadKind(%d)", int(k))
}

// LoadError reports why a workspace could not be loaded. Name is set for
// AliasSyntax and holds the alias declaration.
type LoadError struct {
	Kind LoadKind
	Path string
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("load %s: %s in %q: %v", e.Path, e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ProjectionPreconditionError is returned when asked to project a commit
// the snapshot does not contain.
type ProjectionPreconditionError struct {
	ID         string
	Generation uint64
}

func (e *ProjectionPreconditionError) Error() string {
	return fmt.Sprintf("commit %s is not in snapshot generation %d", e.ID, e.Generation)
}

// QueryError is a revset evaluation failure. Revset is the expression that
// was evaluated, with the default applied.
type QueryError struct {
	Revset string
	Err    error
}

func (e *QueryError) Error() string { return e.Err.Error() }

func (e *QueryError) Unwrap() error { return e.Err }
