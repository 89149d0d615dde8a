package git

import (
	"context"
	"fmt"
	"log/slog"
)

// GraphReader defines the interface for reading the commit graph of a repository.
// This abstraction allows for easier testing and alternative store implementations.
type GraphReader interface {
	// ReadGraph reads every commit reachable from HEAD, bookmarks, remote
	// bookmarks and tags.
	ReadGraph(ctx context.Context) (*Graph, error)
}

// Compile-time interface conformance checks.
var (
	_ GraphReader = (*HistoryReader)(nil)
	_ GraphReader = (*CLIReader)(nil)
	_ GraphReader = (*MockGraphReader)(nil)
)

// NewGraphReader opens the object store at gitDir with the requested backend.
func NewGraphReader(backend BackendKind, gitDir string, logger *slog.Logger) (GraphReader, error) {
	opts := ReadOptions{GitDir: gitDir, Logger: logger}
	switch backend {
	case BackendGoGit, "":
		r, err := NewHistoryReader(opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendGitCLI:
		r, err := NewCLIReader(opts)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
