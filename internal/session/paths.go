package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned for UI paths that leave the workspace.
var ErrOutsideWorkspace = errors.New("path is outside the workspace")

// PathConverter maps repository paths, which are slash-separated and
// relative to the workspace root, to paths as shown to the user, which are
// relative to the current directory.
type PathConverter struct {
	Cwd  string
	Base string
}

// ToUI formats a repository path relative to Cwd.
func (c PathConverter) ToUI(repoPath string) string {
	abs := filepath.Join(c.Base, filepath.FromSlash(repoPath))
	rel, err := filepath.Rel(c.Cwd, abs)
	if err != nil {
		return abs
	}
	return rel
}

// FromUI parses a user-supplied path, absolute or relative to Cwd, into a
// repository path. The workspace root itself is "".
func (c PathConverter) FromUI(input string) (string, error) {
	abs := input
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.Cwd, input)
	}
	rel, err := filepath.Rel(c.Base, filepath.Clean(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, input)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, input)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
