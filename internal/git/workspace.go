package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoWorkspace is returned when no workspace marker is found above a path.
var ErrNoWorkspace = errors.New("no workspace found")

// Workspace describes a located workspace root.
type Workspace struct {
	Root string // directory holding the marker
	// RepoDir is the jj repository directory (.jj/repo or the directory it
	// points to). Empty for plain git workspaces.
	RepoDir string
}

// IsJJ reports whether the workspace carries a .jj marker.
func (w Workspace) IsJJ() bool {
	return w.RepoDir != ""
}

// ConfigPath returns the repository-level configuration file path, or "".
func (w Workspace) ConfigPath() string {
	if !w.IsJJ() {
		return ""
	}
	return filepath.Join(w.RepoDir, "config.toml")
}

// FindWorkspace walks upward from path looking for a .jj directory, falling
// back to a .git entry.
func FindWorkspace(path string) (Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	for dir := abs; ; {
		if info, err := os.Stat(filepath.Join(dir, ".jj")); err == nil && info.IsDir() {
			repoDir, err := jjRepoDir(filepath.Join(dir, ".jj"))
			if err != nil {
				return Workspace{}, err
			}
			return Workspace{Root: dir, RepoDir: repoDir}, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return Workspace{Root: dir}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Workspace{}, fmt.Errorf("%w: %s", ErrNoWorkspace, abs)
		}
		dir = parent
	}
}

// jjRepoDir resolves .jj/repo, which secondary workspaces store as a file
// containing the path of the shared repository directory.
func jjRepoDir(jjDir string) (string, error) {
	repoPath := filepath.Join(jjDir, "repo")
	info, err := os.Stat(repoPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s has no repo", ErrNoWorkspace, jjDir)
	}
	if info.IsDir() {
		return repoPath, nil
	}

	data, err := os.ReadFile(repoPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", repoPath, err)
	}
	target := strings.TrimSpace(string(data))
	if !filepath.IsAbs(target) {
		target = filepath.Join(jjDir, target)
	}
	return filepath.Clean(target), nil
}

// GitDir returns the git object store backing the workspace.
func (w Workspace) GitDir() (string, error) {
	if !w.IsJJ() {
		return w.Root, nil
	}

	storeDir := filepath.Join(w.RepoDir, "store")
	if data, err := os.ReadFile(filepath.Join(storeDir, "git_target")); err == nil {
		target := strings.TrimSpace(string(data))
		if !filepath.IsAbs(target) {
			target = filepath.Join(storeDir, target)
		}
		return filepath.Clean(target), nil
	}
	if info, err := os.Stat(filepath.Join(storeDir, "git")); err == nil && info.IsDir() {
		return filepath.Join(storeDir, "git"), nil
	}
	return "", fmt.Errorf("unsupported store in %s: only git-backed repositories can be read", storeDir)
}
