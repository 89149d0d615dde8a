package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newRepo creates a git repository with a linear history of the given
// messages and returns its directory and commit hashes, oldest first.
func newRepo(t *testing.T, messages ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	when := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var hashes []string
	for _, msg := range messages {
		when = when.Add(time.Hour)
		if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte(msg+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("file.txt"); err != nil {
			t.Fatal(err)
		}
		sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
		h, err := wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		hashes = append(hashes, h.String())
	}
	return dir, hashes
}

func setBranch(t *testing.T, dir, name, hash string) {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(hash))
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatal(err)
	}
}

// colocate adds a .jj directory backed by the git repository, with an
// optional repo config file.
func colocate(t *testing.T, dir, repoConfig string) {
	t.Helper()
	store := filepath.Join(dir, ".jj", "repo", "store")
	if err := os.MkdirAll(store, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store, "git_target"), []byte("../../../.git"), 0o644); err != nil {
		t.Fatal(err)
	}
	if repoConfig != "" {
		if err := os.WriteFile(filepath.Join(dir, ".jj", "repo", "config.toml"), []byte(repoConfig), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// isolateEnv keeps the developer's environment and user config out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"JJ_USER", "JJ_EMAIL", "VISUAL", "EDITOR", "PAGER", "NO_COLOR"} {
		t.Setenv(name, "")
	}
	t.Setenv("JJ_CONFIG", t.TempDir())
}

// runCLI runs the application with output redirected to a file and returns
// the exit code, the file contents and stderr.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	full := append([]string{"jjlog", "--output", out}, args...)
	var stderr bytes.Buffer
	code := run(full, &stderr)
	data, _ := os.ReadFile(out)
	return code, string(data), stderr.String()
}
