package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// fixtureRepo is a go-git repository in a temporary directory.
type fixtureRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
	when time.Time
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
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
	return &fixtureRepo{
		t:    t,
		dir:  dir,
		repo: repo,
		wt:   wt,
		when: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// commit writes a file and commits it, returning the new commit hash.
func (f *fixtureRepo) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.when = f.when.Add(time.Hour)

	full := filepath.Join(f.dir, "file.txt")
	if err := os.WriteFile(full, []byte(msg+"\n"), 0o644); err != nil {
		f.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := f.wt.Add("file.txt"); err != nil {
		f.t.Fatalf("Add: %v", err)
	}
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: f.when}
	h, err := f.wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		f.t.Fatalf("Commit: %v", err)
	}
	return h
}

func (f *fixtureRepo) branch(name string, h plumbing.Hash) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	if err := f.repo.Storer.SetReference(ref); err != nil {
		f.t.Fatalf("SetReference: %v", err)
	}
}

func (f *fixtureRepo) remoteBranch(remote, name string, h plumbing.Hash) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, name), h)
	if err := f.repo.Storer.SetReference(ref); err != nil {
		f.t.Fatalf("SetReference: %v", err)
	}
}

func (f *fixtureRepo) annotatedTag(name string, h plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, h, &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test", Email: "test@example.com", When: f.when},
		Message: "release " + name,
	})
	if err != nil {
		f.t.Fatalf("CreateTag: %v", err)
	}
}
