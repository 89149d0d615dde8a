package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/jjlog-go/config"
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
	return &fixtureRepo{t: t, dir: dir, repo: repo, wt: wt, when: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// commit writes a file and commits it, returning the new commit hash.
func (f *fixtureRepo) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.when = f.when.Add(time.Hour)
	if err := os.WriteFile(filepath.Join(f.dir, "file.txt"), []byte(msg+"\n"), 0o644); err != nil {
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

// colocate adds a .jj directory whose store points at the git repository.
func (f *fixtureRepo) colocate(repoConfig string) {
	f.t.Helper()
	store := filepath.Join(f.dir, ".jj", "repo", "store")
	if err := os.MkdirAll(store, 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store, "git_target"), []byte("../../../.git"), 0o644); err != nil {
		f.t.Fatal(err)
	}
	if repoConfig != "" {
		if err := os.WriteFile(filepath.Join(f.dir, ".jj", "repo", "config.toml"), []byte(repoConfig), 0o644); err != nil {
			f.t.Fatal(err)
		}
	}
}

// isolate keeps the developer's environment and user config out of a test.
func isolate(t *testing.T) Option {
	t.Helper()
	for _, name := range []string{"JJ_USER", "JJ_EMAIL", "VISUAL", "EDITOR", "PAGER", "NO_COLOR", "JJ_CONFIG"} {
		t.Setenv(name, "")
	}
	return WithConfigOptions(isolatedConfig())
}

func isolatedConfig() config.Options {
	return config.Options{SkipUser: true}
}

// testSettings folds extra TOML over the built-in defaults.
func testSettings(t *testing.T, extra map[string]any) *config.Settings {
	t.Helper()
	def, err := config.DefaultLayer()
	if err != nil {
		t.Fatal(err)
	}
	s, err := config.NewSettings(def, config.Layer{Source: config.SourceRepo, Data: extra})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// gitWorkspace returns a directory that FindWorkspace accepts, for tests
// that supply the graph through WithReader.
func gitWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func commitIDs(projs []CommitProjection) []string {
	out := make([]string, len(projs))
	for i, p := range projs {
		out[i] = p.CommitID
	}
	return out
}
