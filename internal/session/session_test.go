package session

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/masmgr/jjlog-go/config"
	"github.com/masmgr/jjlog-go/internal/git"
	"github.com/masmgr/jjlog-go/internal/revset"
)

func TestLoad_Backends(t *testing.T) {
	f := newFixtureRepo(t)
	c1 := f.commit("first\n\nbody")
	c2 := f.commit("second")
	c3 := f.commit("third")
	f.branch("feature", c2)

	backends := []string{config.BackendGoGit}
	if _, err := exec.LookPath("git"); err == nil {
		backends = append(backends, config.BackendGitCLI)
	}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			settings := testSettings(t, map[string]any{"jjlog": map[string]any{"backend": backend}})
			s, err := Load(context.Background(), f.dir, settings)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if s.Generation() != 1 {
				t.Errorf("Generation() = %d, expected 1", s.Generation())
			}

			got, err := s.Query(context.Background(), "::@", 0)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			want := []string{c3.String(), c2.String(), c1.String()}
			if ids := commitIDs(got); len(ids) != 3 || ids[0] != want[0] || ids[1] != want[1] || ids[2] != want[2] {
				t.Fatalf("::@ = %v, expected %v", ids, want)
			}
			if got[2].MessageFirstLine != "first" {
				t.Errorf("MessageFirstLine = %q, expected first", got[2].MessageFirstLine)
			}
			if got[0].AuthorEmail != "test@example.com" || got[0].AuthorTimestamp == 0 {
				t.Errorf("author not projected: %+v", got[0])
			}

			feature, err := s.Query(context.Background(), "feature", 0)
			if err != nil {
				t.Fatalf("Query(feature): %v", err)
			}
			if len(feature) != 1 || feature[0].CommitID != c2.String() {
				t.Errorf("feature = %v, expected %s", commitIDs(feature), c2)
			}
		})
	}
}

func TestLoad_ColocatedWorkspace(t *testing.T) {
	f := newFixtureRepo(t)
	f.commit("base")
	top := f.commit("top")
	f.colocate(`
[revset-aliases]
"tip" = "@"
`)

	sub := filepath.Join(f.dir, "nested", "dir")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	h, err := Open(context.Background(), sub, isolate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if root, err := h.WorkspaceRoot(context.Background()); err != nil || root != f.dir {
		t.Errorf("WorkspaceRoot() = %q, %v; expected %s", root, err, f.dir)
	}
	got, err := h.Query(context.Background(), "tip")
	if err != nil {
		t.Fatalf("Query(tip): %v", err)
	}
	if len(got) != 1 || got[0].CommitID != top.String() {
		t.Errorf("tip = %v, expected %s", commitIDs(got), top)
	}
}

func TestLoad_WorkingCopyIsGitHead(t *testing.T) {
	f := newFixtureRepo(t)
	base := f.commit("base")
	f.commit("top")
	f.colocate("")
	h, err := Open(context.Background(), f.dir, isolate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	// jj detaches HEAD at the parent of its working-copy commit.
	if err := f.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, base)); err != nil {
		t.Fatal(err)
	}
	if err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	res, err := h.Run(context.Background(), "@", 0)
	if err != nil {
		t.Fatalf("Run(@): %v", err)
	}
	if len(res.Commits) != 1 || res.Commits[0].CommitID != base.String() || res.WorkingCopy != base.String() {
		t.Errorf("@ = %v with working copy %s, expected HEAD %s", commitIDs(res.Commits), res.WorkingCopy, base)
	}
}

func TestLoad_EmptyRepository(t *testing.T) {
	f := newFixtureRepo(t)
	s, err := Load(context.Background(), f.dir, testSettings(t, nil))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, expr := range []string{"all()", "@", "::@", "root()", "visible_heads()"} {
		got, err := s.Query(context.Background(), expr, 0)
		if err != nil {
			t.Fatalf("Query(%s): %v", expr, err)
		}
		if len(got) != 0 {
			t.Errorf("Query(%s) = %v, expected empty", expr, commitIDs(got))
		}
	}
	chain, err := s.HeadCommitChain(10)
	if err != nil || len(chain) != 0 {
		t.Errorf("HeadCommitChain = %v, %v; expected empty", chain, err)
	}

	_, err = s.Query(context.Background(), "nonexistent_bookmark", 0)
	var re *revset.ResolveError
	if !errors.As(err, &re) || re.Reason != revset.NotFound {
		t.Errorf("expected not-found ResolveError, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no workspace", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "missing"), testSettings(t, nil))
		assertLoadError(t, err, NoWorkspace)
		if !errors.Is(err, git.ErrNoWorkspace) {
			t.Errorf("cause not wrapped: %v", err)
		}
	})

	t.Run("unsupported store", func(t *testing.T) {
		root := t.TempDir()
		if err := os.MkdirAll(filepath.Join(root, ".jj", "repo", "store"), 0o755); err != nil {
			t.Fatal(err)
		}
		_, err := Load(ctx, root, testSettings(t, nil))
		assertLoadError(t, err, StoreOpen)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := Load(ctx, gitWorkspace(t), testSettings(t, nil))
		assertLoadError(t, err, StoreOpen)
	})

	t.Run("head unavailable", func(t *testing.T) {
		reader := git.NewMockGraphReader(nil, git.ErrHeadUnavailable)
		_, err := Load(ctx, gitWorkspace(t), testSettings(t, nil), WithReader(reader))
		assertLoadError(t, err, HeadUnavailable)
	})

	t.Run("working copy outside graph", func(t *testing.T) {
		reader := git.NewMockGraphReader(&git.Graph{WorkingCopy: git.SyntheticID("gone")}, nil)
		_, err := Load(ctx, gitWorkspace(t), testSettings(t, nil), WithReader(reader))
		assertLoadError(t, err, HeadUnavailable)
	})

	t.Run("alias syntax", func(t *testing.T) {
		settings := testSettings(t, map[string]any{"revset-aliases": map[string]any{"broken(x)": "x &"}})
		_, err := Load(ctx, gitWorkspace(t), settings, WithReader(git.NewMockGraphReader(nil, nil)))
		le := assertLoadError(t, err, AliasSyntax)
		if le != nil && le.Name != "broken(x)" {
			t.Errorf("Name = %q, expected broken(x)", le.Name)
		}
		var pe *revset.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("cause is not a ParseError: %v", err)
		}
	})

	t.Run("alias body not a string", func(t *testing.T) {
		settings := testSettings(t, map[string]any{"revset-aliases": map[string]any{"mybranch": int64(1)}})
		_, err := Load(ctx, gitWorkspace(t), settings, WithReader(git.NewMockGraphReader(nil, nil)))
		le := assertLoadError(t, err, AliasSyntax)
		if le != nil && le.Name != "mybranch" {
			t.Errorf("Name = %q, expected mybranch", le.Name)
		}
		var ve *config.ValueError
		if !errors.As(err, &ve) || ve.Expected != "string" {
			t.Errorf("cause is not a ValueError for a string: %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "expected string") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixtureRepo(t)
		f.commit("one")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Load(cancelled, f.dir, testSettings(t, nil))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func assertLoadError(t *testing.T, err error, kind LoadKind) *LoadError {
	t.Helper()
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError(%s), got %v", kind, err)
		return nil
	}
	if le.Kind != kind {
		t.Errorf("Kind = %s, expected %s (%v)", le.Kind, kind, err)
	}
	return le
}

func TestSession_HeadCommitChain(t *testing.T) {
	b := git.NewGraphBuilder().
		Commit("root").
		Commit("a", "root").
		Commit("side", "root").
		Commit("merge", "a", "side").
		Commit("top", "merge").
		WorkingCopy("top")
	s, err := Load(context.Background(), gitWorkspace(t), testSettings(t, nil), WithReader(git.NewMockGraphReader(b.Build(), nil)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 1, want: []string{"top"}},
		{limit: 3, want: []string{"top", "merge", "a"}},
		{limit: 10, want: []string{"top", "merge", "a", "root"}},
		{limit: 0, want: nil},
	}
	for _, tt := range tests {
		chain, err := s.HeadCommitChain(tt.limit)
		if err != nil {
			t.Fatalf("HeadCommitChain(%d): %v", tt.limit, err)
		}
		ids := commitIDs(chain)
		if len(ids) != len(tt.want) {
			t.Fatalf("HeadCommitChain(%d) returned %d commits, expected %d", tt.limit, len(ids), len(tt.want))
		}
		for i, name := range tt.want {
			if ids[i] != b.ID(name) {
				t.Errorf("HeadCommitChain(%d)[%d] = %s, expected %s", tt.limit, i, ids[i], name)
			}
		}
	}
}

func TestSession_DefaultRevset(t *testing.T) {
	b := git.NewGraphBuilder().
		Commit("root").
		Commit("a", "root").
		Commit("b", "a").
		WorkingCopy("b").
		Tag("v1", "a")
	s, err := Load(context.Background(), gitWorkspace(t), testSettings(t, nil), WithReader(git.NewMockGraphReader(b.Build(), nil)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ids, _, err := s.Evaluate(context.Background(), "")
	if err != nil {
		t.Fatalf("Evaluate(default): %v", err)
	}
	found := false
	for _, id := range ids {
		if id == b.ID("b") {
			found = true
		}
	}
	if !found {
		t.Errorf("default revset %q does not include @", s.Settings.DefaultRevset())
	}

	custom := testSettings(t, map[string]any{"revsets": map[string]any{"log": "v1"}})
	s, err = Load(context.Background(), gitWorkspace(t), custom, WithReader(git.NewMockGraphReader(b.Build(), nil)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(context.Background(), "", 0)
	if err != nil || len(got) != 1 || got[0].CommitID != b.ID("a") {
		t.Errorf("Query(\"\") with revsets.log = v1: %v, %v", commitIDs(got), err)
	}
}

func TestSession_MineUsesUserEmail(t *testing.T) {
	b := git.NewGraphBuilder().
		Commit("root").
		CommitWith(git.CommitRecord{Author: git.Signature{Name: "Me", Email: "Me@Example.com"}}, "mine", "root").
		WorkingCopy("mine")
	settings := testSettings(t, map[string]any{"user": map[string]any{"email": "me@example.com"}})
	s, err := Load(context.Background(), gitWorkspace(t), settings, WithReader(git.NewMockGraphReader(b.Build(), nil)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(context.Background(), "mine()", 0)
	if err != nil || len(got) != 1 || got[0].CommitID != b.ID("mine") {
		t.Errorf("mine() = %v, %v", commitIDs(got), err)
	}
}

func TestSession_QueryLimit(t *testing.T) {
	b := git.NewGraphBuilder().Commit("root").Commit("a", "root").Commit("b", "a").WorkingCopy("b")
	s, err := Load(context.Background(), gitWorkspace(t), testSettings(t, nil), WithReader(git.NewMockGraphReader(b.Build(), nil)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Query(context.Background(), "all()", 2)
	if err != nil {
		t.Fatal(err)
	}
	if ids := commitIDs(got); len(ids) != 2 || ids[0] != b.ID("b") || ids[1] != b.ID("a") {
		t.Errorf("all() limited to 2 = %v", ids)
	}
}
