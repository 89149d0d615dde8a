package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// createBenchRepo builds a linear history with a branch every branchEvery
// commits and a tag on every tagEvery-th commit.
func createBenchRepo(tb testing.TB, commits, branchEvery, tagEvery int) string {
	tb.Helper()

	repoDir := tb.TempDir()
	repo, err := gogit.PlainInit(repoDir, false)
	if err != nil {
		tb.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		tb.Fatalf("Worktree: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < commits; i++ {
		when := base.Add(time.Duration(i) * time.Hour)
		full := filepath.Join(repoDir, "log.txt")
		if err := os.WriteFile(full, []byte(fmt.Sprintf("commit=%d\n", i)), 0o644); err != nil {
			tb.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add("log.txt"); err != nil {
			tb.Fatalf("Add: %v", err)
		}
		sig := &object.Signature{Name: "Bench", Email: "bench@example.com", When: when}
		h, err := wt.Commit(fmt.Sprintf("commit %d", i), &gogit.CommitOptions{Author: sig, Committer: sig})
		if err != nil {
			tb.Fatalf("Commit: %v", err)
		}

		if branchEvery > 0 && i%branchEvery == 0 {
			ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(fmt.Sprintf("b%d", i)), h)
			if err := repo.Storer.SetReference(ref); err != nil {
				tb.Fatalf("SetReference: %v", err)
			}
		}
		if tagEvery > 0 && i%tagEvery == 0 {
			if _, err := repo.CreateTag(fmt.Sprintf("v%d", i), h, &gogit.CreateTagOptions{Tagger: sig, Message: "tag"}); err != nil {
				tb.Fatalf("CreateTag: %v", err)
			}
		}
	}
	return repoDir
}

func BenchmarkHistoryReader_ReadGraph(b *testing.B) {
	repoDir := createBenchRepo(b, 300, 25, 50)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reader, err := NewHistoryReader(ReadOptions{GitDir: repoDir})
		if err != nil {
			b.Fatalf("NewHistoryReader: %v", err)
		}
		g, err := reader.ReadGraph(context.Background())
		if err != nil {
			b.Fatalf("ReadGraph: %v", err)
		}
		if len(g.Commits) != 300 {
			b.Fatalf("commits = %d", len(g.Commits))
		}
	}
}

func BenchmarkCLIReader_ReadGraph(b *testing.B) {
	if _, err := exec.LookPath("git"); err != nil {
		b.Skip("git binary not available")
	}
	repoDir := createBenchRepo(b, 300, 25, 50)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reader, err := NewCLIReader(ReadOptions{GitDir: repoDir})
		if err != nil {
			b.Fatalf("NewCLIReader: %v", err)
		}
		g, err := reader.ReadGraph(context.Background())
		if err != nil {
			b.Fatalf("ReadGraph: %v", err)
		}
		if len(g.Commits) != 300 {
			b.Fatalf("commits = %d", len(g.Commits))
		}
	}
}
