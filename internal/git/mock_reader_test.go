package git

import (
	"context"
	"errors"
	"testing"
)

func TestMockGraphReader_ReadGraph(t *testing.T) {
	expected := NewGraphBuilder().Commit("root").Commit("child", "root").WorkingCopy("child").Build()

	t.Run("returns graph", func(t *testing.T) {
		reader := NewMockGraphReader(expected, nil)

		g, err := reader.ReadGraph(context.Background())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if len(g.Commits) != 2 {
			t.Errorf("expected 2 commits, got %d", len(g.Commits))
		}
	})

	t.Run("returns error", func(t *testing.T) {
		expectedErr := errors.New("test error")
		reader := NewMockGraphReader(nil, expectedErr)

		_, err := reader.ReadGraph(context.Background())
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})

	t.Run("nil graph is empty", func(t *testing.T) {
		g, err := NewMockGraphReader(nil, nil).ReadGraph(context.Background())
		if err != nil || g == nil || len(g.Commits) != 0 {
			t.Errorf("expected empty graph, got %v, %v", g, err)
		}
	})
}

func TestGraphBuilder(t *testing.T) {
	b := NewGraphBuilder().
		Commit("root").
		Commit("a", "root").
		Commit("b", "root").
		Commit("merge", "a", "b").
		Bookmark("main", "merge").
		RemoteBookmark("main", "origin", "a").
		Tag("v1", "root").
		WorkingCopy("merge")
	g := b.Build()

	if len(g.Commits) != 4 {
		t.Fatalf("commits = %d, expected 4", len(g.Commits))
	}
	merge := g.Commits[3]
	if len(merge.Parents) != 2 || merge.Parents[0] != b.ID("a") || merge.Parents[1] != b.ID("b") {
		t.Errorf("merge parents = %v", merge.Parents)
	}
	if merge.ChangeID != DeriveChangeID(merge.ID) {
		t.Errorf("merge change id = %q, expected derived", merge.ChangeID)
	}
	if !g.Commits[0].Committer.When.Before(merge.Committer.When) {
		t.Errorf("expected increasing committer timestamps")
	}
	if g.WorkingCopy != b.ID("merge") {
		t.Errorf("working copy = %q", g.WorkingCopy)
	}
	if len(g.Refs) != 3 {
		t.Errorf("refs = %d, expected 3", len(g.Refs))
	}
}
