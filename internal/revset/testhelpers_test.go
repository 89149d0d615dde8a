package revset

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/masmgr/jjlog-go/internal/git"
	"github.com/masmgr/jjlog-go/internal/graph"
)

// fixture is the graph most tests run against:
//
//	m      main, working copy
//	|\
//	c |    main@origin
//	| d    feature, authored by Alice
//	b |    third
//	|/
//	a      second, tag v1
//	|
//	root   first
type fixture struct {
	snap  *graph.Snapshot
	names map[string]string // commit id -> commit name
	b     *git.GraphBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	alice := git.Signature{Name: "Alice", Email: "alice@example.com"}
	b := git.NewGraphBuilder().
		Commit("root").
		Commit("a", "root").
		Commit("b", "a").
		Commit("c", "b").
		CommitWith(git.CommitRecord{Author: alice, Description: "d\n\nadd feature\n"}, "d", "a").
		Commit("m", "c", "d").
		Bookmark("first", "root").
		Bookmark("second", "a").
		Bookmark("third", "b").
		Bookmark("feature", "d").
		Bookmark("main", "m").
		RemoteBookmark("main", "origin", "c").
		Tag("v1", "a").
		WorkingCopy("m")
	return fixtureFrom(t, b, "root", "a", "b", "c", "d", "m")
}

func fixtureFrom(t *testing.T, b *git.GraphBuilder, names ...string) *fixture {
	t.Helper()
	snap, err := graph.Build(b.Build(), 1)
	require.NoError(t, err)
	f := &fixture{snap: snap, names: map[string]string{}, b: b}
	for _, name := range names {
		f.names[b.ID(name)] = name
	}
	return f
}

func (f *fixture) pipeline(aliases *AliasTable) *Pipeline {
	return &Pipeline{Snapshot: f.snap, Aliases: aliases, UserEmail: "alice@example.com"}
}

// eval evaluates text and maps the result back to commit names.
func (f *fixture) eval(t *testing.T, aliases *AliasTable, text string) ([]string, error) {
	t.Helper()
	ids, _, err := f.pipeline(aliases).Evaluate(context.Background(), text)
	if err != nil {
		return nil, err
	}
	return f.toNames(ids), nil
}

func (f *fixture) toNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.names[id])
	}
	return out
}

// drawSnapshot generates a random DAG with a bookmark b<i> on every commit.
func drawSnapshot(t *rapid.T) (*graph.Snapshot, int) {
	n := rapid.IntRange(1, 10).Draw(t, "commits")
	b := git.NewGraphBuilder()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("c%d", i)
		var parents []string
		if i > 0 {
			k := rapid.IntRange(0, min(i, 2)).Draw(t, fmt.Sprintf("nparents%d", i))
			seen := map[int]bool{}
			for j := 0; j < k; j++ {
				p := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d_%d", i, j))
				if !seen[p] {
					seen[p] = true
					parents = append(parents, fmt.Sprintf("c%d", p))
				}
			}
		}
		rec := git.CommitRecord{Description: fmt.Sprintf("commit %d\n", i%3)}
		if rapid.Bool().Draw(t, fmt.Sprintf("alice%d", i)) {
			rec.Author = git.Signature{Name: "Alice", Email: "alice@example.com", When: time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC)}
		}
		b.CommitWith(rec, name, parents...)
		b.Bookmark(fmt.Sprintf("b%d", i), name)
	}
	b.WorkingCopy(fmt.Sprintf("c%d", n-1))

	snap, err := graph.Build(b.Build(), 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return snap, n
}

// drawRevset generates revset text over the bookmarks of drawSnapshot.
func drawRevset(t *rapid.T, commits, depth int, label string) string {
	atom := func() string {
		atoms := []string{
			"all()", "none()", "@", "root()", "visible_heads()", "merges()",
			"description(\"commit 1\")", "author(alice)", "bookmarks(glob:\"b1*\")",
			fmt.Sprintf("b%d", rapid.IntRange(0, commits-1).Draw(t, label+"_bm")),
		}
		return rapid.SampledFrom(atoms).Draw(t, label+"_atom")
	}
	if depth <= 0 {
		return atom()
	}

	sub := func(suffix string) string {
		return drawRevset(t, commits, depth-1, label+suffix)
	}
	switch rapid.IntRange(0, 16).Draw(t, label+"_op") {
	case 0:
		return "::(" + sub("_x") + ")"
	case 1:
		return "(" + sub("_x") + ")::"
	case 2:
		return "(" + sub("_x") + ")-"
	case 3:
		return "(" + sub("_x") + ")+"
	case 4:
		return "~" + sub("_x")
	case 5:
		return "heads(" + sub("_x") + ")"
	case 6:
		return "roots(" + sub("_x") + ")"
	case 7:
		return fmt.Sprintf("ancestors(ancestors(%s, %d), %d)", sub("_x"),
			rapid.IntRange(0, 3).Draw(t, label+"_n1"), rapid.IntRange(0, 3).Draw(t, label+"_n2"))
	case 8:
		return fmt.Sprintf("descendants(%s, %d)", sub("_x"), rapid.IntRange(0, 3).Draw(t, label+"_n"))
	case 9:
		return "(" + sub("_l") + " | " + sub("_r") + ")"
	case 10:
		return "(" + sub("_l") + " & " + sub("_r") + ")"
	case 11:
		return "(" + sub("_l") + " ~ " + sub("_r") + ")"
	case 12:
		return "(" + sub("_l") + ")::(" + sub("_r") + ")"
	case 13:
		return "(" + sub("_l") + ")..(" + sub("_r") + ")"
	case 14:
		return "(" + sub("_l") + " & ~" + sub("_r") + ")"
	case 15:
		return "~~" + sub("_x")
	default:
		return atom()
	}
}

func emptyBuilder() *git.GraphBuilder {
	return git.NewGraphBuilder()
}

type collidingGraph struct {
	builder *git.GraphBuilder
	names   []string
	prefix  string
}

// newCollidingBuilder adds root commits until two ids share a first digit.
func newCollidingBuilder(t *testing.T) collidingGraph {
	t.Helper()
	b := git.NewGraphBuilder()
	seen := map[byte]bool{}
	var names []string
	for i := 0; ; i++ {
		name := fmt.Sprintf("x%d", i)
		b.Commit(name)
		names = append(names, name)
		first := b.ID(name)[0]
		if seen[first] {
			return collidingGraph{builder: b, names: names, prefix: string(first)}
		}
		seen[first] = true
	}
}

func newDivergentFixture(t *testing.T) *fixture {
	t.Helper()
	shared := git.DeriveChangeID(git.SyntheticID("shared"))
	b := git.NewGraphBuilder().
		Commit("root").
		CommitWith(git.CommitRecord{ChangeID: shared, Description: "one\n"}, "one", "root").
		CommitWith(git.CommitRecord{ChangeID: shared, Description: "two\n"}, "two", "root").
		WorkingCopy("two")
	return fixtureFrom(t, b, "root", "one", "two")
}
