package session

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/masmgr/jjlog-go/internal/git"
)

// On first-parent-linear history the head chain is a prefix of ::@.
func TestHeadCommitChain_PrefixOfAncestors(t *testing.T) {
	dir := gitWorkspace(t)
	settings := testSettings(t, nil)

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(rt, "commits")
		limit := rapid.IntRange(1, 40).Draw(rt, "limit")

		b := git.NewGraphBuilder().Commit("c0")
		for i := 1; i < n; i++ {
			b.Commit(fmt.Sprintf("c%d", i), fmt.Sprintf("c%d", i-1))
		}
		b.WorkingCopy(fmt.Sprintf("c%d", n-1))

		s, err := Load(context.Background(), dir, settings, WithReader(git.NewMockGraphReader(b.Build(), nil)))
		if err != nil {
			rt.Fatalf("Load: %v", err)
		}
		chain, err := s.HeadCommitChain(limit)
		if err != nil {
			rt.Fatalf("HeadCommitChain: %v", err)
		}
		ancestors, err := s.Query(context.Background(), "::@", 0)
		if err != nil {
			rt.Fatalf("Query: %v", err)
		}

		want := ancestors[:min(limit, len(ancestors))]
		if len(chain) != len(want) {
			rt.Fatalf("chain has %d commits, expected %d", len(chain), len(want))
		}
		for i := range want {
			if chain[i] != want[i] {
				rt.Fatalf("chain[%d] = %+v, expected %+v", i, chain[i], want[i])
			}
		}
	})
}
