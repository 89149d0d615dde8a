package graph

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/masmgr/jjlog-go/internal/git"
)

// drawGraph generates a small DAG where every commit's parents were added
// before it.
func drawGraph(t *rapid.T) *git.Graph {
	n := rapid.IntRange(0, 12).Draw(t, "commits")
	b := git.NewGraphBuilder()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("c%d", i)
		var parents []string
		if i > 0 {
			k := rapid.IntRange(0, min(i, 2)).Draw(t, fmt.Sprintf("nparents%d", i))
			seen := map[int]bool{}
			for j := 0; j < k; j++ {
				p := rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d_%d", i, j))
				if seen[p] {
					continue
				}
				seen[p] = true
				parents = append(parents, fmt.Sprintf("c%d", p))
			}
		}
		b.Commit(name, parents...)
	}
	if n > 0 {
		b.WorkingCopy(fmt.Sprintf("c%d", n-1))
	}
	return b.Build()
}
