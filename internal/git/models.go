package git

import "time"

// Signature represents the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitRecord is one commit as read from the object store.
type CommitRecord struct {
	ID          string   // 40 hex characters
	ChangeID    string   // 32 reverse-hex characters (z..k)
	Parents     []string // commit ids, first parent first
	Author      Signature
	Committer   Signature
	Description string
}

// RefKind represents the kind of a named reference.
type RefKind int

const (
	RefKindBookmark RefKind = iota
	RefKindRemoteBookmark
	RefKindTag
)

// String returns a string representation of the ref kind.
func (k RefKind) String() string {
	switch k {
	case RefKindBookmark:
		return "bookmark"
	case RefKindRemoteBookmark:
		return "remote-bookmark"
	case RefKindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Ref is a named pointer at a commit. Tags are already peeled.
type Ref struct {
	Kind   RefKind
	Name   string
	Remote string // only set for remote bookmarks
	Target string // commit id
}

// Symbol returns the name a user types to refer to this ref.
func (r Ref) Symbol() string {
	if r.Kind == RefKindRemoteBookmark {
		return r.Name + "@" + r.Remote
	}
	return r.Name
}

// Graph is the raw commit graph of a repository at its current head.
type Graph struct {
	Commits     []CommitRecord
	Refs        []Ref
	WorkingCopy string // commit id HEAD resolves to, "" when HEAD is unborn; jj's @- when colocated
}

// pruneMissingParents drops parent edges pointing outside the graph, which
// happens at the boundary of shallow clones. It returns how many were dropped.
func pruneMissingParents(g *Graph) int {
	known := make(map[string]struct{}, len(g.Commits))
	for _, c := range g.Commits {
		known[c.ID] = struct{}{}
	}

	dropped := 0
	for i := range g.Commits {
		parents := g.Commits[i].Parents[:0]
		for _, p := range g.Commits[i].Parents {
			if _, ok := known[p]; ok {
				parents = append(parents, p)
				continue
			}
			dropped++
		}
		g.Commits[i].Parents = parents
	}
	return dropped
}

// BackendKind selects how the object store is read.
type BackendKind string

const (
	BackendGoGit  BackendKind = "go-git"
	BackendGitCLI BackendKind = "git-cli"
)
