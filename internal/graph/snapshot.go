// Package graph holds the immutable, indexed view of a repository's commit
// graph that queries run against.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"github.com/masmgr/jjlog-go/internal/git"
)

// ErrCycle is returned when the parent links of a graph do not form a DAG.
var ErrCycle = errors.New("commit graph contains a cycle")

// Commit is one commit in a snapshot. Parents and Children hold snapshot
// positions; parents always have a lower position than their children.
type Commit struct {
	Pos         int
	ID          string
	ChangeID    string
	Parents     []int
	Children    []int
	Author      git.Signature
	Committer   git.Signature
	Description string
}

// FirstLine returns the first line of the description.
func (c *Commit) FirstLine() string {
	line, _, _ := strings.Cut(c.Description, "\n")
	return strings.TrimSuffix(line, "\r")
}

// NamedRef is a bookmark, remote bookmark or tag resolved to a position.
type NamedRef struct {
	Name   string
	Remote string
	Pos    int
}

// Symbol returns "name" or "name@remote".
func (r NamedRef) Symbol() string {
	if r.Remote == "" {
		return r.Name
	}
	return r.Name + "@" + r.Remote
}

// Snapshot is a point-in-time view of the commit graph with lookup indexes.
// It never changes after Build returns.
type Snapshot struct {
	generation uint64
	commits    []Commit
	byID       map[string]int
	byChange   map[string][]int

	commitIndex *PrefixIndex
	changeIndex *PrefixIndex

	heads           []int
	roots           []int
	bookmarks       []NamedRef
	remoteBookmarks []NamedRef
	tags            []NamedRef
	workingCopy     int
}

// Build orders the commits of g topologically and builds the indexes.
// Refs whose target is not part of g are dropped.
func Build(g *git.Graph, generation uint64) (*Snapshot, error) {
	s := &Snapshot{
		generation:  generation,
		byID:        make(map[string]int, len(g.Commits)),
		byChange:    make(map[string][]int, len(g.Commits)),
		workingCopy: -1,
	}

	records := make(map[string]*git.CommitRecord, len(g.Commits))
	for i := range g.Commits {
		rec := &g.Commits[i]
		if _, dup := records[rec.ID]; !dup {
			records[rec.ID] = rec
		}
	}

	order, err := topoOrder(records)
	if err != nil {
		return nil, err
	}

	s.commits = make([]Commit, len(order))
	for pos, rec := range order {
		s.byID[rec.ID] = pos
		s.byChange[rec.ChangeID] = append(s.byChange[rec.ChangeID], pos)
		s.commits[pos] = Commit{
			Pos:         pos,
			ID:          rec.ID,
			ChangeID:    rec.ChangeID,
			Author:      rec.Author,
			Committer:   rec.Committer,
			Description: rec.Description,
		}
	}
	for pos, rec := range order {
		for _, p := range rec.Parents {
			ppos, ok := s.byID[p]
			if !ok {
				continue
			}
			s.commits[pos].Parents = append(s.commits[pos].Parents, ppos)
			s.commits[ppos].Children = append(s.commits[ppos].Children, pos)
		}
	}
	for pos := range s.commits {
		if len(s.commits[pos].Children) == 0 {
			s.heads = append(s.heads, pos)
		}
		if len(s.commits[pos].Parents) == 0 {
			s.roots = append(s.roots, pos)
		}
	}

	ids := make([]string, len(order))
	changes := make([]string, 0, len(s.byChange))
	for pos, rec := range order {
		ids[pos] = rec.ID
	}
	for change := range s.byChange {
		changes = append(changes, change)
	}
	s.commitIndex = NewPrefixIndex(ids)
	s.changeIndex = NewPrefixIndex(changes)

	if g.WorkingCopy != "" {
		pos, ok := s.byID[g.WorkingCopy]
		if !ok {
			return nil, fmt.Errorf("working-copy commit %s is not in the graph", g.WorkingCopy)
		}
		s.workingCopy = pos
	}

	for _, ref := range g.Refs {
		pos, ok := s.byID[ref.Target]
		if !ok {
			continue
		}
		named := NamedRef{Name: ref.Name, Remote: ref.Remote, Pos: pos}
		switch ref.Kind {
		case git.RefKindBookmark:
			s.bookmarks = append(s.bookmarks, named)
		case git.RefKindRemoteBookmark:
			s.remoteBookmarks = append(s.remoteBookmarks, named)
		case git.RefKindTag:
			s.tags = append(s.tags, named)
		}
	}
	sortRefs(s.bookmarks)
	sortRefs(s.remoteBookmarks)
	sortRefs(s.tags)
	return s, nil
}

func sortRefs(refs []NamedRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Name != refs[j].Name {
			return refs[i].Name < refs[j].Name
		}
		return refs[i].Remote < refs[j].Remote
	})
}

// topoOrder runs Kahn's algorithm, releasing ready commits oldest committer
// timestamp first and breaking ties by commit id.
func topoOrder(records map[string]*git.CommitRecord) ([]*git.CommitRecord, error) {
	pending := make(map[string]int, len(records))
	children := make(map[string][]string, len(records))
	for id, rec := range records {
		for _, p := range rec.Parents {
			if _, ok := records[p]; !ok {
				continue
			}
			pending[id]++
			children[p] = append(children[p], id)
		}
	}

	ready := priorityqueue.NewWith(func(a, b interface{}) int {
		ra, rb := a.(*git.CommitRecord), b.(*git.CommitRecord)
		switch {
		case ra.Committer.When.Before(rb.Committer.When):
			return -1
		case ra.Committer.When.After(rb.Committer.When):
			return 1
		}
		return strings.Compare(ra.ID, rb.ID)
	})
	for id, rec := range records {
		if pending[id] == 0 {
			ready.Enqueue(rec)
		}
	}

	order := make([]*git.CommitRecord, 0, len(records))
	for !ready.Empty() {
		v, _ := ready.Dequeue()
		rec := v.(*git.CommitRecord)
		order = append(order, rec)
		for _, child := range children[rec.ID] {
			pending[child]--
			if pending[child] == 0 {
				ready.Enqueue(records[child])
			}
		}
	}
	if len(order) != len(records) {
		return nil, ErrCycle
	}
	return order, nil
}

// Generation identifies the load this snapshot came from.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Len returns the number of commits.
func (s *Snapshot) Len() int { return len(s.commits) }

// Commit returns the commit at pos.
func (s *Snapshot) Commit(pos int) *Commit { return &s.commits[pos] }

// Lookup returns the position of a full commit id.
func (s *Snapshot) Lookup(id string) (int, bool) {
	pos, ok := s.byID[id]
	return pos, ok
}

// ChangeCommits returns every position carrying changeID, newest first.
// More than one position means the change is divergent.
func (s *Snapshot) ChangeCommits(changeID string) []int {
	src := s.byChange[changeID]
	out := make([]int, len(src))
	for i, pos := range src {
		out[len(src)-1-i] = pos
	}
	return out
}

// CommitIndex returns the prefix index over commit ids.
func (s *Snapshot) CommitIndex() *PrefixIndex { return s.commitIndex }

// ChangeIndex returns the prefix index over distinct change ids.
func (s *Snapshot) ChangeIndex() *PrefixIndex { return s.changeIndex }

// Heads returns the commits without children, in ascending position.
func (s *Snapshot) Heads() []int { return s.heads }

// Roots returns the parentless commits, in ascending position.
func (s *Snapshot) Roots() []int { return s.roots }

// WorkingCopy returns the position of the working-copy commit, which is the
// commit git HEAD resolves to. The second result is false for a repository
// without commits.
//
// This is not jj's own working-copy commit. In a colocated jj workspace jj
// points HEAD at the parent of its working-copy commit, so @ here is jj's
// @-. Without colocation jj does not maintain HEAD and @ follows whatever
// HEAD was last set to.
func (s *Snapshot) WorkingCopy() (int, bool) {
	return s.workingCopy, s.workingCopy >= 0
}

// Bookmarks returns the local bookmarks sorted by name.
func (s *Snapshot) Bookmarks() []NamedRef { return s.bookmarks }

// RemoteBookmarks returns the remote bookmarks sorted by name then remote.
func (s *Snapshot) RemoteBookmarks() []NamedRef { return s.remoteBookmarks }

// Tags returns the tags sorted by name.
func (s *Snapshot) Tags() []NamedRef { return s.tags }

// Bookmark returns the position of a local bookmark.
func (s *Snapshot) Bookmark(name string) (int, bool) {
	return findRef(s.bookmarks, name, "")
}

// RemoteBookmark returns the position of name@remote.
func (s *Snapshot) RemoteBookmark(name, remote string) (int, bool) {
	return findRef(s.remoteBookmarks, name, remote)
}

// Tag returns the position of a tag.
func (s *Snapshot) Tag(name string) (int, bool) {
	return findRef(s.tags, name, "")
}

func findRef(refs []NamedRef, name, remote string) (int, bool) {
	i := sort.Search(len(refs), func(i int) bool {
		if refs[i].Name != name {
			return refs[i].Name >= name
		}
		return refs[i].Remote >= remote
	})
	if i < len(refs) && refs[i].Name == name && refs[i].Remote == remote {
		return refs[i].Pos, true
	}
	return 0, false
}
