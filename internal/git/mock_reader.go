package git

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// MockGraphReader is a test double for HistoryReader.
// It allows tests to provide a predefined graph without needing a real Git repository.
type MockGraphReader struct {
	Graph *Graph
	Error error
}

// NewMockGraphReader creates a new MockGraphReader with the given data.
func NewMockGraphReader(g *Graph, err error) *MockGraphReader {
	return &MockGraphReader{Graph: g, Error: err}
}

// ReadGraph returns the predefined graph or error.
func (m *MockGraphReader) ReadGraph(_ context.Context) (*Graph, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Graph == nil {
		return &Graph{}, nil
	}
	return m.Graph, nil
}

// GraphBuilder assembles synthetic graphs for tests. Commits are named; ids
// are derived from the name so they are stable across runs.
type GraphBuilder struct {
	g     Graph
	ids   map[string]string
	clock time.Time
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		ids:   make(map[string]string),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SyntheticID returns the commit id the builder assigns to name.
func SyntheticID(name string) string {
	sum := sha1.Sum([]byte(name))
	return hex.EncodeToString(sum[:])
}

// Commit adds a commit whose description is name, with the given parents.
// Parents must already have been added.
func (b *GraphBuilder) Commit(name string, parents ...string) *GraphBuilder {
	return b.CommitWith(CommitRecord{Description: name + "\n"}, name, parents...)
}

// CommitWith adds a commit using rec as a template for author, committer,
// description and change id.
func (b *GraphBuilder) CommitWith(rec CommitRecord, name string, parents ...string) *GraphBuilder {
	if _, dup := b.ids[name]; dup {
		panic(fmt.Sprintf("duplicate commit %q", name))
	}
	b.clock = b.clock.Add(time.Hour)

	rec.ID = SyntheticID(name)
	if rec.ChangeID == "" {
		rec.ChangeID = DeriveChangeID(rec.ID)
	}
	if rec.Author.Name == "" {
		rec.Author = Signature{Name: "Test Author", Email: "test@example.com", When: b.clock}
	}
	if rec.Committer.Name == "" {
		rec.Committer = Signature{Name: rec.Author.Name, Email: rec.Author.Email, When: b.clock}
	}
	rec.Parents = nil
	for _, p := range parents {
		id, ok := b.ids[p]
		if !ok {
			panic(fmt.Sprintf("unknown parent %q", p))
		}
		rec.Parents = append(rec.Parents, id)
	}

	b.ids[name] = rec.ID
	b.g.Commits = append(b.g.Commits, rec)
	return b
}

// Bookmark points a local bookmark at a commit.
func (b *GraphBuilder) Bookmark(name, commit string) *GraphBuilder {
	b.g.Refs = append(b.g.Refs, Ref{Kind: RefKindBookmark, Name: name, Target: b.ID(commit)})
	return b
}

// RemoteBookmark points a remote bookmark at a commit.
func (b *GraphBuilder) RemoteBookmark(name, remote, commit string) *GraphBuilder {
	b.g.Refs = append(b.g.Refs, Ref{Kind: RefKindRemoteBookmark, Name: name, Remote: remote, Target: b.ID(commit)})
	return b
}

// Tag points a tag at a commit.
func (b *GraphBuilder) Tag(name, commit string) *GraphBuilder {
	b.g.Refs = append(b.g.Refs, Ref{Kind: RefKindTag, Name: name, Target: b.ID(commit)})
	return b
}

// WorkingCopy sets the commit HEAD resolves to.
func (b *GraphBuilder) WorkingCopy(commit string) *GraphBuilder {
	b.g.WorkingCopy = b.ID(commit)
	return b
}

// ID returns the id of a named commit.
func (b *GraphBuilder) ID(name string) string {
	id, ok := b.ids[name]
	if !ok {
		panic(fmt.Sprintf("unknown commit %q", name))
	}
	return id
}

// Build returns a copy of the assembled graph.
func (b *GraphBuilder) Build() *Graph {
	g := b.g
	g.Commits = append([]CommitRecord(nil), b.g.Commits...)
	g.Refs = append([]Ref(nil), b.g.Refs...)
	return &g
}
