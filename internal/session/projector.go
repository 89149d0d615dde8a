package session

import (
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/masmgr/jjlog-go/internal/graph"
)

// CommitProjection is the presentation view of one commit. Prefix lengths
// are the shortest prefixes that are unique within the snapshot.
type CommitProjection struct {
	ChangeID          string `json:"changeId"`
	ChangeIDPrefixLen uint8  `json:"changeIdPrefixLen"`
	CommitID          string `json:"commitId"`
	CommitIDPrefixLen uint8  `json:"commitIdPrefixLen"`
	MessageFirstLine  string `json:"messageFirstLine"`
	AuthorName        string `json:"authorName"`
	AuthorEmail       string `json:"authorEmail"`
	AuthorTimestamp   int64  `json:"authorTimestampUnixSeconds"`
}

// ShortChangeID returns the unique prefix of the change id.
func (p CommitProjection) ShortChangeID() string {
	return p.ChangeID[:min(int(p.ChangeIDPrefixLen), len(p.ChangeID))]
}

// ShortCommitID returns the unique prefix of the commit id.
func (p CommitProjection) ShortCommitID() string {
	return p.CommitID[:min(int(p.CommitIDPrefixLen), len(p.CommitID))]
}

// Projector turns commit ids into projections for one snapshot.
type Projector struct {
	snap  *graph.Snapshot
	cache *cache.Cache
}

// NewProjector returns a projector memoizing into c. A nil cache gets a
// private one.
func NewProjector(snap *graph.Snapshot, c *cache.Cache) *Projector {
	if c == nil {
		c = newProjectionCache()
	}
	return &Projector{snap: snap, cache: c}
}

func newProjectionCache() *cache.Cache {
	return cache.New(cache.NoExpiration, 0)
}

func (p *Projector) key(id string) string {
	return fmt.Sprintf("%d/%s", p.snap.Generation(), id)
}

// Project computes the projection of the commit with the given full id.
func (p *Projector) Project(id string) (CommitProjection, error) {
	key := p.key(id)
	if v, ok := p.cache.Get(key); ok {
		return v.(CommitProjection), nil
	}

	pos, ok := p.snap.Lookup(id)
	if !ok {
		return CommitProjection{}, &ProjectionPreconditionError{ID: id, Generation: p.snap.Generation()}
	}
	c := p.snap.Commit(pos)
	commitLen, _ := p.snap.CommitIndex().ShortestUniquePrefixLen(c.ID)
	changeLen, _ := p.snap.ChangeIndex().ShortestUniquePrefixLen(c.ChangeID)

	proj := CommitProjection{
		ChangeID:          c.ChangeID,
		ChangeIDPrefixLen: clampUint8(changeLen),
		CommitID:          c.ID,
		CommitIDPrefixLen: clampUint8(commitLen),
		MessageFirstLine:  c.FirstLine(),
		AuthorName:        c.Author.Name,
		AuthorEmail:       c.Author.Email,
		AuthorTimestamp:   c.Author.When.Unix(),
	}
	p.cache.Set(key, proj, cache.NoExpiration)
	return proj, nil
}

// ProjectAll projects ids in order, stopping at the first failure.
func (p *Projector) ProjectAll(ids []string) ([]CommitProjection, error) {
	out := make([]CommitProjection, 0, len(ids))
	for _, id := range ids {
		proj, err := p.Project(id)
		if err != nil {
			return nil, err
		}
		out = append(out, proj)
	}
	return out, nil
}

func clampUint8(n int) uint8 {
	if n > 255 {
		return 255
	}
	return uint8(n)
}
