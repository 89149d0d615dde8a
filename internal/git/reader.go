package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrHeadUnavailable is returned when HEAD is missing or points at an object
// that does not exist. An unborn HEAD is not an error.
var ErrHeadUnavailable = errors.New("head unavailable")

// ReadOptions configures the graph readers.
type ReadOptions struct {
	GitDir string
	Logger *slog.Logger
}

func (o ReadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// HistoryReader reads the commit graph of a repository through go-git.
type HistoryReader struct {
	repo *git.Repository
	opts ReadOptions
}

// NewHistoryReader opens the repository at opts.GitDir. The path may be a
// worktree root, a .git directory or a bare repository.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	repo, err := git.PlainOpenWithOptions(opts.GitDir, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.GitDir, err)
	}
	return &HistoryReader{repo: repo, opts: opts}, nil
}

// ReadGraph walks every commit reachable from HEAD and the visible refs.
func (r *HistoryReader) ReadGraph(ctx context.Context) (*Graph, error) {
	log := r.opts.logger()
	g := &Graph{}

	var tips []plumbing.Hash
	head, err := r.head()
	if err != nil {
		return nil, err
	}
	if !head.IsZero() {
		g.WorkingCopy = head.String()
		tips = append(tips, head)
	}

	refs, err := r.refs()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		g.Refs = append(g.Refs, ref)
		tips = append(tips, plumbing.NewHash(ref.Target))
	}

	seen := make(map[plumbing.Hash]struct{}, 1024)
	queue := append([]plumbing.Hash(nil), tips...)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		h := queue[0]
		queue = queue[1:]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}

		rec, err := r.readCommit(h)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			if h.String() == g.WorkingCopy {
				return nil, fmt.Errorf("%w: HEAD points at missing commit %s", ErrHeadUnavailable, h)
			}
			log.Warn("commit object missing, treating as shallow boundary", "commit", h.String())
			continue
		}
		if err != nil {
			return nil, err
		}

		g.Commits = append(g.Commits, rec)
		for _, p := range rec.Parents {
			queue = append(queue, plumbing.NewHash(p))
		}
	}

	if dropped := pruneMissingParents(g); dropped > 0 {
		log.Debug("dropped parent edges outside the graph", "count", dropped)
	}
	log.Debug("read commit graph", "commits", len(g.Commits), "refs", len(g.Refs))
	return g, nil
}

// head resolves HEAD. A zero hash means HEAD is unborn.
func (r *HistoryReader) head() (plumbing.Hash, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrHeadUnavailable, err)
	}
	if ref.Type() == plumbing.HashReference {
		return ref.Hash(), nil
	}

	resolved, err := r.repo.Reference(ref.Target(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %v", ErrHeadUnavailable, err)
	}
	return resolved.Hash(), nil
}

// refs lists local branches, remote-tracking branches and peeled tags.
func (r *HistoryReader) refs() ([]Ref, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			refs = append(refs, Ref{Kind: RefKindBookmark, Name: name.Short(), Target: ref.Hash().String()})
		case name.IsRemote():
			remote, branch, ok := strings.Cut(strings.TrimPrefix(name.String(), "refs/remotes/"), "/")
			if !ok || branch == "HEAD" {
				return nil
			}
			refs = append(refs, Ref{Kind: RefKindRemoteBookmark, Name: branch, Remote: remote, Target: ref.Hash().String()})
		case name.IsTag():
			target, ok := r.peelTag(ref.Hash())
			if !ok {
				return nil
			}
			refs = append(refs, Ref{Kind: RefKindTag, Name: name.Short(), Target: target.String()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// peelTag follows annotated tags down to a commit.
func (r *HistoryReader) peelTag(h plumbing.Hash) (plumbing.Hash, bool) {
	tag, err := r.repo.TagObject(h)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		// Lightweight tag.
		return h, true
	}
	if err != nil {
		return plumbing.ZeroHash, false
	}
	commit, err := tag.Commit()
	if err != nil {
		r.opts.logger().Debug("skipping tag not pointing at a commit", "tag", tag.Name)
		return plumbing.ZeroHash, false
	}
	return commit.Hash, true
}

// readCommit decodes one commit and recovers its change id from the raw headers.
func (r *HistoryReader) readCommit(h plumbing.Hash) (CommitRecord, error) {
	obj, err := r.repo.Storer.EncodedObject(plumbing.CommitObject, h)
	if err != nil {
		return CommitRecord{}, err
	}
	c, err := object.DecodeCommit(r.repo.Storer, obj)
	if err != nil {
		return CommitRecord{}, fmt.Errorf("decode commit %s: %w", h, err)
	}

	rd, err := obj.Reader()
	if err != nil {
		return CommitRecord{}, fmt.Errorf("read commit %s: %w", h, err)
	}
	defer rd.Close()
	raw, err := io.ReadAll(rd)
	if err != nil {
		return CommitRecord{}, fmt.Errorf("read commit %s: %w", h, err)
	}

	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}

	return CommitRecord{
		ID:          h.String(),
		ChangeID:    changeIDFor(h.String(), raw),
		Parents:     parents,
		Author:      Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:   Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Description: c.Message,
	}, nil
}
