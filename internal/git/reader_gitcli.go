package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// CLIReader reads the commit graph by shelling out to the git binary.
type CLIReader struct {
	opts ReadOptions
}

// NewCLIReader checks that git is available and that opts.GitDir is a repository.
func NewCLIReader(opts ReadOptions) (*CLIReader, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git binary not found: %w", err)
	}
	r := &CLIReader{opts: opts}
	if _, err := r.git(context.Background(), nil, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.GitDir, err)
	}
	return r, nil
}

// ReadGraph lists the visible refs, walks history with rev-list and decodes
// every commit through a single cat-file batch.
func (r *CLIReader) ReadGraph(ctx context.Context) (*Graph, error) {
	log := r.opts.logger()
	g := &Graph{}

	head, err := r.head(ctx)
	if err != nil {
		return nil, err
	}
	g.WorkingCopy = head

	refs, err := r.refs(ctx)
	if err != nil {
		return nil, err
	}
	g.Refs = refs

	var tips []string
	if head != "" {
		tips = append(tips, head)
	}
	for _, ref := range refs {
		tips = append(tips, ref.Target)
	}
	if len(tips) == 0 {
		return g, nil
	}

	out, err := r.git(ctx, strings.NewReader(strings.Join(tips, "\n")+"\n"), "rev-list", "--stdin")
	if err != nil {
		return nil, fmt.Errorf("git rev-list failed: %w", err)
	}
	ids := strings.Fields(string(out))

	batch, err := r.git(ctx, strings.NewReader(strings.Join(ids, "\n")+"\n"), "cat-file", "--batch")
	if err != nil {
		return nil, fmt.Errorf("git cat-file failed: %w", err)
	}
	g.Commits, err = parseCatFileBatch(batch)
	if err != nil {
		return nil, err
	}

	if dropped := pruneMissingParents(g); dropped > 0 {
		log.Debug("dropped parent edges outside the graph", "count", dropped)
	}
	log.Debug("read commit graph", "commits", len(g.Commits), "refs", len(g.Refs), "backend", BackendGitCLI)
	return g, nil
}

// head returns the commit HEAD points at, or "" when HEAD is unborn.
func (r *CLIReader) head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, nil, "rev-parse", "--verify", "-q", "HEAD^{commit}")
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}
	// An unborn branch still has a symbolic HEAD.
	if _, symErr := r.git(ctx, nil, "symbolic-ref", "-q", "HEAD"); symErr == nil {
		if _, verifyErr := r.git(ctx, nil, "rev-parse", "--verify", "-q", "HEAD"); verifyErr != nil {
			return "", nil
		}
	}
	return "", fmt.Errorf("%w: %v", ErrHeadUnavailable, err)
}

// refs lists bookmarks, remote bookmarks and tags, peeling annotated tags.
func (r *CLIReader) refs(ctx context.Context) ([]Ref, error) {
	const format = "%(refname)%00%(objecttype)%00%(objectname)%00%(*objecttype)%00%(*objectname)"
	out, err := r.git(ctx, nil, "for-each-ref", "--format="+format, "refs/heads", "refs/remotes", "refs/tags")
	if err != nil {
		return nil, fmt.Errorf("git for-each-ref failed: %w", err)
	}

	var refs []Ref
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\x00")
		if len(fields) != 5 {
			return nil, fmt.Errorf("unexpected git for-each-ref line %q", line)
		}
		name, objType, target, peeledType, peeled := fields[0], fields[1], fields[2], fields[3], fields[4]

		switch {
		case strings.HasPrefix(name, "refs/heads/"):
			refs = append(refs, Ref{Kind: RefKindBookmark, Name: strings.TrimPrefix(name, "refs/heads/"), Target: target})
		case strings.HasPrefix(name, "refs/remotes/"):
			remote, branch, ok := strings.Cut(strings.TrimPrefix(name, "refs/remotes/"), "/")
			if !ok || branch == "HEAD" {
				continue
			}
			refs = append(refs, Ref{Kind: RefKindRemoteBookmark, Name: branch, Remote: remote, Target: target})
		case strings.HasPrefix(name, "refs/tags/"):
			tag := strings.TrimPrefix(name, "refs/tags/")
			switch {
			case objType == "commit":
				refs = append(refs, Ref{Kind: RefKindTag, Name: tag, Target: target})
			case objType == "tag" && peeledType == "commit":
				refs = append(refs, Ref{Kind: RefKindTag, Name: tag, Target: peeled})
			}
		}
	}
	return refs, nil
}

// git runs a git command against the configured directory.
func (r *CLIReader) git(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	full := append([]string{"-C", r.opts.GitDir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// parseCatFileBatch decodes "<id> <type> <size>\n<body>\n" records.
func parseCatFileBatch(out []byte) ([]CommitRecord, error) {
	rd := bufio.NewReader(bytes.NewReader(out))
	var commits []CommitRecord
	for {
		header, err := rd.ReadString('\n')
		if errors.Is(err, io.EOF) && header == "" {
			return commits, nil
		}
		if err != nil {
			return nil, fmt.Errorf("unexpected git cat-file output: %w", err)
		}

		fields := strings.Fields(header)
		if len(fields) == 2 && fields[1] == "missing" {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("unexpected git cat-file header %q", header)
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("parse object size %q: %w", fields[2], err)
		}

		body := make([]byte, size)
		if _, err := io.ReadFull(rd, body); err != nil {
			return nil, fmt.Errorf("short git cat-file body for %s: %w", fields[0], err)
		}
		if _, err := rd.Discard(1); err != nil {
			return nil, fmt.Errorf("unexpected git cat-file output: %w", err)
		}

		if fields[1] != "commit" {
			continue
		}
		rec, err := parseCommitObject(fields[0], body)
		if err != nil {
			return nil, err
		}
		commits = append(commits, rec)
	}
}
