// Package session loads a workspace into an immutable snapshot and answers
// revset queries against it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/patrickmn/go-cache"

	"github.com/masmgr/jjlog-go/config"
	"github.com/masmgr/jjlog-go/internal/git"
	"github.com/masmgr/jjlog-go/internal/graph"
	"github.com/masmgr/jjlog-go/internal/logging"
	"github.com/masmgr/jjlog-go/internal/revset"
)

// Session is one loaded generation of a workspace. Nothing in it changes
// after Load returns.
type Session struct {
	Workspace git.Workspace
	Settings  *config.Settings
	Snapshot  *graph.Snapshot
	Aliases   *revset.AliasTable
	Paths     PathConverter

	projector *Projector
	pipeline  *revset.Pipeline
	log       *slog.Logger
}

// Option configures Load and Open.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	reader     git.GraphReader
	extensions *revset.Extensions
	configOpts config.Options
	generation uint64
	cache      *cache.Cache
}

func buildOptions(opts []Option) options {
	o := options{generation: 1}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDiscard(o.logger)
	o.configOpts.Logger = o.logger
	return o
}

// WithLogger sets the logger for loading and queries.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithReader reads the graph from r instead of opening the workspace store.
func WithReader(r git.GraphReader) Option {
	return func(o *options) { o.reader = r }
}

// WithExtensions replaces the revset function registry.
func WithExtensions(ext *revset.Extensions) Option {
	return func(o *options) { o.extensions = ext }
}

// WithConfigOptions sets the options Open resolves configuration with.
func WithConfigOptions(c config.Options) Option {
	return func(o *options) { o.configOpts = c }
}

func withGeneration(gen uint64) Option {
	return func(o *options) { o.generation = gen }
}

func withCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// Load locates the workspace containing path, reads its commit graph and
// builds the alias table. Each step fails with a *LoadError of its own kind.
func Load(ctx context.Context, path string, settings *config.Settings, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	log := o.logger.With("component", "session")

	ws, err := git.FindWorkspace(path)
	if err != nil {
		return nil, &LoadError{Kind: NoWorkspace, Path: path, Err: err}
	}
	log.Debug("found workspace", "root", ws.Root, "jj", ws.IsJJ())

	reader := o.reader
	if reader == nil {
		gitDir, err := ws.GitDir()
		if err != nil {
			return nil, &LoadError{Kind: StoreOpen, Path: ws.Root, Err: err}
		}
		reader, err = git.NewGraphReader(git.BackendKind(settings.Backend()), gitDir, o.logger)
		if err != nil {
			return nil, &LoadError{Kind: StoreOpen, Path: gitDir, Err: err}
		}
		log.Debug("opened store", "dir", gitDir, "backend", settings.Backend())
	}

	g, err := reader.ReadGraph(ctx)
	switch {
	case errors.Is(err, git.ErrHeadUnavailable):
		return nil, &LoadError{Kind: HeadUnavailable, Path: ws.Root, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		return nil, &LoadError{Kind: StoreOpen, Path: ws.Root, Err: err}
	}

	snap, err := graph.Build(g, o.generation)
	if errors.Is(err, graph.ErrCycle) {
		return nil, &LoadError{Kind: StoreOpen, Path: ws.Root, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Kind: HeadUnavailable, Path: ws.Root, Err: err}
	}
	if _, ok := snap.WorkingCopy(); !ok {
		log.Debug("repository has no commits at head")
	}

	ext := o.extensions
	if ext == nil {
		ext = revset.DefaultExtensions()
	}
	configured, err := settings.RevsetAliases()
	if err != nil {
		le := &LoadError{Kind: AliasSyntax, Path: ws.Root, Err: err}
		var ve *config.ValueError
		if errors.As(err, &ve) {
			le.Name = ve.Path[len(ve.Path)-1]
		}
		return nil, le
	}
	var decls []revset.AliasDecl
	for _, a := range configured {
		decls = append(decls, revset.AliasDecl{Decl: a.Decl, Body: a.Body})
	}
	aliases, err := revset.NewAliasTable(decls, ext)
	if err != nil {
		le := &LoadError{Kind: AliasSyntax, Path: ws.Root, Err: err}
		var ae *revset.AliasError
		if errors.As(err, &ae) {
			le.Name = ae.Name
		}
		return nil, le
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ws.Root
	}

	s := &Session{
		Workspace: ws,
		Settings:  settings,
		Snapshot:  snap,
		Aliases:   aliases,
		Paths:     PathConverter{Cwd: cwd, Base: ws.Root},
		projector: NewProjector(snap, o.cache),
		pipeline: &revset.Pipeline{
			Snapshot:   snap,
			Extensions: ext,
			Aliases:    aliases,
			UserEmail:  settings.UserEmail(),
			Logger:     o.logger.With("component", "revset"),
		},
		log: log,
	}
	log.Debug("loaded snapshot",
		"commits", snap.Len(),
		"bookmarks", len(snap.Bookmarks()),
		"aliases", aliases.Len(),
		"generation", snap.Generation())
	return s, nil
}

// Generation identifies the snapshot. Reload increments it.
func (s *Session) Generation() uint64 {
	return s.Snapshot.Generation()
}

// Result is the outcome of one query, taken from a single snapshot.
type Result struct {
	Generation  uint64
	WorkingCopy string
	// Revset is the evaluated expression, after the default was applied.
	// It is empty for a head chain.
	Revset  string
	Commits []CommitProjection
}

func (s *Session) result(expr string, commits []CommitProjection) *Result {
	return &Result{
		Generation:  s.Generation(),
		WorkingCopy: s.WorkingCopyID(),
		Revset:      expr,
		Commits:     commits,
	}
}

// EffectiveRevset returns expr, or the configured default revset when expr
// is empty.
func (s *Session) EffectiveRevset(expr string) string {
	if expr == "" {
		return s.Settings.DefaultRevset()
	}
	return expr
}

// Evaluate runs a revset and returns matching commit ids, newest first. An
// empty expression means the configured default revset.
func (s *Session) Evaluate(ctx context.Context, expr string) ([]string, revset.Diagnostics, error) {
	return s.pipeline.Evaluate(ctx, s.EffectiveRevset(expr))
}

// Run evaluates expr and projects at most limit commits; limit <= 0
// projects all of them. Evaluation failures are wrapped in a *QueryError
// naming the expression that was evaluated.
func (s *Session) Run(ctx context.Context, expr string, limit int) (*Result, error) {
	expr = s.EffectiveRevset(expr)
	ids, _, err := s.pipeline.Evaluate(ctx, expr)
	if err != nil {
		return nil, &QueryError{Revset: expr, Err: err}
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	commits, err := s.projector.ProjectAll(ids)
	if err != nil {
		return nil, err
	}
	return s.result(expr, commits), nil
}

// Query is Run returning only the commits.
func (s *Session) Query(ctx context.Context, expr string, limit int) ([]CommitProjection, error) {
	res, err := s.Run(ctx, expr, limit)
	if err != nil {
		return nil, err
	}
	return res.Commits, nil
}

// Project returns the projection of one commit.
func (s *Session) Project(id string) (CommitProjection, error) {
	return s.projector.Project(id)
}

// WorkingCopyID returns the full id of the working-copy commit, or "" for
// an empty repository.
func (s *Session) WorkingCopyID() string {
	pos, ok := s.Snapshot.WorkingCopy()
	if !ok {
		return ""
	}
	return s.Snapshot.Commit(pos).ID
}

// Chain follows first parents from the working-copy commit and returns at
// most limit projections. An empty repository has no chain.
func (s *Session) Chain(limit int) (*Result, error) {
	pos, ok := s.Snapshot.WorkingCopy()
	if !ok || limit <= 0 {
		return s.result("", []CommitProjection{}), nil
	}
	var ids []string
	for len(ids) < limit {
		c := s.Snapshot.Commit(pos)
		ids = append(ids, c.ID)
		if len(c.Parents) == 0 {
			break
		}
		pos = c.Parents[0]
	}
	commits, err := s.projector.ProjectAll(ids)
	if err != nil {
		return nil, err
	}
	return s.result("", commits), nil
}

// HeadCommitChain is Chain returning only the commits.
func (s *Session) HeadCommitChain(limit int) ([]CommitProjection, error) {
	res, err := s.Chain(limit)
	if err != nil {
		return nil, err
	}
	return res.Commits, nil
}
