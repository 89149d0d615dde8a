package revset

import (
	"context"
	"errors"
	"log/slog"

	"github.com/masmgr/jjlog-go/internal/graph"
)

// Pipeline runs the parse, resolve, optimize and evaluate stages against
// one snapshot.
type Pipeline struct {
	Snapshot   *graph.Snapshot
	Extensions *Extensions
	Aliases    *AliasTable
	UserEmail  string
	Workspace  string
	Logger     *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

func (p *Pipeline) extensions() *Extensions {
	if p.Extensions == nil {
		p.Extensions = DefaultExtensions()
	}
	return p.Extensions
}

// Parse parses text with the pipeline's functions and aliases.
func (p *Pipeline) Parse(text string) (Expr, Diagnostics, error) {
	return Parse(text, ParseContext{Extensions: p.extensions(), Aliases: p.Aliases})
}

// Resolve resolves a parsed expression against the snapshot.
func (p *Pipeline) Resolve(expr Expr) (Resolved, error) {
	return Resolve(expr, &Resolver{
		Snapshot:   p.Snapshot,
		Aliases:    p.Aliases,
		Extensions: p.extensions(),
		UserEmail:  p.UserEmail,
		Workspace:  p.Workspace,
	})
}

// Evaluate runs every stage and returns matching commit ids, newest first.
// The context is checked between stages only.
func (p *Pipeline) Evaluate(ctx context.Context, text string) ([]string, Diagnostics, error) {
	log := p.logger()

	expr, diags, err := p.Parse(text)
	if err != nil {
		return nil, diags, err
	}
	for _, d := range diags {
		log.Warn(d.Message, "revset", text)
	}
	if err := ctx.Err(); err != nil {
		return nil, diags, err
	}

	resolved, err := p.Resolve(expr)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Input == "" {
			pe.Input = text
		}
		return nil, diags, err
	}
	if err := ctx.Err(); err != nil {
		return nil, diags, err
	}

	optimized := Optimize(resolved)
	log.Debug("optimized revset", "revset", text, "plan", Format(optimized.Expr))

	ids, err := EvaluateOptimized(optimized, p.Snapshot, p.extensions())
	if err != nil {
		return nil, diags, err
	}
	log.Debug("evaluated revset", "revset", text, "commits", len(ids), "generation", p.Snapshot.Generation())
	return ids, diags, nil
}
