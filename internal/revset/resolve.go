package revset

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/masmgr/jjlog-go/internal/git"
	"github.com/masmgr/jjlog-go/internal/graph"
)

// DefaultWorkspace is the name "@" refers to unless configured otherwise.
const DefaultWorkspace = "default"

// Resolver carries what symbol resolution looks names up in.
type Resolver struct {
	Snapshot   *graph.Snapshot
	Aliases    *AliasTable
	Extensions *Extensions
	UserEmail  string
	Workspace  string
}

// binding is an alias argument, resolved in the scope of the call site.
type binding struct {
	expr  Expr
	frame *frame
	stack []string // aliases being expanded at the call site
}

type frame struct {
	params map[string]binding
	source string // text spans refer to; empty for the query itself
}

type resolveState struct {
	r     *Resolver
	stack []string
}

// Resolve expands aliases, replaces symbols by commits and converts
// function arguments. It stops at the first error.
func Resolve(expr Expr, r *Resolver) (Resolved, error) {
	rc := *r
	if rc.Extensions == nil {
		rc.Extensions = DefaultExtensions()
	}
	s := &resolveState{r: &rc}
	out, err := s.resolve(expr, &frame{})
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Expr: out}, nil
}

func (s *resolveState) resolve(e Expr, fr *frame) (Expr, error) {
	switch e := e.(type) {
	case *SymbolExpr:
		if !e.Quoted {
			if b, ok := fr.params[e.Name]; ok {
				return s.resolveBinding(b)
			}
			if def, ok := s.r.Aliases.symbol(e.Name); ok {
				return s.expand(def, nil, fr)
			}
		}
		return s.lookupSymbol(e.Name, e.Span)

	case *RemoteSymbolExpr:
		pos, ok := s.r.Snapshot.RemoteBookmark(e.Name, e.Remote)
		if !ok {
			return nil, &ResolveError{Symbol: e.Name + "@" + e.Remote, Reason: NotFound, Span: e.Span}
		}
		return s.commits(e.Span, pos), nil

	case *WorkingCopyExpr:
		if e.Workspace != "" && e.Workspace != s.r.workspace() {
			return nil, &ResolveError{Symbol: e.Workspace + "@", Reason: NotFound, Span: e.Span}
		}
		pos, ok := s.r.Snapshot.WorkingCopy()
		if !ok {
			return &CommitsExpr{Span: e.Span}, nil
		}
		return s.commits(e.Span, pos), nil

	case *PatternExpr:
		return nil, &ParseError{
			Message: fmt.Sprintf("string pattern %q is not a revision set", e.Kind+":"+e.Value),
			Span:    e.Span,
			Input:   fr.source,
		}

	case *CallExpr:
		return s.resolveCall(e, fr)

	case *SetExpr:
		left, err := s.resolve(e.Left, fr)
		if err != nil {
			return nil, err
		}
		right, err := s.resolve(e.Right, fr)
		if err != nil {
			return nil, err
		}
		return &SetExpr{Span: e.Span, Op: e.Op, Left: left, Right: right}, nil

	case *NegateExpr:
		operand, err := s.resolve(e.Operand, fr)
		if err != nil {
			return nil, err
		}
		return &NegateExpr{Span: e.Span, Operand: operand}, nil

	case *GraphExpr:
		operand, err := s.resolve(e.Operand, fr)
		if err != nil {
			return nil, err
		}
		return &GraphExpr{Span: e.Span, Op: e.Op, Operand: operand, Generation: e.Generation}, nil

	case *RangeExpr:
		roots, err := s.resolve(e.Roots, fr)
		if err != nil {
			return nil, err
		}
		heads, err := s.resolve(e.Heads, fr)
		if err != nil {
			return nil, err
		}
		return &RangeExpr{Span: e.Span, Op: e.Op, Roots: roots, Heads: heads}, nil

	case *FilterExpr:
		candidates, err := s.resolve(e.Candidates, fr)
		if err != nil {
			return nil, err
		}
		return &FilterExpr{Span: e.Span, Candidates: candidates, Predicate: e.Predicate}, nil

	case *CommitsExpr, *IntExpr, *StringExpr:
		return e, nil
	}
	return nil, fmt.Errorf("unexpected expression %T", e)
}

func (s *resolveState) resolveCall(c *CallExpr, fr *frame) (Expr, error) {
	if def, ok := s.r.Aliases.function(c.Name); ok {
		return s.expand(def, c.Args, fr)
	}

	fn, ok := s.r.Extensions.Lookup(c.Name)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("function %q doesn't exist", c.Name), Span: c.NameSpan, Input: fr.source}
	}
	if msg, ok := fn.checkArity(len(c.Args)); !ok {
		return nil, &ParseError{Message: fmt.Sprintf("function %q: %s", c.Name, msg), Span: c.Span, Input: fr.source}
	}

	args := make([]Expr, len(c.Args))
	for i, arg := range c.Args {
		kind := fn.kindAt(i)
		if kind != ArgRevset {
			converted, err := s.convertArg(arg, kind, fr)
			if err != nil {
				return nil, err
			}
			args[i] = converted
			continue
		}

		resolved, err := s.resolve(arg, fr)
		var re *ResolveError
		if fn.Lenient && errors.As(err, &re) && re.Reason == NotFound {
			return call("none", c.Span), nil
		}
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}

	out := &CallExpr{Span: c.Span, Name: c.Name, NameSpan: c.NameSpan, Args: args}
	if fn.Resolve == nil {
		return out, nil
	}
	rewritten, err := fn.Resolve(s.r, out)
	if err != nil {
		return nil, s.wrapHookError(err, c.Span, fr)
	}
	return rewritten, nil
}

func (s *resolveState) wrapHookError(err error, at Span, fr *frame) error {
	var (
		pe *ParseError
		re *ResolveError
		ce *AliasCycleError
	)
	if errors.As(err, &pe) || errors.As(err, &re) || errors.As(err, &ce) {
		return err
	}
	return &ParseError{Message: err.Error(), Span: at, Input: fr.source}
}

// expand resolves an alias body with its parameters bound to args.
func (s *resolveState) expand(def *aliasDef, args []Expr, caller *frame) (Expr, error) {
	key := def.key()
	for _, active := range s.stack {
		if active == key {
			return nil, &AliasCycleError{Name: def.Name}
		}
	}
	s.stack = append(s.stack, key)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	callSite := append([]string(nil), s.stack[:len(s.stack)-1]...)
	fr := &frame{params: make(map[string]binding, len(args)), source: def.Source}
	for i, param := range def.Params {
		fr.params[param] = binding{expr: args[i], frame: caller, stack: callSite}
	}
	return s.resolve(def.Body, fr)
}

// resolveBinding resolves an argument with the alias stack of its call site,
// so f(f(x)) is not mistaken for recursion.
func (s *resolveState) resolveBinding(b binding) (Expr, error) {
	saved := s.stack
	s.stack = b.stack
	defer func() { s.stack = saved }()
	return s.resolve(b.expr, b.frame)
}

// convertArg turns a parsed argument into a pattern, string or integer.
func (s *resolveState) convertArg(arg Expr, kind ArgKind, fr *frame) (Expr, error) {
	for {
		sym, ok := arg.(*SymbolExpr)
		if !ok || sym.Quoted {
			break
		}
		b, ok := fr.params[sym.Name]
		if !ok {
			break
		}
		arg, fr = b.expr, b.frame
	}

	fail := func(at Span, format string, args ...any) error {
		return &ParseError{Message: fmt.Sprintf(format, args...), Span: at, Input: fr.source}
	}

	switch a := arg.(type) {
	case *StringExpr:
		if kind == ArgPattern || kind == ArgString {
			return a, nil
		}
	case *IntExpr:
		if kind == ArgInt {
			return a, nil
		}
	case *PatternExpr:
		if kind == ArgPattern {
			p, err := ParseStringPattern(a.Kind, a.Value)
			if err != nil {
				return nil, fail(a.Span, "%v", err)
			}
			return &StringExpr{Span: a.Span, Pattern: p}, nil
		}
	case *SymbolExpr:
		switch kind {
		case ArgPattern:
			p, err := ParseStringPattern("", a.Name)
			if err != nil {
				return nil, fail(a.Span, "%v", err)
			}
			return &StringExpr{Span: a.Span, Pattern: p}, nil
		case ArgString:
			return &StringExpr{Span: a.Span, Pattern: ExactPattern(a.Name)}, nil
		case ArgInt:
			n, err := strconv.Atoi(a.Name)
			if err != nil || n < 0 || a.Quoted {
				return nil, fail(a.Span, "expected non-negative integer, got %q", a.Name)
			}
			return &IntExpr{Span: a.Span, Value: n}, nil
		}
	}
	return nil, fail(arg.span(), "expected %s", kind)
}

func (s *resolveState) commits(at Span, positions ...int) *CommitsExpr {
	out := &CommitsExpr{Span: at, IDs: make([]string, 0, len(positions))}
	for _, pos := range positions {
		out.IDs = append(out.IDs, s.r.Snapshot.Commit(pos).ID)
	}
	return out
}

// lookupSymbol tries tags, bookmarks, commit id prefixes and change id
// prefixes in that order.
func (s *resolveState) lookupSymbol(name string, at Span) (Expr, error) {
	snap := s.r.Snapshot
	if pos, ok := snap.Tag(name); ok {
		return s.commits(at, pos), nil
	}
	if pos, ok := snap.Bookmark(name); ok {
		return s.commits(at, pos), nil
	}

	switch {
	case git.IsHex(name):
		matches := snap.CommitIndex().Lookup(name)
		switch len(matches) {
		case 0:
		case 1:
			return &CommitsExpr{Span: at, IDs: matches}, nil
		default:
			return nil, &ResolveError{Symbol: name, Reason: Ambiguous, Candidates: len(matches), Span: at}
		}
	case git.IsReverseHex(name):
		matches := snap.ChangeIndex().Lookup(name)
		switch len(matches) {
		case 0:
		case 1:
			return s.commits(at, snap.ChangeCommits(matches[0])...), nil
		default:
			return nil, &ResolveError{Symbol: name, Reason: Ambiguous, Candidates: len(matches), Span: at}
		}
	}
	return nil, &ResolveError{Symbol: name, Reason: NotFound, Span: at}
}

func (r *Resolver) workspace() string {
	if r.Workspace == "" {
		return DefaultWorkspace
	}
	return r.Workspace
}
