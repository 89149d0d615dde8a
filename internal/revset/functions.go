package revset

import (
	"fmt"
	"sort"

	"github.com/masmgr/jjlog-go/internal/git"
	"github.com/masmgr/jjlog-go/internal/graph"
)

// ArgKind is the type a function argument is converted to during resolution.
type ArgKind int

const (
	ArgRevset  ArgKind = iota // a revision set
	ArgPattern                // a string pattern, substring by default
	ArgInt                    // a non-negative integer
	ArgString                 // plain text
)

// String returns a string representation of the kind.
func (k ArgKind) String() string {
	switch k {
	case ArgPattern:
		return "string pattern"
	case ArgInt:
		return "integer"
	case ArgString:
		return "string"
	default:
		return "revset"
	}
}

// Function is a named revset operation. A function either computes a set
// (Eval), tests single commits (Filter), or is rewritten away during
// resolution (Resolve).
type Function struct {
	Name     string
	Args     []ArgKind // required arguments
	Optional []ArgKind
	// Variadic accepts any number of further arguments of the last declared kind.
	Variadic bool
	// Lenient turns not-found symbols inside the arguments into none().
	Lenient bool

	Resolve func(r *Resolver, c *CallExpr) (Expr, error)
	Eval    func(ev *Evaluator, c *CallExpr) (*CommitSet, error)
	Filter  func(ev *Evaluator, commit *graph.Commit, c *CallExpr) bool
}

func (f *Function) kindAt(i int) ArgKind {
	switch {
	case i < len(f.Args):
		return f.Args[i]
	case i < len(f.Args)+len(f.Optional):
		return f.Optional[i-len(f.Args)]
	case len(f.Optional) > 0:
		return f.Optional[len(f.Optional)-1]
	case len(f.Args) > 0:
		return f.Args[len(f.Args)-1]
	}
	return ArgRevset
}

func (f *Function) checkArity(n int) (string, bool) {
	lo, hi := len(f.Args), len(f.Args)+len(f.Optional)
	switch {
	case f.Variadic && n >= lo:
		return "", true
	case f.Variadic:
		return fmt.Sprintf("expected at least %d arguments", lo), false
	case n >= lo && n <= hi:
		return "", true
	case lo == hi:
		return fmt.Sprintf("expected %d arguments", lo), false
	default:
		return fmt.Sprintf("expected %d to %d arguments", lo, hi), false
	}
}

// Extensions is the table of functions a parser accepts and an evaluator
// dispatches to.
type Extensions struct {
	funcs      map[string]*Function
	deprecated map[string]string
}

// NewExtensions returns an empty table.
func NewExtensions() *Extensions {
	return &Extensions{funcs: make(map[string]*Function), deprecated: make(map[string]string)}
}

// DefaultExtensions returns a table holding the built-in functions.
func DefaultExtensions() *Extensions {
	x := NewExtensions()
	for _, fn := range builtins() {
		if err := x.Register(fn); err != nil {
			panic(err)
		}
	}
	x.Deprecate("branches", "bookmarks")
	x.Deprecate("remote_branches", "remote_bookmarks")
	return x
}

// Register adds a function. Names must be unique.
func (x *Extensions) Register(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("function without a name")
	}
	if _, dup := x.funcs[fn.Name]; dup {
		return fmt.Errorf("function %q already registered", fn.Name)
	}
	if fn.Eval == nil && fn.Filter == nil && fn.Resolve == nil {
		return fmt.Errorf("function %q has no implementation", fn.Name)
	}
	x.funcs[fn.Name] = &fn
	return nil
}

// Deprecate makes old an alias of replacement that parses with a warning.
func (x *Extensions) Deprecate(old, replacement string) {
	x.deprecated[old] = replacement
}

// Lookup returns the function registered under name.
func (x *Extensions) Lookup(name string) (*Function, bool) {
	fn, ok := x.funcs[name]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (x *Extensions) Names() []string {
	names := make([]string, 0, len(x.funcs))
	for name := range x.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (x *Extensions) replacement(name string) (string, bool) {
	r, ok := x.deprecated[name]
	return r, ok
}

func patternArg(c *CallExpr, i int) *StringPattern {
	if i >= len(c.Args) {
		return nil
	}
	return c.Args[i].(*StringExpr).Pattern
}

func intArg(c *CallExpr, i, fallback int) int {
	if i >= len(c.Args) {
		return fallback
	}
	return c.Args[i].(*IntExpr).Value
}

// matchAny reports whether p is nil or matches one of the values.
func matchAny(p *StringPattern, values ...string) bool {
	if p == nil {
		return true
	}
	for _, v := range values {
		if p.Matches(v) {
			return true
		}
	}
	return false
}

func graphCall(op GraphOp, gen GenRange) func(r *Resolver, c *CallExpr) (Expr, error) {
	return func(_ *Resolver, c *CallExpr) (Expr, error) {
		g := gen
		if len(c.Args) > 1 {
			g.End = uint64(intArg(c, 1, 0))
		}
		return &GraphExpr{Span: c.Span, Op: op, Operand: c.Args[0], Generation: g}, nil
	}
}

func textFilter(fields func(commit *graph.Commit) []string) func(*Evaluator, *graph.Commit, *CallExpr) bool {
	return func(_ *Evaluator, commit *graph.Commit, c *CallExpr) bool {
		return matchAny(patternArg(c, 0), fields(commit)...)
	}
}

func refsMatching(refs []graph.NamedRef, name, remote *StringPattern) *CommitSet {
	out := NewCommitSet()
	for _, ref := range refs {
		if matchAny(name, ref.Name) && matchAny(remote, ref.Remote) {
			out.Add(ref.Pos)
		}
	}
	return out
}

func idLookup(index func(*graph.Snapshot) *graph.PrefixIndex, valid func(string) bool, kind string) func(*Resolver, *CallExpr) (Expr, error) {
	return func(r *Resolver, c *CallExpr) (Expr, error) {
		prefix := patternArg(c, 0).Value
		if !valid(prefix) {
			return nil, fmt.Errorf("invalid %s prefix %q", kind, prefix)
		}
		var ids []string
		for _, id := range index(r.Snapshot).Lookup(prefix) {
			if kind == "change id" {
				for _, pos := range r.Snapshot.ChangeCommits(id) {
					ids = append(ids, r.Snapshot.Commit(pos).ID)
				}
				continue
			}
			ids = append(ids, id)
		}
		return &CommitsExpr{Span: c.Span, IDs: ids}, nil
	}
}

func builtins() []Function {
	rev := []ArgKind{ArgRevset}
	pattern := []ArgKind{ArgPattern}

	return []Function{
		{Name: "all", Eval: func(ev *Evaluator, _ *CallExpr) (*CommitSet, error) {
			return ev.All(), nil
		}},
		{Name: "none", Eval: func(*Evaluator, *CallExpr) (*CommitSet, error) {
			return NewCommitSet(), nil
		}},
		{Name: "root", Eval: func(ev *Evaluator, _ *CallExpr) (*CommitSet, error) {
			return NewCommitSet(ev.Snapshot().Roots()...), nil
		}},
		{Name: "visible_heads", Eval: func(ev *Evaluator, _ *CallExpr) (*CommitSet, error) {
			return NewCommitSet(ev.Snapshot().Heads()...), nil
		}},
		{Name: "heads", Args: rev, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			set, err := ev.Set(c.Args[0])
			if err != nil {
				return nil, err
			}
			return set.Difference(ev.Walk(OpAncestors, set, GenRange{Start: 1, End: Unbounded})), nil
		}},
		{Name: "roots", Args: rev, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			set, err := ev.Set(c.Args[0])
			if err != nil {
				return nil, err
			}
			return set.Difference(ev.Walk(OpDescendants, set, GenRange{Start: 1, End: Unbounded})), nil
		}},
		{Name: "parents", Args: rev, Resolve: graphCall(OpAncestors, GenRange{Start: 1, End: 2})},
		{Name: "children", Args: rev, Resolve: graphCall(OpDescendants, GenRange{Start: 1, End: 2})},
		{Name: "ancestors", Args: rev, Optional: []ArgKind{ArgInt}, Resolve: graphCall(OpAncestors, AllGenerations)},
		{Name: "descendants", Args: rev, Optional: []ArgKind{ArgInt}, Resolve: graphCall(OpDescendants, AllGenerations)},
		{Name: "connected", Args: rev, Resolve: func(_ *Resolver, c *CallExpr) (Expr, error) {
			return &RangeExpr{Span: c.Span, Op: OpDagRange, Roots: c.Args[0], Heads: c.Args[0]}, nil
		}},
		{Name: "reachable", Args: []ArgKind{ArgRevset, ArgRevset}, Eval: evalReachable},
		{Name: "fork_point", Args: rev, Eval: evalForkPoint},
		{Name: "latest", Args: rev, Optional: []ArgKind{ArgInt}, Eval: evalLatest},
		{Name: "present", Args: rev, Lenient: true, Resolve: func(_ *Resolver, c *CallExpr) (Expr, error) {
			return c.Args[0], nil
		}},
		{Name: "coalesce", Optional: rev, Variadic: true, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			for _, arg := range c.Args {
				set, err := ev.Set(arg)
				if err != nil {
					return nil, err
				}
				if !set.Empty() {
					return set, nil
				}
			}
			return NewCommitSet(), nil
		}},
		{Name: "merges", Filter: func(_ *Evaluator, commit *graph.Commit, _ *CallExpr) bool {
			return len(commit.Parents) > 1
		}},
		{Name: "description", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Description}
		})},
		{Name: "subject", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.FirstLine()}
		})},
		{Name: "author", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Author.Name, c.Author.Email}
		})},
		{Name: "author_name", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Author.Name}
		})},
		{Name: "author_email", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Author.Email}
		})},
		{Name: "committer", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Committer.Name, c.Committer.Email}
		})},
		{Name: "committer_name", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Committer.Name}
		})},
		{Name: "committer_email", Args: pattern, Filter: textFilter(func(c *graph.Commit) []string {
			return []string{c.Committer.Email}
		})},
		{Name: "mine", Resolve: func(r *Resolver, c *CallExpr) (Expr, error) {
			if r.UserEmail == "" {
				return call("none", c.Span), nil
			}
			p := &StringPattern{Kind: PatternExact, Value: r.UserEmail, CaseInsensitive: true}
			return call("author_email", c.Span, &StringExpr{Span: c.Span, Pattern: p}), nil
		}},
		{Name: "bookmarks", Optional: pattern, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			return refsMatching(ev.Snapshot().Bookmarks(), patternArg(c, 0), nil), nil
		}},
		{Name: "remote_bookmarks", Optional: []ArgKind{ArgPattern, ArgPattern}, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			return refsMatching(ev.Snapshot().RemoteBookmarks(), patternArg(c, 0), patternArg(c, 1)), nil
		}},
		{Name: "tags", Optional: pattern, Eval: func(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
			return refsMatching(ev.Snapshot().Tags(), patternArg(c, 0), nil), nil
		}},
		{Name: "commit_id", Args: []ArgKind{ArgString}, Resolve: idLookup((*graph.Snapshot).CommitIndex, git.IsHex, "commit id")},
		{Name: "change_id", Args: []ArgKind{ArgString}, Resolve: idLookup((*graph.Snapshot).ChangeIndex, git.IsReverseHex, "change id")},
	}
}

// evalReachable returns the commits of domain connected to srcs through
// parent or child links that stay inside domain.
func evalReachable(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
	srcs, err := ev.Set(c.Args[0])
	if err != nil {
		return nil, err
	}
	domain, err := ev.Set(c.Args[1])
	if err != nil {
		return nil, err
	}

	snap := ev.Snapshot()
	out := NewCommitSet()
	queue := srcs.Intersect(domain).Positions()
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		if out.Contains(pos) {
			continue
		}
		out.Add(pos)
		commit := snap.Commit(pos)
		for _, next := range [][]int{commit.Parents, commit.Children} {
			for _, n := range next {
				if domain.Contains(n) && !out.Contains(n) {
					queue = append(queue, n)
				}
			}
		}
	}
	return out, nil
}

// evalForkPoint returns the heads of the ancestors common to every commit
// in the argument.
func evalForkPoint(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
	set, err := ev.Set(c.Args[0])
	if err != nil {
		return nil, err
	}
	if set.Empty() {
		return set, nil
	}

	var common *CommitSet
	for _, pos := range set.Positions() {
		anc := ev.Walk(OpAncestors, NewCommitSet(pos), AllGenerations)
		if common == nil {
			common = anc
		} else {
			common = common.Intersect(anc)
		}
	}
	return common.Difference(ev.Walk(OpAncestors, common, GenRange{Start: 1, End: Unbounded})), nil
}

// evalLatest keeps the count commits with the newest committer timestamps.
func evalLatest(ev *Evaluator, c *CallExpr) (*CommitSet, error) {
	set, err := ev.Set(c.Args[0])
	if err != nil {
		return nil, err
	}
	count := intArg(c, 1, 1)

	snap := ev.Snapshot()
	positions := set.Positions()
	sort.SliceStable(positions, func(i, j int) bool {
		ti := snap.Commit(positions[i]).Committer.When
		tj := snap.Commit(positions[j]).Committer.When
		return ti.After(tj)
	})
	if len(positions) > count {
		positions = positions[:count]
	}
	return NewCommitSet(positions...), nil
}
