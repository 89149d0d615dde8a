package revset

import "math"

// Span is a byte range [Start, End) of the input text.
type Span struct {
	Start int
	End   int
}

func (s Span) span() Span { return s }

// Expr is the interface for expression nodes.
type Expr interface {
	span() Span
	expr()
}

// SpanOf returns the input range an expression was parsed from.
func SpanOf(e Expr) Span { return e.span() }

// SymbolExpr is a bare or quoted name: a bookmark, tag, commit or change id
// prefix, or an alias.
type SymbolExpr struct {
	Span
	Name   string
	Quoted bool
}

// RemoteSymbolExpr is "name@remote".
type RemoteSymbolExpr struct {
	Span
	Name   string
	Remote string
}

// WorkingCopyExpr is "@" or "workspace@".
type WorkingCopyExpr struct {
	Span
	Workspace string // empty for the current workspace
}

// PatternExpr is a "kind:value" string pattern argument.
type PatternExpr struct {
	Span
	Kind  string
	Value string
}

// CallExpr is a function call. After resolution its arguments are resolved
// expressions, *StringExpr or *IntExpr according to the function signature.
type CallExpr struct {
	Span
	Name     string
	NameSpan Span
	Args     []Expr
}

// SetOp is a binary set operator.
type SetOp int

const (
	OpUnion SetOp = iota
	OpIntersection
	OpDifference
)

// String returns the operator as written in revsets.
func (o SetOp) String() string {
	switch o {
	case OpUnion:
		return "|"
	case OpIntersection:
		return "&"
	default:
		return "~"
	}
}

// SetExpr is "x | y", "x & y" or "x ~ y".
type SetExpr struct {
	Span
	Op    SetOp
	Left  Expr
	Right Expr
}

// NegateExpr is "~x", the complement within all commits.
type NegateExpr struct {
	Span
	Operand Expr
}

// GraphOp selects the direction of a graph walk.
type GraphOp int

const (
	OpAncestors GraphOp = iota
	OpDescendants
)

// Unbounded marks a generation range without an upper end.
const Unbounded = math.MaxUint64

// GenRange is a half-open range [Start, End) of path lengths.
type GenRange struct {
	Start uint64
	End   uint64
}

// AllGenerations is [0, Unbounded): the operand and everything reachable.
var AllGenerations = GenRange{Start: 0, End: Unbounded}

// Empty reports whether the range admits no path length.
func (g GenRange) Empty() bool { return g.Start >= g.End }

// Compose returns the range of lengths of a walk through g after one
// through inner.
func (g GenRange) Compose(inner GenRange) GenRange {
	if g.Empty() || inner.Empty() {
		return GenRange{}
	}
	out := GenRange{Start: satAdd(g.Start, inner.Start)}
	if g.End == Unbounded || inner.End == Unbounded {
		out.End = Unbounded
	} else {
		out.End = satAdd(g.End, inner.End) - 1
	}
	return out
}

func satAdd(a, b uint64) uint64 {
	if a > Unbounded-b {
		return Unbounded
	}
	return a + b
}

// GraphExpr selects commits reachable from Operand through parent
// (ancestors) or child (descendants) links by a path whose length lies in
// Generation.
type GraphExpr struct {
	Span
	Op         GraphOp
	Operand    Expr
	Generation GenRange
}

// RangeOp is the kind of a two-sided range.
type RangeOp int

const (
	OpDagRange RangeOp = iota // roots::heads
	OpRange                   // roots..heads
)

// RangeExpr is "roots::heads" (descendants of roots that are ancestors of
// heads) or "roots..heads" (ancestors of heads that are not ancestors of
// roots).
type RangeExpr struct {
	Span
	Op    RangeOp
	Roots Expr
	Heads Expr
}

// CommitsExpr is a literal set of commit ids produced by symbol resolution.
type CommitsExpr struct {
	Span
	IDs []string
}

// IntExpr is a converted integer argument.
type IntExpr struct {
	Span
	Value int
}

// StringExpr is a converted string pattern argument.
type StringExpr struct {
	Span
	Pattern *StringPattern
}

// FilterExpr keeps the commits of Candidates that match a filter function.
type FilterExpr struct {
	Span
	Candidates Expr
	Predicate  *CallExpr
}

func (*SymbolExpr) expr()       {}
func (*RemoteSymbolExpr) expr() {}
func (*WorkingCopyExpr) expr()  {}
func (*PatternExpr) expr()      {}
func (*CallExpr) expr()         {}
func (*SetExpr) expr()          {}
func (*NegateExpr) expr()       {}
func (*GraphExpr) expr()        {}
func (*RangeExpr) expr()        {}
func (*CommitsExpr) expr()      {}
func (*IntExpr) expr()          {}
func (*StringExpr) expr()       {}
func (*FilterExpr) expr()       {}

// Resolved is an expression whose symbols and aliases have all been
// replaced by concrete commits.
type Resolved struct {
	Expr Expr
}

// Optimized is a resolved expression after rewriting.
type Optimized struct {
	Expr Expr
}

func call(name string, at Span, args ...Expr) *CallExpr {
	return &CallExpr{Span: at, Name: name, NameSpan: at, Args: args}
}

func isCall(e Expr, name string) bool {
	c, ok := e.(*CallExpr)
	return ok && c.Name == name && len(c.Args) == 0
}
