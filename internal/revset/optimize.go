package revset

// Optimize rewrites a resolved expression into an equivalent, cheaper one.
// Rules are applied until none matches, so optimizing twice changes nothing.
func Optimize(r Resolved) Optimized {
	e := r.Expr
	for {
		next, changed := rewrite(e)
		if !changed {
			return Optimized{Expr: e}
		}
		e = next
	}
}

// Reoptimize runs the rules again over an optimized expression.
func Reoptimize(o Optimized) Optimized {
	return Optimize(Resolved(o))
}

func rewrite(e Expr) (Expr, bool) {
	switch e := e.(type) {
	case *SetExpr:
		left, lc := rewrite(e.Left)
		right, rc := rewrite(e.Right)
		out, changed := rewriteSet(&SetExpr{Span: e.Span, Op: e.Op, Left: left, Right: right})
		return out, lc || rc || changed

	case *NegateExpr:
		if inner, ok := e.Operand.(*NegateExpr); ok {
			out, _ := rewrite(inner.Operand)
			return out, true
		}
		operand, changed := rewrite(e.Operand)
		return &NegateExpr{Span: e.Span, Operand: operand}, changed

	case *GraphExpr:
		operand, changed := rewrite(e.Operand)
		if inner, ok := operand.(*GraphExpr); ok && inner.Op == e.Op {
			return &GraphExpr{
				Span:       e.Span,
				Op:         e.Op,
				Operand:    inner.Operand,
				Generation: e.Generation.Compose(inner.Generation),
			}, true
		}
		if e.Generation.Empty() {
			return call("none", e.Span), true
		}
		return &GraphExpr{Span: e.Span, Op: e.Op, Operand: operand, Generation: e.Generation}, changed

	case *RangeExpr:
		roots, rc := rewrite(e.Roots)
		heads, hc := rewrite(e.Heads)
		return &RangeExpr{Span: e.Span, Op: e.Op, Roots: roots, Heads: heads}, rc || hc

	case *FilterExpr:
		candidates, changed := rewrite(e.Candidates)
		return &FilterExpr{Span: e.Span, Candidates: candidates, Predicate: e.Predicate}, changed

	case *CallExpr:
		args := make([]Expr, len(e.Args))
		changed := false
		for i, arg := range e.Args {
			var c bool
			args[i], c = rewrite(arg)
			changed = changed || c
		}
		return &CallExpr{Span: e.Span, Name: e.Name, NameSpan: e.NameSpan, Args: args}, changed
	}
	return e, false
}

func rewriteSet(e *SetExpr) (Expr, bool) {
	switch e.Op {
	case OpUnion:
		if isCall(e.Right, "none") {
			return e.Left, true
		}
		if isCall(e.Left, "none") {
			return e.Right, true
		}
		if l, ok := e.Left.(*CommitsExpr); ok {
			if r, ok := e.Right.(*CommitsExpr); ok {
				return &CommitsExpr{Span: e.Span, IDs: mergeIDs(l.IDs, r.IDs)}, true
			}
		}

	case OpIntersection:
		if isCall(e.Left, "none") || isCall(e.Right, "none") {
			return call("none", e.Span), true
		}
		if isCall(e.Right, "all") {
			return e.Left, true
		}
		if isCall(e.Left, "all") {
			return e.Right, true
		}
		if neg, ok := e.Right.(*NegateExpr); ok {
			return &SetExpr{Span: e.Span, Op: OpDifference, Left: e.Left, Right: neg.Operand}, true
		}
		if neg, ok := e.Left.(*NegateExpr); ok {
			return &SetExpr{Span: e.Span, Op: OpDifference, Left: e.Right, Right: neg.Operand}, true
		}
		if pred, ok := filterCall(e.Right); ok {
			return &FilterExpr{Span: e.Span, Candidates: e.Left, Predicate: pred}, true
		}
		if pred, ok := filterCall(e.Left); ok {
			return &FilterExpr{Span: e.Span, Candidates: e.Right, Predicate: pred}, true
		}

	case OpDifference:
		if isCall(e.Left, "none") {
			return call("none", e.Span), true
		}
		if isCall(e.Right, "none") {
			return e.Left, true
		}
	}
	return e, false
}

// filterCall reports whether e is a call to a built-in commit filter.
func filterCall(e Expr) (*CallExpr, bool) {
	c, ok := e.(*CallExpr)
	if !ok {
		return nil, false
	}
	fn, ok := filterFunctions[c.Name]
	return c, ok && fn
}

var filterFunctions = func() map[string]bool {
	out := make(map[string]bool)
	for _, fn := range builtins() {
		if fn.Filter != nil {
			out[fn.Name] = true
		}
	}
	return out
}()

func mergeIDs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, ids := range [][]string{a, b} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
