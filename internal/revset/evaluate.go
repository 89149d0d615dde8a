package revset

import (
	"fmt"

	"github.com/masmgr/jjlog-go/internal/graph"
)

// Evaluator computes commit sets over one snapshot.
type Evaluator struct {
	snap *graph.Snapshot
	ext  *Extensions
	all  *CommitSet
}

// NewEvaluator returns an evaluator for snap dispatching calls through ext.
func NewEvaluator(snap *graph.Snapshot, ext *Extensions) *Evaluator {
	if ext == nil {
		ext = DefaultExtensions()
	}
	return &Evaluator{snap: snap, ext: ext}
}

// EvaluateResolved evaluates an expression without optimizing it.
func EvaluateResolved(r Resolved, snap *graph.Snapshot, ext *Extensions) ([]string, error) {
	return NewEvaluator(snap, ext).ids(r.Expr)
}

// EvaluateOptimized evaluates an optimized expression.
func EvaluateOptimized(o Optimized, snap *graph.Snapshot, ext *Extensions) ([]string, error) {
	return NewEvaluator(snap, ext).ids(o.Expr)
}

func (ev *Evaluator) ids(e Expr) ([]string, error) {
	set, err := ev.Set(e)
	if err != nil {
		return nil, err
	}
	positions := set.Positions()
	out := make([]string, len(positions))
	for i, pos := range positions {
		out[i] = ev.snap.Commit(pos).ID
	}
	return out, nil
}

// Snapshot returns the snapshot being evaluated against.
func (ev *Evaluator) Snapshot() *graph.Snapshot { return ev.snap }

// All returns every commit of the snapshot.
func (ev *Evaluator) All() *CommitSet {
	if ev.all == nil {
		ev.all = NewCommitSet()
		for pos := 0; pos < ev.snap.Len(); pos++ {
			ev.all.Add(pos)
		}
	}
	return NewCommitSet(ev.all.Positions()...)
}

// Set evaluates a resolved expression.
func (ev *Evaluator) Set(e Expr) (*CommitSet, error) {
	switch e := e.(type) {
	case *CommitsExpr:
		out := NewCommitSet()
		for _, id := range e.IDs {
			pos, ok := ev.snap.Lookup(id)
			if !ok {
				return nil, &EvaluateError{Err: fmt.Errorf("commit %s is not in the snapshot", id)}
			}
			out.Add(pos)
		}
		return out, nil

	case *CallExpr:
		fn, ok := ev.ext.Lookup(e.Name)
		if !ok {
			return nil, &EvaluateError{Err: fmt.Errorf("function %q doesn't exist", e.Name)}
		}
		switch {
		case fn.Eval != nil:
			return fn.Eval(ev, e)
		case fn.Filter != nil:
			return ev.filter(ev.All(), fn, e), nil
		}
		return nil, &EvaluateError{Err: fmt.Errorf("function %q was not resolved", e.Name)}

	case *SetExpr:
		left, err := ev.Set(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := ev.Set(e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case OpUnion:
			return left.Union(right), nil
		case OpIntersection:
			return left.Intersect(right), nil
		default:
			return left.Difference(right), nil
		}

	case *NegateExpr:
		operand, err := ev.Set(e.Operand)
		if err != nil {
			return nil, err
		}
		return ev.All().Difference(operand), nil

	case *GraphExpr:
		operand, err := ev.Set(e.Operand)
		if err != nil {
			return nil, err
		}
		return ev.Walk(e.Op, operand, e.Generation), nil

	case *RangeExpr:
		roots, err := ev.Set(e.Roots)
		if err != nil {
			return nil, err
		}
		heads, err := ev.Set(e.Heads)
		if err != nil {
			return nil, err
		}
		ancestors := ev.Walk(OpAncestors, heads, AllGenerations)
		if e.Op == OpDagRange {
			return ev.Walk(OpDescendants, roots, AllGenerations).Intersect(ancestors), nil
		}
		return ancestors.Difference(ev.Walk(OpAncestors, roots, AllGenerations)), nil

	case *FilterExpr:
		candidates, err := ev.Set(e.Candidates)
		if err != nil {
			return nil, err
		}
		fn, ok := ev.ext.Lookup(e.Predicate.Name)
		if !ok || fn.Filter == nil {
			return nil, &EvaluateError{Err: fmt.Errorf("%q is not a filter", e.Predicate.Name)}
		}
		return ev.filter(candidates, fn, e.Predicate), nil
	}
	return nil, &EvaluateError{Err: fmt.Errorf("unresolved expression %T", e)}
}

func (ev *Evaluator) filter(candidates *CommitSet, fn *Function, c *CallExpr) *CommitSet {
	out := NewCommitSet()
	for _, pos := range candidates.Positions() {
		if fn.Filter(ev, ev.snap.Commit(pos), c) {
			out.Add(pos)
		}
	}
	return out
}

// Walk returns the commits reachable from some commit of from by a path of
// parent (OpAncestors) or child (OpDescendants) links whose length lies in
// gen.
func (ev *Evaluator) Walk(op GraphOp, from *CommitSet, gen GenRange) *CommitSet {
	out := NewCommitSet()
	if gen.Empty() {
		return out
	}

	level := from.Positions()
	if gen.End == Unbounded {
		for k := uint64(0); k < gen.Start && len(level) > 0; k++ {
			level = ev.step(op, level)
		}
		seen := make(map[int]bool, len(level))
		for len(level) > 0 {
			var next []int
			for _, pos := range level {
				if seen[pos] {
					continue
				}
				seen[pos] = true
				out.Add(pos)
				next = append(next, ev.neighbors(op, pos)...)
			}
			level = next
		}
		return out
	}

	for k := uint64(0); k < gen.End && len(level) > 0; k++ {
		if k >= gen.Start {
			out.Add(level...)
		}
		if k+1 < gen.End {
			level = ev.step(op, level)
		}
	}
	return out
}

// step returns the distinct neighbors of every position in level.
func (ev *Evaluator) step(op GraphOp, level []int) []int {
	seen := make(map[int]bool)
	var next []int
	for _, pos := range level {
		for _, n := range ev.neighbors(op, pos) {
			if !seen[n] {
				seen[n] = true
				next = append(next, n)
			}
		}
	}
	return next
}

func (ev *Evaluator) neighbors(op GraphOp, pos int) []int {
	if op == OpAncestors {
		return ev.snap.Commit(pos).Parents
	}
	return ev.snap.Commit(pos).Children
}
