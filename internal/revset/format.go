package revset

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders an expression tree for debugging. Resolved nodes that have
// no source syntax are printed in a function-like form.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *SymbolExpr:
		if e.Quoted {
			sb.WriteString(strconv.Quote(e.Name))
		} else {
			sb.WriteString(e.Name)
		}
	case *RemoteSymbolExpr:
		sb.WriteString(e.Name + "@" + e.Remote)
	case *WorkingCopyExpr:
		sb.WriteString(e.Workspace + "@")
	case *PatternExpr:
		sb.WriteString(e.Kind + ":" + strconv.Quote(e.Value))
	case *CallExpr:
		sb.WriteString(e.Name + "(")
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, arg)
		}
		sb.WriteString(")")
	case *SetExpr:
		sb.WriteString("(")
		format(sb, e.Left)
		sb.WriteString(" " + e.Op.String() + " ")
		format(sb, e.Right)
		sb.WriteString(")")
	case *NegateExpr:
		sb.WriteString("~")
		format(sb, e.Operand)
	case *GraphExpr:
		formatGraph(sb, e)
	case *RangeExpr:
		op := "::"
		if e.Op == OpRange {
			op = ".."
		}
		sb.WriteString("(")
		format(sb, e.Roots)
		sb.WriteString(op)
		format(sb, e.Heads)
		sb.WriteString(")")
	case *CommitsExpr:
		sb.WriteString("{" + strings.Join(e.IDs, ", ") + "}")
	case *IntExpr:
		sb.WriteString(strconv.Itoa(e.Value))
	case *StringExpr:
		sb.WriteString(e.Pattern.String())
	case *FilterExpr:
		sb.WriteString("filter(")
		format(sb, e.Candidates)
		sb.WriteString(", ")
		format(sb, e.Predicate)
		sb.WriteString(")")
	default:
		fmt.Fprintf(sb, "<%T>", e)
	}
}

func formatGraph(sb *strings.Builder, e *GraphExpr) {
	switch {
	case e.Generation == AllGenerations && e.Op == OpAncestors:
		sb.WriteString("::")
		format(sb, e.Operand)
		return
	case e.Generation == AllGenerations:
		format(sb, e.Operand)
		sb.WriteString("::")
		return
	case e.Generation == GenRange{Start: 1, End: 2}:
		format(sb, e.Operand)
		if e.Op == OpAncestors {
			sb.WriteString("-")
		} else {
			sb.WriteString("+")
		}
		return
	}

	name := "ancestors"
	if e.Op == OpDescendants {
		name = "descendants"
	}
	sb.WriteString(name + "(")
	format(sb, e.Operand)
	end := "*"
	if e.Generation.End != Unbounded {
		end = strconv.FormatUint(e.Generation.End, 10)
	}
	fmt.Fprintf(sb, ", %d..%s)", e.Generation.Start, end)
}
