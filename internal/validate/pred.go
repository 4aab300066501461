package validate

import (
	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/scope"
)

func (v *validator) pred(p core.Pred, vis scope.Visibility) {
	switch p := p.(type) {
	case core.And:
		v.pred(p.A, vis)
		v.pred(p.B, vis)
	case core.Or:
		v.pred(p.A, vis)
		v.pred(p.B, vis)
	case core.Not:
		v.pred(p.A, vis)

	case core.Cmp:
		lt := v.expr(p.Left, vis, true)
		rt := v.expr(p.Right, vis, true)
		if !Comparable(lt, rt) {
			v.logic("Type mismatch: %s compares %s with %s.", core.FormatPred(p), lt, rt)
		}

	case core.Between:
		vt := v.expr(p.Value, vis, true)
		lo := v.expr(p.Low, vis, true)
		hi := v.expr(p.High, vis, true)
		if !Comparable(vt, lo) || !Comparable(vt, hi) || !Comparable(lo, hi) {
			v.logic("Type mismatch in BETWEEN: %s has operand types %s, %s, %s.", core.FormatPred(p), vt, lo, hi)
		}

	case core.InList:
		lt := v.expr(p.Left, vis, true)
		if len(p.Values) == 0 {
			v.logic("IN list must not be empty.")
			return
		}
		reported := false
		for _, e := range p.Values {
			et := v.expr(e, vis, true)
			if !reported && !Comparable(lt, et) {
				v.logic("Type mismatch in IN list: %s is %s but %s is %s.", core.FormatExpr(p.Left), lt, core.FormatExpr(e), et)
				reported = true
			}
		}

	case core.InSubselect, core.Exists:
		v.logic("Subquery was not lifted into a join.")
	case core.NotExists:
		v.res.AddWarning("NOT EXISTS is rejected during normalization (anti-join not implemented).")

	default:
		v.logic("Unsupported predicate: %T", p)
	}
}

// expr returns the coarse type of e. With report set, unresolvable columns
// and malformed nodes are added to the result.
func (v *validator) expr(e core.Expr, vis scope.Visibility, report bool) Type {
	switch e := e.(type) {
	case core.ColumnRef:
		return v.column(e, vis, report)
	case core.NumberLit:
		if report && isBlank(e.Lexeme) {
			v.syntax("Empty number literal.")
		}
		return TypeNumber
	case core.StringLit:
		return TypeString
	case core.NullLit:
		return TypeNull
	case core.Paren:
		return v.expr(e.Inner, vis, report)
	case core.UnaryArith:
		if v.expr(e.Operand, vis, report) == TypeNumber {
			return TypeNumber
		}
		return TypeUnknown
	case core.BinaryArith:
		lt := v.expr(e.Left, vis, report)
		rt := v.expr(e.Right, vis, report)
		if lt == TypeNumber && rt == TypeNumber {
			return TypeNumber
		}
		return TypeUnknown
	default:
		if report {
			v.logic("Unsupported expression: %T", e)
		}
		return TypeUnknown
	}
}

// column resolves a reference against vis. An empty visibility means every
// source is missing from the schema, which has already been reported.
func (v *validator) column(c core.ColumnRef, vis scope.Visibility, report bool) Type {
	if isBlank(c.Name) {
		if report {
			v.syntax("Column reference without a name.")
		}
		return TypeUnknown
	}
	if len(vis) == 0 {
		return TypeUnknown
	}

	if c.Rel != "" {
		src, ok := vis.Lookup(c.Rel)
		if !ok {
			if report {
				v.logic("Column not found: %s.%s (no relation %s in scope%s)", c.Rel, c.Name, c.Rel, hintSuffix(c.Rel, vis.Names()))
			}
			return TypeUnknown
		}
		col, ok := src.Column(c.Name)
		if !ok {
			if report {
				v.logic("Column not found: %s.%s%s", c.Rel, c.Name, hint(c.Name, columnNames(src.Columns)))
			}
			return TypeUnknown
		}
		return typeOfColumn(col.Type)
	}

	owners := vis.Owners(c.Name)
	switch len(owners) {
	case 0:
		if report {
			v.logic("Column not found: %s%s", c.Name, hint(c.Name, columnNames(columnsOf(vis))))
		}
		return TypeUnknown
	case 1:
		src, _ := vis.Lookup(owners[0])
		col, _ := src.Column(c.Name)
		return typeOfColumn(col.Type)
	default:
		if report {
			v.logic("%s", scope.AmbiguousMessage(c.Name, owners))
		}
		return TypeUnknown
	}
}

// hintSuffix is hint without the surrounding parentheses, for use inside
// an already parenthesized message.
func hintSuffix(name string, candidates []string) string {
	h := hint(name, candidates)
	if h == "" {
		return ""
	}
	return "; " + h[2:len(h)-1]
}
