package normalize

import (
	"github.com/roach88/sqlra/internal/builder"
	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/scope"
)

// lifter turns subselect leaves of one WHERE predicate into joins. outer is
// the visibility of the Select's input before any join was added.
type lifter struct {
	n     *Normalizer
	outer scope.Visibility
}

// lift walks p along AND/OR/NOT. It returns the input enriched with one
// join per subselect leaf and the residual predicate, nil when nothing is
// left to filter on. A lifted leaf drops out of the residual, so the other
// side of its AND or OR survives on its own.
func (l *lifter) lift(p core.Pred, input core.Rel) (core.Rel, core.Pred, error) {
	switch p := p.(type) {
	case core.And:
		in, a, err := l.lift(p.A, input)
		if err != nil {
			return nil, nil, err
		}
		in, b, err := l.lift(p.B, in)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case a == nil:
			return in, b, nil
		case b == nil:
			return in, a, nil
		}
		return in, core.And{A: a, B: b}, nil

	case core.Or:
		if !core.ContainsSubselect(p) {
			return input, p, nil
		}
		in, a, err := l.lift(p.A, input)
		if err != nil {
			return nil, nil, err
		}
		in, b, err := l.lift(p.B, in)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case a == nil:
			return in, b, nil
		case b == nil:
			return in, a, nil
		}
		return in, core.Or{A: a, B: b}, nil

	case core.Not:
		if core.ContainsSubselect(p.A) {
			return nil, nil, fail("NOT over a subquery requires anti-join, unsupported")
		}
		return input, p, nil

	case core.InSubselect:
		from, inner, where, err := l.materialize(p.Sub)
		if err != nil {
			return nil, nil, err
		}
		left, err := qualifyExpr(p.Left, l.outer)
		if err != nil {
			return nil, nil, err
		}
		item, err := qualifyExpr(p.Sub.Item.Expr, inner)
		if err != nil {
			return nil, nil, err
		}
		on := core.And{A: core.Cmp{Left: left, Op: core.EQ, Right: item}, B: where}
		return core.Join{Left: input, Right: from, On: on}, nil, nil

	case core.Exists:
		from, _, where, err := l.materialize(p.Sub)
		if err != nil {
			return nil, nil, err
		}
		return core.Join{Left: input, Right: from, On: where}, nil, nil

	case core.NotExists:
		return nil, nil, fail(builder.MsgNotExists)

	default:
		return input, p, nil
	}
}

// materialize normalizes the subquery's FROM tree and qualifies its WHERE,
// resolving each column in the subquery scope first and in the outer scope
// second. A missing WHERE yields the always-true predicate.
func (l *lifter) materialize(sub core.Subselect) (core.Rel, scope.Visibility, core.Pred, error) {
	if core.ContainsSubselect(sub.Where) {
		return nil, nil, nil, fail(builder.MsgSubqueryPlacement)
	}
	from, err := l.n.Normalize(sub.From)
	if err != nil {
		return nil, nil, nil, err
	}
	inner := scope.Of(sub.From, l.n.idx)

	if sub.Where == nil {
		return from, inner, core.True(), nil
	}
	where, err := qualifyPred(sub.Where, inner, l.outer)
	if err != nil {
		return nil, nil, nil, err
	}
	where, err = desugar(where)
	if err != nil {
		return nil, nil, nil, err
	}
	return from, inner, where, nil
}

// desugar rewrites BETWEEN into a pair of comparisons.
func desugar(p core.Pred) (core.Pred, error) {
	switch p := p.(type) {
	case core.And:
		a, err := desugar(p.A)
		if err != nil {
			return nil, err
		}
		b, err := desugar(p.B)
		if err != nil {
			return nil, err
		}
		return core.And{A: a, B: b}, nil
	case core.Or:
		a, err := desugar(p.A)
		if err != nil {
			return nil, err
		}
		b, err := desugar(p.B)
		if err != nil {
			return nil, err
		}
		return core.Or{A: a, B: b}, nil
	case core.Not:
		a, err := desugar(p.A)
		if err != nil {
			return nil, err
		}
		return core.Not{A: a}, nil
	case core.Between:
		return core.And{
			A: core.Cmp{Left: p.Value, Op: core.GTE, Right: p.Low},
			B: core.Cmp{Left: p.Value, Op: core.LTE, Right: p.High},
		}, nil
	case core.InSubselect, core.Exists:
		return nil, fail(builder.MsgSubqueryPlacement)
	case core.NotExists:
		return nil, fail(builder.MsgNotExists)
	default:
		return p, nil
	}
}

// qualifyPred qualifies every column of p, trying each scope in order.
func qualifyPred(p core.Pred, scopes ...scope.Visibility) (core.Pred, error) {
	switch p := p.(type) {
	case core.And:
		a, err := qualifyPred(p.A, scopes...)
		if err != nil {
			return nil, err
		}
		b, err := qualifyPred(p.B, scopes...)
		if err != nil {
			return nil, err
		}
		return core.And{A: a, B: b}, nil
	case core.Or:
		a, err := qualifyPred(p.A, scopes...)
		if err != nil {
			return nil, err
		}
		b, err := qualifyPred(p.B, scopes...)
		if err != nil {
			return nil, err
		}
		return core.Or{A: a, B: b}, nil
	case core.Not:
		a, err := qualifyPred(p.A, scopes...)
		if err != nil {
			return nil, err
		}
		return core.Not{A: a}, nil
	case core.Cmp:
		es, err := qualifyAll(scopes, p.Left, p.Right)
		if err != nil {
			return nil, err
		}
		return core.Cmp{Left: es[0], Op: p.Op, Right: es[1]}, nil
	case core.Between:
		es, err := qualifyAll(scopes, p.Value, p.Low, p.High)
		if err != nil {
			return nil, err
		}
		return core.Between{Value: es[0], Low: es[1], High: es[2]}, nil
	case core.InList:
		es, err := qualifyAll(scopes, append([]core.Expr{p.Left}, p.Values...)...)
		if err != nil {
			return nil, err
		}
		return core.InList{Left: es[0], Values: es[1:]}, nil
	default:
		return p, nil
	}
}

func qualifyAll(scopes []scope.Visibility, exprs ...core.Expr) ([]core.Expr, error) {
	out := make([]core.Expr, len(exprs))
	for i, e := range exprs {
		q, err := qualifyExpr(e, scopes...)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// qualifyExpr gives every unqualified column the name of its single owner
// in the first scope where it has any. A column found nowhere is left
// as is; more than one owner in a scope is an ambiguity error.
func qualifyExpr(e core.Expr, scopes ...scope.Visibility) (core.Expr, error) {
	switch e := e.(type) {
	case core.ColumnRef:
		if e.Rel != "" {
			return e, nil
		}
		for _, vis := range scopes {
			owners := vis.Owners(e.Name)
			switch len(owners) {
			case 0:
				continue
			case 1:
				return core.ColumnRef{Rel: owners[0], Name: e.Name}, nil
			default:
				return nil, &Error{Msg: scope.AmbiguousMessage(e.Name, owners)}
			}
		}
		return e, nil
	case core.Paren:
		inner, err := qualifyExpr(e.Inner, scopes...)
		if err != nil {
			return nil, err
		}
		return core.Paren{Inner: inner}, nil
	case core.UnaryArith:
		operand, err := qualifyExpr(e.Operand, scopes...)
		if err != nil {
			return nil, err
		}
		return core.UnaryArith{Op: e.Op, Operand: operand}, nil
	case core.BinaryArith:
		left, err := qualifyExpr(e.Left, scopes...)
		if err != nil {
			return nil, err
		}
		right, err := qualifyExpr(e.Right, scopes...)
		if err != nil {
			return nil, err
		}
		return core.BinaryArith{Op: e.Op, Left: left, Right: right}, nil
	default:
		return e, nil
	}
}
