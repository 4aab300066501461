package convert

import (
	"github.com/roach88/sqlra/internal/ar"
	"github.com/roach88/sqlra/internal/core"
)

func (c *converter) pred(p core.Pred) (ar.Pred, error) {
	switch p := p.(type) {
	case core.And:
		a, b, err := c.predPair(p.A, p.B)
		if err != nil {
			return nil, err
		}
		return and(a, b), nil

	case core.Or:
		a, b, err := c.predPair(p.A, p.B)
		if err != nil {
			return nil, err
		}
		return or(a, b), nil

	case core.Not:
		a, err := c.pred(p.A)
		if err != nil {
			return nil, err
		}
		return not(a), nil

	case core.Cmp:
		left, err := c.expr(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(p.Right)
		if err != nil {
			return nil, err
		}
		return compare(left, cmpOp(p.Op), right), nil

	case core.InList:
		left, err := c.expr(p.Left)
		if err != nil {
			return nil, err
		}
		out := ar.False()
		for _, v := range p.Values {
			right, err := c.expr(v)
			if err != nil {
				return nil, err
			}
			out = or(out, compare(left, ar.EQ, right))
		}
		return out, nil

	default:
		return nil, invariant(p)
	}
}

func (c *converter) predPair(a, b core.Pred) (ar.Pred, ar.Pred, error) {
	left, err := c.pred(a)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.pred(b)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func and(a, b ar.Pred) ar.Pred {
	switch {
	case ar.IsFalse(a) || ar.IsFalse(b):
		return ar.False()
	case ar.IsTrue(a):
		return b
	case ar.IsTrue(b):
		return a
	}
	return ar.And{A: a, B: b}
}

func or(a, b ar.Pred) ar.Pred {
	switch {
	case ar.IsTrue(a) || ar.IsTrue(b):
		return ar.True()
	case ar.IsFalse(a):
		return b
	case ar.IsFalse(b):
		return a
	}
	return ar.Or{A: a, B: b}
}

func not(a ar.Pred) ar.Pred {
	switch {
	case ar.IsTrue(a):
		return ar.False()
	case ar.IsFalse(a):
		return ar.True()
	}
	return ar.Not{A: a}
}

// compare builds left op right, or a sentinel when both operands are
// literals of the same kind. NULL operands are never folded.
func compare(left ar.Expr, op ar.CmpOp, right ar.Expr) ar.Pred {
	cmp := ar.Cmp{Left: left, Op: op, Right: right}
	l, lok := left.(ar.Const)
	r, rok := right.(ar.Const)
	if !lok || !rok || l.Kind != r.Kind {
		return cmp
	}

	var order int
	switch l.Kind {
	case ar.ConstNumber:
		lv, lok := parseNumber(l.Text)
		rv, rok := parseNumber(r.Text)
		if !lok || !rok {
			return cmp
		}
		order = lv.Cmp(rv)
	case ar.ConstString:
		switch {
		case l.Text < r.Text:
			order = -1
		case l.Text > r.Text:
			order = 1
		}
	default:
		return cmp
	}

	if holds(op, order) {
		return ar.True()
	}
	return ar.False()
}

func holds(op ar.CmpOp, order int) bool {
	switch op {
	case ar.EQ:
		return order == 0
	case ar.NEQ:
		return order != 0
	case ar.LT:
		return order < 0
	case ar.LTE:
		return order <= 0
	case ar.GT:
		return order > 0
	default:
		return order >= 0
	}
}
