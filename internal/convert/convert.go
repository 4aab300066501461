// Package convert lowers canonical Core IR to relational algebra.
//
// Each Core relation maps to exactly one AR relation. Predicates are folded
// on the way: comparisons between two literals whose outcome is known
// become the TRUE or FALSE sentinel, and AND, OR and NOT simplify against
// those sentinels. IN lists become left-associated OR chains.
//
// The input must have passed validation. Anything the normalizer should
// have removed is reported as an *InvariantError.
package convert

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/roach88/sqlra/internal/ar"
	"github.com/roach88/sqlra/internal/core"
)

// InvariantError reports a Core node that an earlier stage should have
// rewritten or rejected.
type InvariantError struct {
	Node string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("unexpected %s during conversion", e.Node)
}

func invariant(v any) error {
	name := fmt.Sprintf("%T", v)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return &InvariantError{Node: name}
}

// Convert lowers rel without recording a trace.
func Convert(rel core.Rel) (ar.Rel, error) {
	c := &converter{}
	return c.rel(rel)
}

// ConvertWithTrace lowers rel and returns one Step per translated node, in
// the order the nodes were completed.
func ConvertWithTrace(rel core.Rel) (ar.Rel, []Step, error) {
	c := &converter{tracing: true}
	out, err := c.rel(rel)
	if err != nil {
		return nil, nil, err
	}
	return out, c.steps, nil
}

type converter struct {
	tracing bool
	steps   []Step
}

func (c *converter) rel(r core.Rel) (ar.Rel, error) {
	switch r := r.(type) {
	case core.Table:
		out := ar.Base{Name: r.Name}
		c.record("FROM "+r.Name, "("+r.Name+")", out)
		return out, nil

	case core.Alias:
		if t, ok := r.Input.(core.Table); ok {
			out := ar.Rename{Input: ar.Base{Name: t.Name}, Alias: r.Name}
			c.record("FROM "+t.Name+" AS "+r.Name, "ρ["+r.Name+"]("+t.Name+")", out)
			return out, nil
		}
		in, err := c.rel(r.Input)
		if err != nil {
			return nil, err
		}
		out := ar.Rename{Input: in, Alias: r.Name}
		c.record("RENAME "+r.Name, "ρ["+r.Name+"]", out)
		return out, nil

	case core.Project:
		in, err := c.rel(r.Input)
		if err != nil {
			return nil, err
		}
		items, err := c.items(r.Items)
		if err != nil {
			return nil, err
		}
		out := ar.Project{Input: in, Items: items}
		c.record("SELECT "+sqlItems(items), "π["+ar.PrintItems(items)+"]", out)
		return out, nil

	case core.Select:
		in, err := c.rel(r.Input)
		if err != nil {
			return nil, err
		}
		p := ar.True()
		if r.Pred != nil {
			if p, err = c.pred(r.Pred); err != nil {
				return nil, err
			}
		}
		out := ar.Select{Input: in, Pred: p}
		text := ar.PrintPred(p)
		c.record("WHERE "+text, "σ["+text+"]", out)
		return out, nil

	case core.Product:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		out := ar.Product{Left: left, Right: right}
		c.record("CROSS JOIN", "×", out)
		return out, nil

	case core.Join:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		on := ar.True()
		if r.On != nil {
			if on, err = c.pred(r.On); err != nil {
				return nil, err
			}
		}
		out := ar.Join{Left: left, Right: right, On: on}
		text := ar.PrintPred(on)
		c.record("JOIN ON "+text, "⋈["+text+"]", out)
		return out, nil

	case core.NaturalJoin:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		out := ar.NaturalJoin{Left: left, Right: right}
		c.record("NATURAL JOIN", "⋈", out)
		return out, nil

	case core.Union:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		out := ar.Union{Left: left, Right: right}
		c.record("UNION", "∪", out)
		return out, nil

	case core.Intersect:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		out := ar.Intersect{Left: left, Right: right}
		c.record("INTERSECT", "∩", out)
		return out, nil

	case core.Except:
		left, right, err := c.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		out := ar.Except{Left: left, Right: right}
		c.record("EXCEPT", "−", out)
		return out, nil

	default:
		return nil, invariant(r)
	}
}

func (c *converter) pair(l, r core.Rel) (ar.Rel, ar.Rel, error) {
	left, err := c.rel(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.rel(r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (c *converter) items(items []core.ProjItem) ([]ar.ProjItem, error) {
	out := make([]ar.ProjItem, 0, len(items))
	for _, it := range items {
		pe, ok := it.(core.ProjExpr)
		if !ok {
			return nil, invariant(it)
		}
		e, err := c.expr(pe.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, ar.ProjItem{Expr: e, Alias: pe.Alias})
	}
	return out, nil
}

func (c *converter) expr(e core.Expr) (ar.Expr, error) {
	switch e := e.(type) {
	case core.ColumnRef:
		return ar.Col{Rel: e.Rel, Name: e.Name}, nil
	case core.NumberLit:
		return ar.Number(e.Lexeme), nil
	case core.StringLit:
		return ar.String(e.Value), nil
	case core.NullLit:
		return ar.Null(), nil
	case core.Paren:
		return c.expr(e.Inner)
	case core.UnaryArith:
		operand, err := c.expr(e.Operand)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case core.Add:
			return operand, nil
		case core.Sub:
			if k, ok := operand.(ar.Const); ok && k.Kind == ar.ConstNumber {
				return ar.Number(negate(k.Text)), nil
			}
			return ar.Arith{Op: ar.Sub, Left: ar.Number("0"), Right: operand}, nil
		default:
			return nil, invariant(e)
		}
	case core.BinaryArith:
		left, err := c.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.expr(e.Right)
		if err != nil {
			return nil, err
		}
		return ar.Arith{Op: arithOp(e.Op), Left: left, Right: right}, nil
	default:
		return nil, invariant(e)
	}
}

func negate(lexeme string) string {
	if rest, ok := strings.CutPrefix(lexeme, "-"); ok {
		return rest
	}
	return "-" + lexeme
}

func arithOp(op core.ArithOp) ar.ArithOp {
	switch op {
	case core.Sub:
		return ar.Sub
	case core.Mul:
		return ar.Mul
	case core.Div:
		return ar.Div
	default:
		return ar.Add
	}
}

func cmpOp(op core.CmpOp) ar.CmpOp {
	switch op {
	case core.NEQ:
		return ar.NEQ
	case core.LT:
		return ar.LT
	case core.LTE:
		return ar.LTE
	case core.GT:
		return ar.GT
	case core.GTE:
		return ar.GTE
	default:
		return ar.EQ
	}
}

// sqlItems renders a projection list the way it reads in a SELECT clause.
func sqlItems(items []ar.ProjItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		e := ar.PrintExpr(it.Expr)
		if it.Alias != "" && it.Alias != e {
			e += " AS " + it.Alias
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, ", ")
}

// parseNumber reads a numeric literal as an exact decimal, so literals
// that share a float64 still compare unequal.
func parseNumber(lexeme string) (*apd.Decimal, bool) {
	d, _, err := apd.NewFromString(lexeme)
	if err != nil || d.Form != apd.Finite {
		return nil, false
	}
	return d, true
}
