package builder

import (
	"strconv"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	"github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/sqlparse"
)

var cmpOps = map[opcode.Op]core.CmpOp{
	opcode.EQ: core.EQ,
	opcode.NE: core.NEQ,
	opcode.LT: core.LT,
	opcode.LE: core.LTE,
	opcode.GT: core.GT,
	opcode.GE: core.GTE,
}

var arithOps = map[opcode.Op]core.ArithOp{
	opcode.Plus:  core.Add,
	opcode.Minus: core.Sub,
	opcode.Mul:   core.Mul,
	opcode.Div:   core.Div,
}

func buildPred(e ast.ExprNode, sc scope) (core.Pred, error) {
	switch e := e.(type) {
	case *ast.ParenthesesExpr:
		return buildPred(e.Expr, sc)

	case *ast.BinaryOperationExpr:
		switch e.Op {
		case opcode.LogicAnd, opcode.LogicOr:
			a, err := buildPred(e.L, sc)
			if err != nil {
				return nil, err
			}
			b, err := buildPred(e.R, sc)
			if err != nil {
				return nil, err
			}
			if e.Op == opcode.LogicAnd {
				return core.And{A: a, B: b}, nil
			}
			return core.Or{A: a, B: b}, nil
		case opcode.LogicXor, opcode.NullEQ:
			return nil, fail("%s is not supported", sqlparse.OpLiteral(e.Op))
		}
		op, ok := cmpOps[e.Op]
		if !ok {
			return nil, fail("expected a condition, got arithmetic expression with %q", sqlparse.OpLiteral(e.Op))
		}
		left, err := buildExpr(e.L)
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(e.R)
		if err != nil {
			return nil, err
		}
		return core.Cmp{Left: left, Op: op, Right: right}, nil

	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Not && e.Op != opcode.Not2 {
			return nil, fail("expected a condition")
		}
		if ex, ok := e.V.(*ast.ExistsSubqueryExpr); ok && !ex.Not {
			return nil, fail(MsgNotExists)
		}
		inner, err := buildPred(e.V, sc)
		if err != nil {
			return nil, err
		}
		return core.Not{A: inner}, nil

	case *ast.IsNullExpr:
		operand, err := buildExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		op := core.EQ
		if e.Not {
			op = core.NEQ
		}
		return core.Cmp{Left: operand, Op: op, Right: core.NullLit{}}, nil

	case *ast.BetweenExpr:
		value, err := buildExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		low, err := buildExpr(e.Left)
		if err != nil {
			return nil, err
		}
		high, err := buildExpr(e.Right)
		if err != nil {
			return nil, err
		}
		var p core.Pred = core.Between{Value: value, Low: low, High: high}
		if e.Not {
			p = core.Not{A: p}
		}
		return p, nil

	case *ast.PatternInExpr:
		return buildIn(e, sc)

	case *ast.ExistsSubqueryExpr:
		if e.Not {
			return nil, fail(MsgNotExists)
		}
		if sc != scopeWhere {
			return nil, subqueryScopeError(sc)
		}
		sq, ok := e.Sel.(*ast.SubqueryExpr)
		if !ok {
			return nil, fail(MsgSubqueryPlacement)
		}
		sub, err := buildSubselect(sq.Query, true)
		if err != nil {
			return nil, err
		}
		return core.Exists{Sub: sub}, nil

	case *ast.PatternLikeOrIlikeExpr:
		return nil, fail("LIKE is not supported")
	case *ast.FuncCallExpr, *ast.AggregateFuncExpr, *ast.WindowFuncExpr:
		return nil, fail("function calls and aggregates are not supported: %s", sqlparse.FuncName(e))
	case *ast.SubqueryExpr:
		return nil, fail(MsgSubqueryPlacement)
	default:
		return nil, fail("expected a condition")
	}
}

func buildIn(e *ast.PatternInExpr, sc scope) (core.Pred, error) {
	left, err := buildExpr(e.Expr)
	if err != nil {
		return nil, err
	}

	if e.Sel != nil {
		if e.Not {
			return nil, fail(MsgNotInSubquery)
		}
		if sc != scopeWhere {
			return nil, subqueryScopeError(sc)
		}
		sq, ok := e.Sel.(*ast.SubqueryExpr)
		if !ok {
			return nil, fail(MsgSubqueryPlacement)
		}
		sub, err := buildSubselect(sq.Query, false)
		if err != nil {
			return nil, err
		}
		return core.InSubselect{Left: left, Sub: sub}, nil
	}

	values := make([]core.Expr, 0, len(e.List))
	for _, v := range e.List {
		ce, err := buildExpr(v)
		if err != nil {
			return nil, err
		}
		values = append(values, ce)
	}
	var p core.Pred = core.InList{Left: left, Values: values}
	if e.Not {
		p = core.Not{A: p}
	}
	return p, nil
}

func subqueryScopeError(sc scope) error {
	if sc == scopeOn {
		return fail("subqueries are not allowed in JOIN conditions")
	}
	return fail(MsgSubqueryPlacement)
}

// buildSubselect materializes a one-level subquery. EXISTS ignores the
// projected value, so a wildcard there projects the constant 1.
func buildSubselect(q ast.ResultSetNode, exists bool) (core.Subselect, error) {
	s, ok := q.(*ast.SelectStmt)
	if !ok {
		return core.Subselect{}, fail("subquery must be a single SELECT")
	}
	if err := rejectClauses(s); err != nil {
		return core.Subselect{}, err
	}
	if len(s.Fields.Fields) != 1 {
		return core.Subselect{}, fail("subquery must project exactly one expression")
	}

	var item core.ProjExpr
	if f := s.Fields.Fields[0]; f.WildCard == nil {
		e, err := buildExpr(f.Expr)
		if err != nil {
			return core.Subselect{}, err
		}
		item = core.ProjExpr{Expr: e, Alias: f.AsName.O}
	} else {
		if !exists {
			return core.Subselect{}, fail("subquery must project exactly one expression")
		}
		item = core.ProjExpr{Expr: core.NumberLit{Lexeme: "1"}}
	}

	from, err := buildFrom(s.From.TableRefs)
	if err != nil {
		return core.Subselect{}, err
	}
	sub := core.Subselect{From: from, Item: item}
	if s.Where != nil {
		where, err := buildPred(s.Where, scopeSubWhere)
		if err != nil {
			return core.Subselect{}, err
		}
		sub.Where = where
	}
	return sub, nil
}

func buildExpr(e ast.ExprNode) (core.Expr, error) {
	switch e := e.(type) {
	case *ast.ColumnNameExpr:
		return core.ColumnRef{Rel: e.Name.Table.O, Name: e.Name.Name.O}, nil
	case *ast.ParenthesesExpr:
		inner, err := buildExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return core.Paren{Inner: inner}, nil
	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Minus && e.Op != opcode.Plus {
			return nil, fail("condition used as a value: %s", sqlparse.OpLiteral(e.Op))
		}
		operand, err := buildExpr(e.V)
		if err != nil {
			return nil, err
		}
		return core.UnaryArith{Op: arithOps[e.Op], Operand: operand}, nil
	case *ast.BinaryOperationExpr:
		op, ok := arithOps[e.Op]
		if !ok {
			return nil, fail("condition used as a value: %s", sqlparse.OpLiteral(e.Op))
		}
		left, err := buildExpr(e.L)
		if err != nil {
			return nil, err
		}
		right, err := buildExpr(e.R)
		if err != nil {
			return nil, err
		}
		return core.BinaryArith{Op: op, Left: left, Right: right}, nil
	case *ast.FuncCallExpr, *ast.AggregateFuncExpr, *ast.WindowFuncExpr:
		return nil, fail("function calls and aggregates are not supported: %s", sqlparse.FuncName(e))
	case *ast.SubqueryExpr:
		return nil, fail(MsgSubqueryPlacement)
	case *ast.PatternLikeOrIlikeExpr:
		return nil, fail("LIKE is not supported")
	case ast.ValueExpr:
		return buildValue(e)
	default:
		return nil, fail("condition used as a value")
	}
}

// buildValue keeps numeric literals as decimal lexemes; exact values are
// compared later during constant folding.
func buildValue(v ast.ValueExpr) (core.Expr, error) {
	switch val := v.GetValue().(type) {
	case nil:
		return core.NullLit{}, nil
	case string:
		return core.StringLit{Value: val}, nil
	case int64:
		return core.NumberLit{Lexeme: strconv.FormatInt(val, 10)}, nil
	case uint64:
		return core.NumberLit{Lexeme: strconv.FormatUint(val, 10)}, nil
	case float64:
		return core.NumberLit{Lexeme: strconv.FormatFloat(val, 'g', -1, 64)}, nil
	case *test_driver.MyDecimal:
		return core.NumberLit{Lexeme: val.String()}, nil
	default:
		return nil, fail("unsupported literal of type %T", val)
	}
}
