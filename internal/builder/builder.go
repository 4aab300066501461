// Package builder translates a parsed SELECT statement into raw Core IR.
//
// Translation is all-or-nothing: the first unsupported construct aborts the
// whole build with an *Error and no partial tree is returned.
package builder

import (
	"errors"
	"fmt"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/sqlparse"
)

// Messages shared with other stages that reject the same constructs.
const (
	MsgSubqueryPlacement = "subqueries allowed only in WHERE, one level"
	MsgNotInSubquery     = "NOT IN requires anti-join, unsupported"
	MsgNotExists         = "NOT EXISTS requires anti-join, unsupported"
	MsgJoinUsing         = "JOIN ... USING is not supported, use ON"
)

// Error reports a construct outside the supported subset.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// IsError reports whether err is a builder rejection.
func IsError(err error) bool {
	var be *Error
	return errors.As(err, &be)
}

func fail(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// predicate contexts
type scope int

const (
	scopeWhere    scope = iota // top-level WHERE: one level of subqueries allowed
	scopeSubWhere              // WHERE of a subquery: no further nesting
	scopeOn                    // JOIN ... ON: no subqueries at all
)

// Build translates stmt into a raw Core relation.
func Build(stmt ast.StmtNode) (core.Rel, error) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return buildSelect(s)
	case *ast.SetOprStmt:
		return buildSetOpr(s)
	default:
		return nil, fail("unsupported statement: %s", sqlparse.StatementKeyword(stmt))
	}
}

func buildSetOpr(s *ast.SetOprStmt) (core.Rel, error) {
	switch {
	case s.With != nil:
		return nil, fail("WITH is not supported")
	case s.OrderBy != nil:
		return nil, fail("ORDER BY is not supported")
	case s.Limit != nil:
		return nil, fail("LIMIT is not supported")
	}
	return buildSetOprList(s.SelectList)
}

// setOperand is one branch of a set-operation chain together with the
// operator joining it to the branch before. The first branch has none.
type setOperand struct {
	node ast.Node
	op   string
}

func operands(l *ast.SetOprSelectList) ([]setOperand, error) {
	out := make([]setOperand, 0, len(l.Selects))
	for i, n := range l.Selects {
		var after *ast.SetOprType
		switch n := n.(type) {
		case *ast.SelectStmt:
			after = n.AfterSetOperator
		case *ast.SetOprSelectList:
			after = n.AfterSetOperator
		default:
			return nil, fail("unsupported set operand %T", n)
		}
		operand := setOperand{node: n}
		if i > 0 && after != nil {
			name, all := sqlparse.SetOperator(*after)
			if all {
				return nil, fail("%s ALL is not supported", name)
			}
			operand.op = name
		}
		out = append(out, operand)
	}
	return out, nil
}

// buildSetOprList folds INTERSECT first, then UNION and EXCEPT left to
// right.
func buildSetOprList(l *ast.SetOprSelectList) (core.Rel, error) {
	ops, err := operands(l)
	if err != nil {
		return nil, err
	}

	rels := make([]core.Rel, 0, len(ops))
	for _, o := range ops {
		var rel core.Rel
		switch n := o.node.(type) {
		case *ast.SelectStmt:
			rel, err = buildSelect(n)
		case *ast.SetOprSelectList:
			rel, err = buildSetOprList(n)
		}
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}

	groups := []core.Rel{rels[0]}
	var between []string
	for i := 1; i < len(ops); i++ {
		if ops[i].op == "INTERSECT" {
			last := len(groups) - 1
			groups[last] = core.Intersect{Left: groups[last], Right: rels[i]}
			continue
		}
		groups = append(groups, rels[i])
		between = append(between, ops[i].op)
	}

	result := groups[0]
	for i, op := range between {
		right := groups[i+1]
		switch op {
		case "UNION":
			result = core.Union{Left: result, Right: right}
		case "EXCEPT":
			result = core.Except{Left: result, Right: right}
		default:
			return nil, fail("unsupported set operator %q", op)
		}
	}
	return result, nil
}

func rejectClauses(s *ast.SelectStmt) error {
	switch {
	case s.With != nil:
		return fail("WITH is not supported")
	case s.GroupBy != nil:
		return fail("GROUP BY is not supported")
	case s.Having != nil:
		return fail("HAVING is not supported")
	case s.OrderBy != nil:
		return fail("ORDER BY is not supported")
	case s.Limit != nil:
		return fail("LIMIT is not supported")
	case s.From == nil || s.From.TableRefs == nil:
		return fail("SELECT without FROM is not supported")
	case s.Fields == nil || len(s.Fields.Fields) == 0:
		return fail("SELECT list must not be empty")
	}
	return nil
}

func buildSelect(s *ast.SelectStmt) (core.Rel, error) {
	if err := rejectClauses(s); err != nil {
		return nil, err
	}

	input, err := buildFrom(s.From.TableRefs)
	if err != nil {
		return nil, err
	}
	if s.Where != nil {
		pred, err := buildPred(s.Where, scopeWhere)
		if err != nil {
			return nil, err
		}
		input = core.Select{Input: input, Pred: pred}
	}

	items := make([]core.ProjItem, 0, len(s.Fields.Fields))
	for _, f := range s.Fields.Fields {
		item, err := buildItem(f)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return core.Project{Input: input, Items: items}, nil
}

func buildItem(f *ast.SelectField) (core.ProjItem, error) {
	if f.WildCard != nil {
		if f.WildCard.Table.O == "" {
			return core.ProjAll{}, nil
		}
		return core.ProjAllFrom{Rel: f.WildCard.Table.O}, nil
	}
	e, err := buildExpr(f.Expr)
	if err != nil {
		return nil, err
	}
	return core.ProjExpr{Expr: e, Alias: f.AsName.O}, nil
}

func buildFrom(n ast.ResultSetNode) (core.Rel, error) {
	switch n := n.(type) {
	case *ast.Join:
		return buildJoin(n)
	case *ast.TableSource:
		switch src := n.Source.(type) {
		case *ast.TableName:
			var rel core.Rel = core.Table{Name: src.Name.O}
			if n.AsName.O != "" {
				rel = core.Alias{Input: rel, Name: n.AsName.O}
			}
			return rel, nil
		case *ast.Join:
			return buildJoin(src)
		case *ast.SelectStmt, *ast.SetOprStmt:
			return nil, fail(MsgSubqueryPlacement)
		default:
			return nil, fail("unsupported FROM source %T", src)
		}
	default:
		return nil, fail("unsupported FROM source %T", n)
	}
}

// buildJoin maps one node of the left-deep join tree. A join without a
// right side is just its left source.
func buildJoin(j *ast.Join) (core.Rel, error) {
	if j.Right == nil {
		return buildFrom(j.Left)
	}
	if sqlparse.IsOuterJoin(j) {
		return nil, fail("OUTER JOIN is not supported: %s", sqlparse.JoinKind(j))
	}
	if len(j.Using) > 0 {
		return nil, fail(MsgJoinUsing)
	}

	left, err := buildFrom(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := buildFrom(j.Right)
	if err != nil {
		return nil, err
	}

	switch {
	case j.NaturalJoin:
		return core.NaturalJoin{Left: left, Right: right}, nil
	case j.On != nil:
		on, err := buildPred(j.On.Expr, scopeOn)
		if err != nil {
			return nil, err
		}
		return core.Join{Left: left, Right: right, On: on}, nil
	default:
		return core.Product{Left: left, Right: right}, nil
	}
}
