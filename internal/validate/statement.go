package validate

import (
	"github.com/pingcap/tidb/pkg/parser/ast"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/sqlparse"
)

// CheckStatement applies the clause-level rules of the supported subset to
// a parsed statement and reports every violation as a LOGIC_ERROR. It
// covers what is cheaper to see on the syntax tree than on Core: excluded
// clauses, function calls, LIKE, outer joins, USING, set operations with
// ALL, and alias hygiene inside each SELECT block. Statement kind and
// subquery shape are left to the builder.
func CheckStatement(stmt ast.StmtNode) *diag.Result {
	res := diag.New()
	checkStatement(stmt, res)
	return res
}

func checkStatement(n ast.Node, res *diag.Result) {
	switch s := n.(type) {
	case *ast.SelectStmt:
		checkSelect(s, res)
	case *ast.SetOprStmt:
		if s.With != nil {
			res.AddError(diag.KindLogic, "WITH is not supported.")
		}
		if s.SelectList != nil {
			checkSetOprList(s.SelectList, res)
		}
		if s.OrderBy != nil {
			res.AddError(diag.KindLogic, "ORDER BY is not supported.")
		}
		if s.Limit != nil {
			res.AddError(diag.KindLogic, "LIMIT is not supported.")
		}
	case *ast.SetOprSelectList:
		checkSetOprList(s, res)
	}
}

func checkSetOprList(l *ast.SetOprSelectList, res *diag.Result) {
	for i, n := range l.Selects {
		var after *ast.SetOprType
		switch n := n.(type) {
		case *ast.SelectStmt:
			after = n.AfterSetOperator
		case *ast.SetOprSelectList:
			after = n.AfterSetOperator
		}
		if i > 0 && after != nil {
			if name, all := sqlparse.SetOperator(*after); all {
				res.AddError(diag.KindLogic, "%s ALL is not supported.", name)
			}
		}
		checkStatement(n, res)
	}
}

func checkSelect(s *ast.SelectStmt, res *diag.Result) {
	if s.With != nil {
		res.AddError(diag.KindLogic, "WITH is not supported.")
	}
	if s.GroupBy != nil {
		res.AddError(diag.KindLogic, "GROUP BY is not supported.")
	}
	if s.Having != nil {
		res.AddError(diag.KindLogic, "HAVING is not supported.")
	}
	if s.OrderBy != nil {
		res.AddError(diag.KindLogic, "ORDER BY is not supported.")
	}
	if s.Limit != nil {
		res.AddError(diag.KindLogic, "LIMIT is not supported.")
	}

	var from ast.ResultSetNode
	if s.From != nil && s.From.TableRefs != nil {
		from = s.From.TableRefs
	}
	tableAliases := checkFrom(from, res)
	var fields []*ast.SelectField
	if s.Fields != nil {
		fields = s.Fields.Fields
	}
	columnAliases := checkItems(fields, tableAliases, res)
	checkOn(from, columnAliases, res)

	if s.Where != nil {
		checkExpr(s.Where, columnAliases, "WHERE", res)
		for _, sub := range sqlparse.Subqueries(s.Where) {
			checkStatement(sub, res)
		}
	}
}

// checkFrom reports outer joins, USING and repeated table aliases, and
// returns the folded set of explicit aliases.
func checkFrom(n ast.ResultSetNode, res *diag.Result) map[string]bool {
	aliases := map[string]bool{}
	var walk func(ast.ResultSetNode)
	walk = func(n ast.ResultSetNode) {
		switch n := n.(type) {
		case *ast.TableSource:
			if j, ok := n.Source.(*ast.Join); ok {
				walk(j)
				return
			}
			if n.AsName.O == "" {
				return
			}
			key := schema.Fold(n.AsName.O)
			if aliases[key] {
				res.AddError(diag.KindLogic, "Duplicate table alias: %s.", n.AsName.O)
			}
			aliases[key] = true
		case *ast.Join:
			walk(n.Left)
			if n.Right == nil {
				return
			}
			walk(n.Right)
			if sqlparse.IsOuterJoin(n) {
				res.AddError(diag.KindLogic, "OUTER joins are not supported: %s.", sqlparse.JoinKind(n))
			}
			if len(n.Using) > 0 {
				res.AddError(diag.KindLogic, "JOIN ... USING is not supported, use ON.")
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return aliases
}

func checkOn(n ast.ResultSetNode, columnAliases map[string]bool, res *diag.Result) {
	switch n := n.(type) {
	case *ast.TableSource:
		if j, ok := n.Source.(*ast.Join); ok {
			checkOn(j, columnAliases, res)
		}
	case *ast.Join:
		checkOn(n.Left, columnAliases, res)
		if n.Right != nil {
			checkOn(n.Right, columnAliases, res)
		}
		if n.On != nil {
			checkExpr(n.On.Expr, columnAliases, "ON", res)
		}
	}
}

// checkItems reports duplicate column aliases, aliases colliding with table
// aliases and projected NULLs. It returns the folded set of column aliases
// that rename something other than a same-named column.
func checkItems(fields []*ast.SelectField, tableAliases map[string]bool, res *diag.Result) map[string]bool {
	seen := map[string]bool{}
	renames := map[string]bool{}
	for _, f := range fields {
		if f.WildCard != nil || f.Expr == nil {
			continue
		}
		checkExpr(f.Expr, nil, "SELECT", res)
		if containsNull(f.Expr) {
			res.AddError(diag.KindLogic, "NULL cannot be projected in the SELECT list.")
		}
		alias := f.AsName.O
		if alias == "" {
			continue
		}
		key := schema.Fold(alias)
		if seen[key] {
			res.AddError(diag.KindLogic, "Duplicate column alias in SELECT: %s.", alias)
		}
		seen[key] = true
		if tableAliases[key] {
			res.AddError(diag.KindLogic, "Column alias %s collides with a table alias.", alias)
		}
		if c, ok := f.Expr.(*ast.ColumnNameExpr); !ok || schema.Fold(c.Name.Name.O) != key {
			renames[key] = true
		}
	}
	return renames
}

// checkExpr reports function calls and LIKE anywhere in e, and unqualified
// references to a column alias of the same SELECT block.
func checkExpr(e ast.ExprNode, columnAliases map[string]bool, clause string, res *diag.Result) {
	sqlparse.Inspect(e, func(n ast.Node) bool {
		if name := sqlparse.FuncName(n); name != "" {
			res.AddError(diag.KindLogic, "Aggregate and function calls are not supported: %s.", name)
			return false
		}
		switch n := n.(type) {
		case *ast.PatternLikeOrIlikeExpr:
			res.AddError(diag.KindLogic, "LIKE is not supported.")
		case *ast.ColumnNameExpr:
			if n.Name.Table.O == "" && columnAliases[schema.Fold(n.Name.Name.O)] {
				res.AddError(diag.KindLogic, "Column alias %s cannot be referenced in %s.", n.Name.Name.O, clause)
			}
		}
		return true
	})
}

func containsNull(e ast.ExprNode) bool {
	found := false
	sqlparse.Inspect(e, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IsNullExpr:
			found = true
		case ast.ValueExpr:
			found = n.GetValue() == nil
		}
		return !found
	})
	return found
}
