// Package sqlparse turns SQL text into a TiDB (MySQL dialect) syntax tree.
//
// It owns the parser configuration and the shape of syntax errors; the
// tree itself is consumed by the statement checks and the Core builder.
package sqlparse

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// SyntaxError reports SQL text that cannot be parsed. Line and Column are
// 1-based and zero when the parser gave no location.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Line, e.Column, e.Near)
}

// location matches the position suffix the TiDB parser appends to every
// syntax error.
var location = regexp.MustCompile(`line (\d+) column (\d+) near "((?s:.*))"`)

// Parse parses exactly one statement, optionally terminated by ';'.
// A parser is created per call; parsers are not safe for concurrent use.
func Parse(sql string) (ast.StmtNode, error) {
	stmt, err := parser.New().ParseOneStmt(sql, "", "")
	if err != nil {
		return nil, syntaxError(err)
	}
	return stmt, nil
}

func syntaxError(err error) *SyntaxError {
	m := location.FindStringSubmatch(err.Error())
	if m == nil {
		return &SyntaxError{Msg: err.Error()}
	}
	line, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	return &SyntaxError{Line: line, Column: col, Near: m[3], Msg: err.Error()}
}

// Inspect traverses n in depth-first order, calling f for each node. If f
// returns false, the children of that node are skipped. Subqueries are not
// entered; f sees the *ast.SubqueryExpr holding them.
func Inspect(n ast.Node, f func(ast.Node) bool) {
	if n == nil {
		return
	}
	n.Accept(inspector(f))
}

type inspector func(ast.Node) bool

func (f inspector) Enter(n ast.Node) (ast.Node, bool) {
	if !f(n) {
		return n, true
	}
	_, sub := n.(*ast.SubqueryExpr)
	return n, sub
}

func (f inspector) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}

// Subqueries returns the queries nested directly in e, in source order.
func Subqueries(e ast.ExprNode) []ast.ResultSetNode {
	var out []ast.ResultSetNode
	Inspect(e, func(n ast.Node) bool {
		if sub, ok := n.(*ast.SubqueryExpr); ok {
			out = append(out, sub.Query)
		}
		return true
	})
	return out
}
