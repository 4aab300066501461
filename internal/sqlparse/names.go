package sqlparse

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
)

// SetOperator names a set operator and reports whether it carries ALL.
func SetOperator(t ast.SetOprType) (name string, all bool) {
	switch t {
	case ast.Union:
		return "UNION", false
	case ast.UnionAll:
		return "UNION", true
	case ast.Intersect:
		return "INTERSECT", false
	case ast.IntersectAll:
		return "INTERSECT", true
	case ast.Except:
		return "EXCEPT", false
	case ast.ExceptAll:
		return "EXCEPT", true
	default:
		return fmt.Sprintf("set operator %d", t), false
	}
}

// IsOuterJoin reports whether j keeps unmatched rows of one side.
func IsOuterJoin(j *ast.Join) bool {
	return j.Tp == ast.LeftJoin || j.Tp == ast.RightJoin
}

// JoinKind names the join the way it is written, e.g. "NATURAL LEFT JOIN".
func JoinKind(j *ast.Join) string {
	var b strings.Builder
	if j.NaturalJoin {
		b.WriteString("NATURAL ")
	}
	switch j.Tp {
	case ast.LeftJoin:
		b.WriteString("LEFT ")
	case ast.RightJoin:
		b.WriteString("RIGHT ")
	}
	b.WriteString("JOIN")
	return b.String()
}

// FuncName returns the upper-cased name of a function or aggregate call,
// or "" when e is neither.
func FuncName(e ast.Node) string {
	switch e := e.(type) {
	case *ast.FuncCallExpr:
		return strings.ToUpper(e.FnName.O)
	case *ast.AggregateFuncExpr:
		return strings.ToUpper(e.F)
	case *ast.WindowFuncExpr:
		return strings.ToUpper(e.Name)
	}
	return ""
}

var opLiterals = map[opcode.Op]string{
	opcode.LogicAnd:   "AND",
	opcode.LogicOr:    "OR",
	opcode.LogicXor:   "XOR",
	opcode.EQ:         "=",
	opcode.NE:         "<>",
	opcode.LT:         "<",
	opcode.LE:         "<=",
	opcode.GT:         ">",
	opcode.GE:         ">=",
	opcode.NullEQ:     "<=>",
	opcode.Plus:       "+",
	opcode.Minus:      "-",
	opcode.Mul:        "*",
	opcode.Div:        "/",
	opcode.Mod:        "%",
	opcode.IntDiv:     "DIV",
	opcode.And:        "&",
	opcode.Or:         "|",
	opcode.Xor:        "^",
	opcode.LeftShift:  "<<",
	opcode.RightShift: ">>",
	opcode.Not:        "NOT",
	opcode.Not2:       "!",
	opcode.BitNeg:     "~",
}

// OpLiteral renders an operator as it appears in SQL text.
func OpLiteral(op opcode.Op) string {
	if s, ok := opLiterals[op]; ok {
		return s
	}
	return strings.ToUpper(op.String())
}

// StatementKeyword returns the leading keyword of a statement, e.g.
// "DELETE".
func StatementKeyword(stmt ast.StmtNode) string {
	if f := strings.Fields(stmt.Text()); len(f) > 0 {
		return strings.ToUpper(f[0])
	}
	name := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprintf("%T", stmt), "*ast."), "Stmt")
	return strings.ToUpper(name)
}
