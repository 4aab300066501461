package core

import (
	"strings"
)

// FormatExpr renders e as SQL text.
func FormatExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// FormatPred renders p as SQL text. Nested AND/OR operands of a different
// connective are parenthesized.
func FormatPred(p Pred) string {
	var b strings.Builder
	writePred(&b, p)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case ColumnRef:
		if e.Rel != "" {
			b.WriteString(e.Rel)
			b.WriteByte('.')
		}
		b.WriteString(e.Name)
	case NumberLit:
		b.WriteString(e.Lexeme)
	case StringLit:
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(e.Value, "'", "''"))
		b.WriteByte('\'')
	case NullLit:
		b.WriteString("NULL")
	case Paren:
		b.WriteByte('(')
		writeExpr(b, e.Inner)
		b.WriteByte(')')
	case UnaryArith:
		b.WriteString(e.Op.String())
		writeExpr(b, e.Operand)
	case BinaryArith:
		writeExpr(b, e.Left)
		b.WriteString(" " + e.Op.String() + " ")
		writeExpr(b, e.Right)
	case nil:
		b.WriteString("<nil>")
	}
}

func writePred(b *strings.Builder, p Pred) {
	switch p := p.(type) {
	case And:
		writeConnectiveOperand(b, p.A, "AND")
		b.WriteString(" AND ")
		writeConnectiveOperand(b, p.B, "AND")
	case Or:
		writeConnectiveOperand(b, p.A, "OR")
		b.WriteString(" OR ")
		writeConnectiveOperand(b, p.B, "OR")
	case Not:
		b.WriteString("NOT (")
		writePred(b, p.A)
		b.WriteByte(')')
	case Cmp:
		writeExpr(b, p.Left)
		if _, ok := p.Right.(NullLit); ok && (p.Op == EQ || p.Op == NEQ) {
			if p.Op == EQ {
				b.WriteString(" IS NULL")
			} else {
				b.WriteString(" IS NOT NULL")
			}
			return
		}
		b.WriteString(" " + p.Op.String() + " ")
		writeExpr(b, p.Right)
	case Between:
		writeExpr(b, p.Value)
		b.WriteString(" BETWEEN ")
		writeExpr(b, p.Low)
		b.WriteString(" AND ")
		writeExpr(b, p.High)
	case InList:
		writeExpr(b, p.Left)
		b.WriteString(" IN (")
		for i, v := range p.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, v)
		}
		b.WriteByte(')')
	case InSubselect:
		writeExpr(b, p.Left)
		b.WriteString(" IN (subquery)")
	case Exists:
		b.WriteString("EXISTS (subquery)")
	case NotExists:
		b.WriteString("NOT EXISTS (subquery)")
	case nil:
		b.WriteString("<nil>")
	}
}

func writeConnectiveOperand(b *strings.Builder, p Pred, parent string) {
	paren := false
	switch p.(type) {
	case And:
		paren = parent != "AND"
	case Or:
		paren = parent != "OR"
	}
	if paren {
		b.WriteByte('(')
	}
	writePred(b, p)
	if paren {
		b.WriteByte(')')
	}
}
