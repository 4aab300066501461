package ar

import "strings"

// Relation precedence, lowest binds loosest.
const (
	precSet   = 10
	precJoin  = 20
	precUnary = 30
)

// Predicate precedence.
const (
	predOr = iota
	predAnd
	predNot
)

// Print renders r in canonical notation with minimal parentheses. A child
// is parenthesized when it binds looser than its parent, or when parent
// and child are set operators of different kinds.
func Print(r Rel) string {
	var b strings.Builder
	writeRel(&b, r)
	return b.String()
}

// PrintPred renders a condition as it appears inside σ[...] or ⋈[...].
func PrintPred(p Pred) string {
	var b strings.Builder
	writePred(&b, p, predOr)
	return b.String()
}

// PrintExpr renders a scalar operand.
func PrintExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// PrintItems renders a projection list as it appears inside π[...].
func PrintItems(items []ProjItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		e := PrintExpr(it.Expr)
		if it.Alias == "" || it.Alias == e {
			parts = append(parts, e)
			continue
		}
		parts = append(parts, it.Alias+" ← "+e)
	}
	return strings.Join(parts, ", ")
}

func precedence(r Rel) int {
	switch r.(type) {
	case Union, Intersect, Except:
		return precSet
	case Product, Join, NaturalJoin:
		return precJoin
	default:
		return precUnary
	}
}

func setSymbol(r Rel) string {
	switch r.(type) {
	case Union:
		return "∪"
	case Intersect:
		return "∩"
	case Except:
		return "−"
	default:
		return ""
	}
}

func needsParens(parent, child Rel) bool {
	if precedence(child) < precedence(parent) {
		return true
	}
	ps, cs := setSymbol(parent), setSymbol(child)
	return ps != "" && cs != "" && ps != cs
}

func writeRel(b *strings.Builder, r Rel) {
	switch r := r.(type) {
	case Base:
		b.WriteString(r.Name)
	case Rename:
		b.WriteString("ρ[" + r.Alias + "]")
		writeInput(b, r.Input)
	case Project:
		b.WriteString("π[" + PrintItems(r.Items) + "]")
		writeInput(b, r.Input)
	case Select:
		b.WriteString("σ[" + PrintPred(r.Pred) + "]")
		writeInput(b, r.Input)
	case Product:
		writeBinary(b, r, r.Left, " × ", r.Right)
	case Join:
		writeBinary(b, r, r.Left, " ⋈["+PrintPred(r.On)+"] ", r.Right)
	case NaturalJoin:
		writeBinary(b, r, r.Left, " ⋈ ", r.Right)
	case Union:
		writeBinary(b, r, r.Left, " ∪ ", r.Right)
	case Intersect:
		writeBinary(b, r, r.Left, " ∩ ", r.Right)
	case Except:
		writeBinary(b, r, r.Left, " − ", r.Right)
	}
}

func writeInput(b *strings.Builder, in Rel) {
	b.WriteByte('(')
	writeRel(b, in)
	b.WriteByte(')')
}

func writeBinary(b *strings.Builder, parent, left Rel, op string, right Rel) {
	writeChild(b, parent, left)
	b.WriteString(op)
	writeChild(b, parent, right)
}

func writeChild(b *strings.Builder, parent, child Rel) {
	if needsParens(parent, child) {
		writeInput(b, child)
		return
	}
	writeRel(b, child)
}

func writePred(b *strings.Builder, p Pred, prec int) {
	switch p := p.(type) {
	case nil:
		b.WriteString("TRUE")
	case And:
		openParen(b, prec > predAnd)
		writePred(b, p.A, predAnd)
		b.WriteString(" AND ")
		writePred(b, p.B, predAnd)
		closeParen(b, prec > predAnd)
	case Or:
		openParen(b, prec > predOr)
		writePred(b, p.A, predOr)
		b.WriteString(" OR ")
		writePred(b, p.B, predOr)
		closeParen(b, prec > predOr)
	case Not:
		b.WriteString("NOT (")
		writePred(b, p.A, predOr)
		b.WriteByte(')')
	case Cmp:
		writeCmp(b, p)
	}
}

func writeCmp(b *strings.Builder, c Cmp) {
	switch {
	case IsTrue(c):
		b.WriteString("TRUE")
		return
	case IsFalse(c):
		b.WriteString("FALSE")
		return
	}

	leftNull, rightNull := isNull(c.Left), isNull(c.Right)
	if leftNull != rightNull {
		operand := c.Left
		if leftNull {
			operand = c.Right
		}
		writeExpr(b, operand)
		if c.Op == NEQ {
			b.WriteString(" IS NOT NULL")
		} else {
			b.WriteString(" IS NULL")
		}
		return
	}

	writeExpr(b, c.Left)
	b.WriteString(" " + c.Op.String() + " ")
	writeExpr(b, c.Right)
}

func isNull(e Expr) bool {
	c, ok := e.(Const)
	return ok && c.Kind == ConstNull
}

func writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case Col:
		if e.Rel != "" {
			b.WriteString(e.Rel + ".")
		}
		b.WriteString(e.Name)
	case Const:
		switch e.Kind {
		case ConstString:
			b.WriteString("'" + strings.ReplaceAll(e.Text, "'", "''") + "'")
		case ConstNull:
			b.WriteString("NULL")
		default:
			b.WriteString(e.Text)
		}
	case Arith:
		writeOperand(b, e.Left)
		b.WriteString(" " + e.Op.String() + " ")
		writeOperand(b, e.Right)
	}
}

// writeOperand parenthesizes nested arithmetic regardless of precedence.
func writeOperand(b *strings.Builder, e Expr) {
	if _, ok := e.(Arith); ok {
		b.WriteByte('(')
		writeExpr(b, e)
		b.WriteByte(')')
		return
	}
	writeExpr(b, e)
}

func openParen(b *strings.Builder, paren bool) {
	if paren {
		b.WriteByte('(')
	}
}

func closeParen(b *strings.Builder, paren bool) {
	if paren {
		b.WriteByte(')')
	}
}
