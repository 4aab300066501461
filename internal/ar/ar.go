package ar

// Rel is a relational algebra expression.
type Rel interface{ arRel() }

// Pred is a selection or join condition.
type Pred interface{ arPred() }

// Expr is a scalar operand.
type Expr interface{ arExpr() }

// Base is a schema table.
type Base struct {
	Name string
}

// Rename is ρ[Alias](Input).
type Rename struct {
	Input Rel
	Alias string
}

// ProjItem is one projected expression. Alias is empty when the output
// column keeps its own name.
type ProjItem struct {
	Expr  Expr
	Alias string
}

// Project is π[Items](Input).
type Project struct {
	Input Rel
	Items []ProjItem
}

// Select is σ[Pred](Input).
type Select struct {
	Input Rel
	Pred  Pred
}

// Product is Left × Right.
type Product struct{ Left, Right Rel }

// Join is Left ⋈[On] Right.
type Join struct {
	Left, Right Rel
	On          Pred
}

// NaturalJoin is Left ⋈ Right.
type NaturalJoin struct{ Left, Right Rel }

// Union is Left ∪ Right.
type Union struct{ Left, Right Rel }

// Intersect is Left ∩ Right.
type Intersect struct{ Left, Right Rel }

// Except is Left − Right.
type Except struct{ Left, Right Rel }

func (Base) arRel()        {}
func (Rename) arRel()      {}
func (Project) arRel()     {}
func (Select) arRel()      {}
func (Product) arRel()     {}
func (Join) arRel()        {}
func (NaturalJoin) arRel() {}
func (Union) arRel()       {}
func (Intersect) arRel()   {}
func (Except) arRel()      {}

// Col is a column reference. Rel is empty for an unqualified column.
type Col struct {
	Rel  string
	Name string
}

// ConstKind tells how a Const renders.
type ConstKind int

const (
	ConstNumber ConstKind = iota
	ConstString
	ConstNull
)

// Const is a literal. Text holds the numeric lexeme or the unquoted
// string value; it is empty for ConstNull.
type Const struct {
	Kind ConstKind
	Text string
}

// ArithOp is a binary arithmetic operator.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

func (o ArithOp) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}

// Arith is Left Op Right.
type Arith struct {
	Op          ArithOp
	Left, Right Expr
}

func (Col) arExpr()   {}
func (Const) arExpr() {}
func (Arith) arExpr() {}

// Number returns a numeric constant.
func Number(lexeme string) Const { return Const{Kind: ConstNumber, Text: lexeme} }

// String returns a string constant.
func String(v string) Const { return Const{Kind: ConstString, Text: v} }

// Null returns the NULL constant.
func Null() Const { return Const{Kind: ConstNull} }

// CmpOp is a comparison operator.
type CmpOp int

const (
	EQ CmpOp = iota
	NEQ
	LT
	LTE
	GT
	GTE
)

func (o CmpOp) String() string {
	switch o {
	case EQ:
		return "="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case LTE:
		return "<="
	case GT:
		return ">"
	case GTE:
		return ">="
	default:
		return "?"
	}
}

type (
	// And is the conjunction of A and B.
	And struct{ A, B Pred }

	// Or is the disjunction of A and B.
	Or struct{ A, B Pred }

	// Not negates A.
	Not struct{ A Pred }

	// Cmp compares two operands.
	Cmp struct {
		Left  Expr
		Op    CmpOp
		Right Expr
	}
)

func (And) arPred() {}
func (Or) arPred()  {}
func (Not) arPred() {}
func (Cmp) arPred() {}

// True returns the TRUE sentinel.
func True() Pred { return Cmp{Left: Number("1"), Op: EQ, Right: Number("1")} }

// False returns the FALSE sentinel.
func False() Pred { return Cmp{Left: Number("1"), Op: EQ, Right: Number("0")} }

// IsTrue reports whether p is the TRUE sentinel.
func IsTrue(p Pred) bool { return isSentinel(p, "1") }

// IsFalse reports whether p is the FALSE sentinel.
func IsFalse(p Pred) bool { return isSentinel(p, "0") }

func isSentinel(p Pred, right string) bool {
	c, ok := p.(Cmp)
	return ok && c.Op == EQ && c.Left == Number("1") && c.Right == Number(right)
}
