// Package core defines the intermediate representation produced by the
// builder and rewritten by the normalizer.
//
// Core mirrors the accepted SQL subset closely: it still contains BETWEEN,
// IN lists, IN/EXISTS subselects and projection wildcards. The normalizer
// removes everything the relational algebra cannot express directly; what
// survives is converted to package ar.
//
// All node types are plain values. Rel, Pred, Expr and ProjItem are closed
// sets; callers switch over the concrete types exhaustively.
package core

// Rel is a relational expression.
type Rel interface{ relNode() }

// Pred is a boolean predicate.
type Pred interface{ predNode() }

// Expr is a scalar expression.
type Expr interface{ exprNode() }

// ProjItem is one entry of a projection list.
type ProjItem interface{ projItemNode() }

// Relations.
type (
	// Table references a base table by name.
	Table struct {
		Name string
	}

	// Alias renames Input. References through Name resolve to Input.
	Alias struct {
		Input Rel
		Name  string
	}

	// Project keeps Items of Input.
	Project struct {
		Input Rel
		Items []ProjItem
	}

	// Select filters Input by Pred.
	Select struct {
		Input Rel
		Pred  Pred
	}

	// Product is the cartesian product of two relations.
	Product struct {
		Left, Right Rel
	}

	// Join is a theta join.
	Join struct {
		Left, Right Rel
		On          Pred
	}

	// NaturalJoin joins on all common column names.
	NaturalJoin struct {
		Left, Right Rel
	}

	Union struct {
		Left, Right Rel
	}

	Intersect struct {
		Left, Right Rel
	}

	Except struct {
		Left, Right Rel
	}
)

func (Table) relNode()       {}
func (Alias) relNode()       {}
func (Project) relNode()     {}
func (Select) relNode()      {}
func (Product) relNode()     {}
func (Join) relNode()        {}
func (NaturalJoin) relNode() {}
func (Union) relNode()       {}
func (Intersect) relNode()   {}
func (Except) relNode()      {}

// Projection items.
type (
	// ProjAll is the bare * wildcard.
	ProjAll struct{}

	// ProjAllFrom is the qualified rel.* wildcard.
	ProjAllFrom struct {
		Rel string
	}

	// ProjExpr projects a scalar expression, optionally under an alias.
	ProjExpr struct {
		Expr  Expr
		Alias string
	}
)

func (ProjAll) projItemNode()     {}
func (ProjAllFrom) projItemNode() {}
func (ProjExpr) projItemNode()    {}

// ArithOp is a binary or unary arithmetic operator.
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
		return "<>"
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

// Scalar expressions.
type (
	// ColumnRef names a column, optionally qualified by a relation name.
	// Rel is empty for unqualified references.
	ColumnRef struct {
		Rel  string
		Name string
	}

	// NumberLit keeps the numeric lexeme as written.
	NumberLit struct {
		Lexeme string
	}

	// StringLit holds the unquoted string value.
	StringLit struct {
		Value string
	}

	NullLit struct{}

	// Paren records explicit grouping from the source text.
	Paren struct {
		Inner Expr
	}

	// UnaryArith is a signed operand; Op is Add or Sub.
	UnaryArith struct {
		Op      ArithOp
		Operand Expr
	}

	BinaryArith struct {
		Op          ArithOp
		Left, Right Expr
	}
)

func (ColumnRef) exprNode()   {}
func (NumberLit) exprNode()   {}
func (StringLit) exprNode()   {}
func (NullLit) exprNode()     {}
func (Paren) exprNode()       {}
func (UnaryArith) exprNode()  {}
func (BinaryArith) exprNode() {}

// Predicates.
type (
	And struct {
		A, B Pred
	}

	Or struct {
		A, B Pred
	}

	Not struct {
		A Pred
	}

	Cmp struct {
		Left  Expr
		Op    CmpOp
		Right Expr
	}

	// Between is inclusive on both bounds.
	Between struct {
		Value, Low, High Expr
	}

	// InList tests membership in a literal list. Values may be empty.
	InList struct {
		Left   Expr
		Values []Expr
	}

	InSubselect struct {
		Left Expr
		Sub  Subselect
	}

	Exists struct {
		Sub Subselect
	}

	NotExists struct {
		Sub Subselect
	}
)

func (And) predNode()         {}
func (Or) predNode()          {}
func (Not) predNode()         {}
func (Cmp) predNode()         {}
func (Between) predNode()     {}
func (InList) predNode()      {}
func (InSubselect) predNode() {}
func (Exists) predNode()      {}
func (NotExists) predNode()   {}

// Subselect is a one-level subquery used inside a WHERE predicate. Item is
// its single projected expression; Where is nil when absent.
type Subselect struct {
	From  Rel
	Item  ProjExpr
	Where Pred
}

// True is the always-true predicate 1 = 1.
func True() Pred {
	return Cmp{Left: NumberLit{Lexeme: "1"}, Op: EQ, Right: NumberLit{Lexeme: "1"}}
}

// IsTrue reports whether p is the always-true predicate returned by True.
func IsTrue(p Pred) bool {
	c, ok := p.(Cmp)
	if !ok || c.Op != EQ {
		return false
	}
	l, lok := c.Left.(NumberLit)
	r, rok := c.Right.(NumberLit)
	return lok && rok && l.Lexeme == "1" && r.Lexeme == "1"
}

// ContainsSubselect reports whether p has an IN or EXISTS subselect anywhere.
func ContainsSubselect(p Pred) bool {
	switch p := p.(type) {
	case And:
		return ContainsSubselect(p.A) || ContainsSubselect(p.B)
	case Or:
		return ContainsSubselect(p.A) || ContainsSubselect(p.B)
	case Not:
		return ContainsSubselect(p.A)
	case InSubselect, Exists, NotExists:
		return true
	default:
		return false
	}
}
