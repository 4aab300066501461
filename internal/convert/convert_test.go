package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlra/internal/ar"
	"github.com/roach88/sqlra/internal/builder"
	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/normalize"
	"github.com/roach88/sqlra/internal/sqlparse"
	"github.com/roach88/sqlra/internal/testutil"
)

func num(s string) core.NumberLit   { return core.NumberLit{Lexeme: s} }
func str(s string) core.StringLit   { return core.StringLit{Value: s} }
func col(r, n string) core.ColumnRef { return core.ColumnRef{Rel: r, Name: n} }

func canonical(t *testing.T, sql string) core.Rel {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	raw, err := builder.Build(stmt)
	require.NoError(t, err)
	rel, err := normalize.New(testutil.ShopIndex()).Normalize(raw)
	require.NoError(t, err)
	return rel
}

func TestConvertLiftedSubquery(t *testing.T) {
	out, err := Convert(canonical(t, "SELECT name FROM Users WHERE id IN (SELECT user_id FROM Orders WHERE total > 100)"))
	require.NoError(t, err)

	proj, ok := out.(ar.Project)
	require.True(t, ok)
	join, ok := proj.Input.(ar.Join)
	require.True(t, ok, "root input should be a join, got %T", proj.Input)
	assert.Equal(t, ar.Base{Name: "Users"}, join.Left)
	assert.Equal(t, ar.Base{Name: "Orders"}, join.Right)
	assert.Equal(t, "Users.id = Orders.user_id AND Orders.total > 100", ar.PrintPred(join.On))
	assert.Equal(t, "π[Users.name](Users ⋈[Users.id = Orders.user_id AND Orders.total > 100] Orders)", ar.Print(out))
}

func TestConvertMapsEveryRelation(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT u.name FROM Users AS u", "π[u.name](ρ[u](Users))"},
		{"SELECT * FROM A, B", "π[A.x, A.y, B.x, B.z](A × B)"},
		{"SELECT * FROM A NATURAL JOIN B", "π[A.x, A.y, B.x, B.z](A ⋈ B)"},
		{
			"SELECT a.y FROM A a JOIN B b ON a.x = b.x WHERE b.z <> 'q'",
			"π[a.y](σ[b.z != 'q'](ρ[a](A) ⋈[a.x = b.x] ρ[b](B)))",
		},
		{"SELECT x FROM A UNION SELECT x FROM B", "π[x](A) ∪ π[x](B)"},
		{
			"SELECT x FROM A UNION SELECT x FROM B INTERSECT SELECT p FROM C",
			"π[x](A) ∪ (π[x](B) ∩ π[p](C))",
		},
		{"SELECT x FROM A EXCEPT SELECT x FROM B", "π[x](A) − π[x](B)"},
		{"SELECT name FROM Users WHERE age BETWEEN 18 AND 30", "π[name](σ[age >= 18 AND age <= 30](Users))"},
		{"SELECT name FROM Users WHERE age IN (1, 2, 3)", "π[name](σ[age = 1 OR age = 2 OR age = 3](Users))"},
		{"SELECT name FROM Users WHERE 1 = 1 AND age > 3", "π[name](σ[age > 3](Users))"},
		{"SELECT name FROM Users WHERE 2 > 10 OR name = NULL", "π[name](σ[name IS NULL](Users))"},
		{"SELECT name FROM Users WHERE NOT (1 = 0)", "π[name](σ[TRUE](Users))"},
		{"SELECT age * (2 + 1) AS a3 FROM Users", "π[a3 ← age * (2 + 1)](Users)"},
		{"SELECT name FROM Users WHERE -age < -5", "π[name](σ[0 - age < -5](Users))"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			out, err := Convert(canonical(t, tt.sql))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ar.Print(out))
		})
	}
}

func TestConstantFolding(t *testing.T) {
	p := core.Cmp{Left: col("t", "a"), Op: core.GT, Right: num("1")}
	arP := ar.Cmp{Left: ar.Col{Rel: "t", Name: "a"}, Op: ar.GT, Right: ar.Number("1")}
	falsePred := core.Cmp{Left: num("1"), Op: core.EQ, Right: num("0")}

	tests := []struct {
		name string
		pred core.Pred
		want ar.Pred
	}{
		{"literal equality", core.True(), ar.True()},
		{"and absorbs true", core.And{A: core.True(), B: p}, arP},
		{"or absorbs false", core.Or{A: falsePred, B: p}, arP},
		{"and annihilates on false", core.And{A: falsePred, B: p}, ar.False()},
		{"or short-circuits on true", core.Or{A: p, B: core.True()}, ar.True()},
		{"not inverts true", core.Not{A: core.True()}, ar.False()},
		{"not keeps other predicates", core.Not{A: p}, ar.Not{A: arP}},
		{"numbers compare numerically", core.Cmp{Left: num("2"), Op: core.LT, Right: num("10")}, ar.True()},
		{"decimal lexemes", core.Cmp{Left: num("1.50"), Op: core.EQ, Right: num("1.5")}, ar.True()},
		{
			"integers beyond float precision stay distinct",
			core.Cmp{Left: num("9007199254740993"), Op: core.EQ, Right: num("9007199254740992")},
			ar.False(),
		},
		{
			"integers beyond float precision keep their order",
			core.Cmp{Left: num("9007199254740993"), Op: core.GT, Right: num("9007199254740992")},
			ar.True(),
		},
		{"exponent lexemes", core.Cmp{Left: num("1e3"), Op: core.EQ, Right: num("1000")}, ar.True()},
		{"strings compare lexically", core.Cmp{Left: str("b"), Op: core.GTE, Right: str("a")}, ar.True()},
		{"string inequality", core.Cmp{Left: str("a"), Op: core.NEQ, Right: str("a")}, ar.False()},
		{
			"mixed literal kinds are kept",
			core.Cmp{Left: str("1"), Op: core.EQ, Right: num("1")},
			ar.Cmp{Left: ar.String("1"), Op: ar.EQ, Right: ar.Number("1")},
		},
		{
			"null comparisons are kept",
			core.Cmp{Left: core.NullLit{}, Op: core.EQ, Right: core.NullLit{}},
			ar.Cmp{Left: ar.Null(), Op: ar.EQ, Right: ar.Null()},
		},
		{"empty in list", core.InList{Left: col("t", "a")}, ar.False()},
		{"in list with a matching literal", core.InList{Left: num("1"), Values: []core.Expr{num("2"), num("1")}}, ar.True()},
		{
			"in list folds away impossible members",
			core.InList{Left: num("1"), Values: []core.Expr{num("2"), col("t", "a")}},
			ar.Cmp{Left: ar.Number("1"), Op: ar.EQ, Right: ar.Col{Rel: "t", Name: "a"}},
		},
		{
			"in list is left associated",
			core.InList{Left: col("", "a"), Values: []core.Expr{num("1"), num("2"), num("3")}},
			ar.Or{
				A: ar.Or{
					A: ar.Cmp{Left: ar.Col{Name: "a"}, Op: ar.EQ, Right: ar.Number("1")},
					B: ar.Cmp{Left: ar.Col{Name: "a"}, Op: ar.EQ, Right: ar.Number("2")},
				},
				B: ar.Cmp{Left: ar.Col{Name: "a"}, Op: ar.EQ, Right: ar.Number("3")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&converter{}).pred(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr core.Expr
		want ar.Expr
	}{
		{"parentheses are dropped", core.Paren{Inner: col("t", "a")}, ar.Col{Rel: "t", Name: "a"}},
		{"negative literal", core.UnaryArith{Op: core.Sub, Operand: num("5")}, ar.Number("-5")},
		{"double negation", core.UnaryArith{Op: core.Sub, Operand: core.UnaryArith{Op: core.Sub, Operand: num("5")}}, ar.Number("5")},
		{"unary plus", core.UnaryArith{Op: core.Add, Operand: col("", "a")}, ar.Col{Name: "a"}},
		{
			"negated column",
			core.UnaryArith{Op: core.Sub, Operand: col("", "a")},
			ar.Arith{Op: ar.Sub, Left: ar.Number("0"), Right: ar.Col{Name: "a"}},
		},
		{
			"arithmetic is not folded",
			core.BinaryArith{Op: core.Div, Left: num("4"), Right: num("2")},
			ar.Arith{Op: ar.Div, Left: ar.Number("4"), Right: ar.Number("2")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&converter{}).expr(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertRejectsNonCanonicalInput(t *testing.T) {
	sub := core.Subselect{From: core.Table{Name: "Orders"}, Item: core.ProjExpr{Expr: col("", "user_id")}}
	users := core.Table{Name: "Users"}

	tests := []struct {
		name string
		rel  core.Rel
		node string
	}{
		{"between", core.Select{Input: users, Pred: core.Between{Value: col("", "a"), Low: num("1"), High: num("2")}}, "Between"},
		{"in subselect", core.Select{Input: users, Pred: core.InSubselect{Left: col("", "id"), Sub: sub}}, "InSubselect"},
		{"exists", core.Select{Input: users, Pred: core.Exists{Sub: sub}}, "Exists"},
		{"not exists in join", core.Join{Left: users, Right: users, On: core.NotExists{Sub: sub}}, "NotExists"},
		{"wildcard", core.Project{Input: users, Items: []core.ProjItem{core.ProjAll{}}}, "ProjAll"},
		{"qualified wildcard", core.Project{Input: users, Items: []core.ProjItem{core.ProjAllFrom{Rel: "Users"}}}, "ProjAllFrom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.rel)
			var inv *InvariantError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.node, inv.Node)
		})
	}
}

func TestConvertWithTrace(t *testing.T) {
	rel := core.Except{
		Left: core.Project{
			Input: core.Select{
				Input: core.Alias{Input: core.Table{Name: "A"}, Name: "a"},
				Pred:  core.Cmp{Left: col("a", "x"), Op: core.GT, Right: num("1")},
			},
			Items: []core.ProjItem{core.ProjExpr{Expr: col("a", "x"), Alias: "k"}},
		},
		Right: core.Project{
			Input: core.Alias{Input: core.Product{Left: core.Table{Name: "B"}, Right: core.Table{Name: "C"}}, Name: "bc"},
			Items: []core.ProjItem{core.ProjExpr{Expr: col("bc", "x")}},
		},
	}

	out, steps, err := ConvertWithTrace(rel)
	require.NoError(t, err)

	var lines []string
	for _, s := range steps {
		lines = append(lines, s.String())
	}
	assert.Equal(t, []string{
		"FROM A AS a -> ρ[a](A): ρ[a](A)",
		"WHERE a.x > 1 -> σ[a.x > 1]: σ[a.x > 1](ρ[a](A))",
		"SELECT a.x AS k -> π[k ← a.x]: π[k ← a.x](σ[a.x > 1](ρ[a](A)))",
		"FROM B -> (B): (B)",
		"FROM C -> (C): (C)",
		"CROSS JOIN -> ×: B × C",
		"RENAME bc -> ρ[bc]: ρ[bc](B × C)",
		"SELECT bc.x -> π[bc.x]: π[bc.x](ρ[bc](B × C))",
		"EXCEPT -> −: π[k ← a.x](σ[a.x > 1](ρ[a](A))) − π[bc.x](ρ[bc](B × C))",
	}, lines)
	assert.Equal(t, steps[len(steps)-1].Snapshot, ar.Print(out))
}

func TestConvertWithTraceJoinSteps(t *testing.T) {
	_, steps, err := ConvertWithTrace(canonical(t, "SELECT name FROM Users WHERE id IN (SELECT user_id FROM Orders WHERE total > 100)"))
	require.NoError(t, err)
	require.Len(t, steps, 4)

	on := "Users.id = Orders.user_id AND Orders.total > 100"
	assert.Equal(t, Step{Label: "FROM Users", Header: "(Users)", Snapshot: "(Users)"}, steps[0])
	assert.Equal(t, Step{Label: "FROM Orders", Header: "(Orders)", Snapshot: "(Orders)"}, steps[1])
	assert.Equal(t, Step{Label: "JOIN ON " + on, Header: "⋈[" + on + "]", Snapshot: "Users ⋈[" + on + "] Orders"}, steps[2])
	assert.Equal(t, "SELECT Users.name", steps[3].Label)
}

func TestConvertWithoutTraceRecordsNothing(t *testing.T) {
	c := &converter{}
	_, err := c.rel(core.Table{Name: "Users"})
	require.NoError(t, err)
	assert.Empty(t, c.steps)
}
