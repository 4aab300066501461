package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/sqlparse"
)

func build(t *testing.T, sql string) (core.Rel, error) {
	t.Helper()
	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	return Build(stmt)
}

func mustBuild(t *testing.T, sql string) core.Rel {
	t.Helper()
	rel, err := build(t, sql)
	require.NoError(t, err)
	return rel
}

func col(rel, name string) core.ColumnRef { return core.ColumnRef{Rel: rel, Name: name} }
func num(s string) core.NumberLit        { return core.NumberLit{Lexeme: s} }

func TestBuildSimpleProjection(t *testing.T) {
	rel := mustBuild(t, "SELECT name, age AS years FROM Users")

	assert.Equal(t, core.Project{
		Input: core.Table{Name: "Users"},
		Items: []core.ProjItem{
			core.ProjExpr{Expr: col("", "name")},
			core.ProjExpr{Expr: col("", "age"), Alias: "years"},
		},
	}, rel)
}

func TestBuildWhereAndWildcards(t *testing.T) {
	rel := mustBuild(t, "SELECT *, u.* FROM Users u WHERE u.age >= 18 AND name IS NOT NULL")

	assert.Equal(t, core.Project{
		Input: core.Select{
			Input: core.Alias{Input: core.Table{Name: "Users"}, Name: "u"},
			Pred: core.And{
				A: core.Cmp{Left: col("u", "age"), Op: core.GTE, Right: num("18")},
				B: core.Cmp{Left: col("", "name"), Op: core.NEQ, Right: core.NullLit{}},
			},
		},
		Items: []core.ProjItem{core.ProjAll{}, core.ProjAllFrom{Rel: "u"}},
	}, rel)
}

func TestBuildJoins(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want core.Rel
	}{
		{
			name: "comma",
			sql:  "SELECT * FROM A, B",
			want: core.Product{Left: core.Table{Name: "A"}, Right: core.Table{Name: "B"}},
		},
		{
			name: "cross",
			sql:  "SELECT * FROM A CROSS JOIN B",
			want: core.Product{Left: core.Table{Name: "A"}, Right: core.Table{Name: "B"}},
		},
		{
			name: "natural",
			sql:  "SELECT * FROM A NATURAL JOIN B",
			want: core.NaturalJoin{Left: core.Table{Name: "A"}, Right: core.Table{Name: "B"}},
		},
		{
			name: "inner on",
			sql:  "SELECT * FROM A INNER JOIN B ON A.x = B.x AND B.y > 1",
			want: core.Join{
				Left:  core.Table{Name: "A"},
				Right: core.Table{Name: "B"},
				On: core.And{
					A: core.Cmp{Left: col("A", "x"), Op: core.EQ, Right: col("B", "x")},
					B: core.Cmp{Left: col("B", "y"), Op: core.GT, Right: num("1")},
				},
			},
		},
		{
			name: "join without on",
			sql:  "SELECT * FROM A JOIN B",
			want: core.Product{Left: core.Table{Name: "A"}, Right: core.Table{Name: "B"}},
		},
		{
			name: "parenthesized join",
			sql:  "SELECT * FROM A, (B NATURAL JOIN C)",
			want: core.Product{
				Left:  core.Table{Name: "A"},
				Right: core.NaturalJoin{Left: core.Table{Name: "B"}, Right: core.Table{Name: "C"}},
			},
		},
		{
			name: "left deep chain",
			sql:  "SELECT * FROM A, B NATURAL JOIN C",
			want: core.NaturalJoin{
				Left:  core.Product{Left: core.Table{Name: "A"}, Right: core.Table{Name: "B"}},
				Right: core.Table{Name: "C"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := mustBuild(t, tt.sql)
			proj, ok := rel.(core.Project)
			require.True(t, ok)
			assert.Equal(t, tt.want, proj.Input)
		})
	}
}

func TestBuildPredicates(t *testing.T) {
	tests := []struct {
		name  string
		where string
		want  core.Pred
	}{
		{
			name:  "between",
			where: "a BETWEEN 1 AND 5",
			want:  core.Between{Value: col("", "a"), Low: num("1"), High: num("5")},
		},
		{
			name:  "not between",
			where: "a NOT BETWEEN 1 AND 5",
			want:  core.Not{A: core.Between{Value: col("", "a"), Low: num("1"), High: num("5")}},
		},
		{
			name:  "in list",
			where: "a IN (1, 2)",
			want:  core.InList{Left: col("", "a"), Values: []core.Expr{num("1"), num("2")}},
		},
		{
			name:  "not in list",
			where: "a NOT IN ('x')",
			want:  core.Not{A: core.InList{Left: col("", "a"), Values: []core.Expr{core.StringLit{Value: "x"}}}},
		},
		{
			name:  "parens unwrap and or",
			where: "(a = 1 OR b <> 2) AND NOT c < 3",
			want: core.And{
				A: core.Or{
					A: core.Cmp{Left: col("", "a"), Op: core.EQ, Right: num("1")},
					B: core.Cmp{Left: col("", "b"), Op: core.NEQ, Right: num("2")},
				},
				B: core.Not{A: core.Cmp{Left: col("", "c"), Op: core.LT, Right: num("3")}},
			},
		},
		{
			name:  "bang equals",
			where: "a != b",
			want:  core.Cmp{Left: col("", "a"), Op: core.NEQ, Right: col("", "b")},
		},
		{
			name:  "is null",
			where: "a IS NULL",
			want:  core.Cmp{Left: col("", "a"), Op: core.EQ, Right: core.NullLit{}},
		},
		{
			name:  "arithmetic",
			where: "(a + 1) * -b <= 10",
			want: core.Cmp{
				Left: core.BinaryArith{
					Op:    core.Mul,
					Left:  core.Paren{Inner: core.BinaryArith{Op: core.Add, Left: col("", "a"), Right: num("1")}},
					Right: core.UnaryArith{Op: core.Sub, Operand: col("", "b")},
				},
				Op:    core.LTE,
				Right: num("10"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := mustBuild(t, "SELECT * FROM T WHERE "+tt.where)
			sel := rel.(core.Project).Input.(core.Select)
			assert.Equal(t, tt.want, sel.Pred)
		})
	}
}

func TestBuildLiterals(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  core.Expr
	}{
		{"integer", "42", num("42")},
		{"integer beyond float precision", "9007199254740993", num("9007199254740993")},
		{"decimal", "1.5", num("1.5")},
		{"string with doubled quote", "'it''s'", core.StringLit{Value: "it's"}},
		{"null", "NULL", core.NullLit{}},
		{"negative number", "-3", core.UnaryArith{Op: core.Sub, Operand: num("3")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := mustBuild(t, "SELECT * FROM T WHERE a = "+tt.value)
			cmp := rel.(core.Project).Input.(core.Select).Pred.(core.Cmp)
			assert.Equal(t, tt.want, cmp.Right)
		})
	}
}

func TestBuildSubqueries(t *testing.T) {
	rel := mustBuild(t, "SELECT name FROM Users WHERE id IN (SELECT user_id FROM Orders WHERE total > 100)")
	sel := rel.(core.Project).Input.(core.Select)

	assert.Equal(t, core.InSubselect{
		Left: col("", "id"),
		Sub: core.Subselect{
			From:  core.Table{Name: "Orders"},
			Item:  core.ProjExpr{Expr: col("", "user_id")},
			Where: core.Cmp{Left: col("", "total"), Op: core.GT, Right: num("100")},
		},
	}, sel.Pred)

	rel = mustBuild(t, "SELECT name FROM Users u WHERE EXISTS (SELECT * FROM Orders o WHERE o.user_id = u.id)")
	sel = rel.(core.Project).Input.(core.Select)
	exists, ok := sel.Pred.(core.Exists)
	require.True(t, ok)
	assert.Equal(t, core.ProjExpr{Expr: num("1")}, exists.Sub.Item)
	assert.Equal(t, core.Alias{Input: core.Table{Name: "Orders"}, Name: "o"}, exists.Sub.From)
}

func TestBuildSetOperationPrecedence(t *testing.T) {
	a := core.Project{Input: core.Table{Name: "A"}, Items: []core.ProjItem{core.ProjExpr{Expr: col("", "x")}}}
	b := core.Project{Input: core.Table{Name: "B"}, Items: []core.ProjItem{core.ProjExpr{Expr: col("", "x")}}}
	c := core.Project{Input: core.Table{Name: "C"}, Items: []core.ProjItem{core.ProjExpr{Expr: col("", "x")}}}
	d := core.Project{Input: core.Table{Name: "D"}, Items: []core.ProjItem{core.ProjExpr{Expr: col("", "x")}}}

	tests := []struct {
		name string
		sql  string
		want core.Rel
	}{
		{
			name: "intersect binds tighter",
			sql:  "SELECT x FROM A UNION SELECT x FROM B INTERSECT SELECT x FROM C",
			want: core.Union{Left: a, Right: core.Intersect{Left: b, Right: c}},
		},
		{
			name: "left associative union and except",
			sql:  "SELECT x FROM A EXCEPT SELECT x FROM B UNION SELECT x FROM C",
			want: core.Union{Left: core.Except{Left: a, Right: b}, Right: c},
		},
		{
			name: "intersect chain then except",
			sql:  "SELECT x FROM A INTERSECT SELECT x FROM B INTERSECT SELECT x FROM C EXCEPT SELECT x FROM D",
			want: core.Except{
				Left:  core.Intersect{Left: core.Intersect{Left: a, Right: b}, Right: c},
				Right: d,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustBuild(t, tt.sql))
		})
	}
}

func TestBuildDistinctIsAccepted(t *testing.T) {
	assert.Equal(t, mustBuild(t, "SELECT a FROM T"), mustBuild(t, "SELECT DISTINCT a FROM T"))
}

func TestBuildRejections(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"INSERT INTO T VALUES (1)", "unsupported statement: INSERT"},
		{"SELECT a FROM T UNION ALL SELECT a FROM U", "UNION ALL is not supported"},
		{"SELECT a FROM (SELECT a FROM T) s", MsgSubqueryPlacement},
		{"SELECT (SELECT 1 FROM U) FROM T", MsgSubqueryPlacement},
		{"SELECT a FROM T WHERE a NOT IN (SELECT b FROM U)", MsgNotInSubquery},
		{"SELECT a FROM T WHERE NOT EXISTS (SELECT b FROM U)", MsgNotExists},
		{"SELECT a FROM T WHERE a IN (SELECT b FROM U WHERE b IN (SELECT c FROM V))", MsgSubqueryPlacement},
		{"SELECT a FROM T JOIN U ON T.a IN (SELECT c FROM V)", "subqueries are not allowed in JOIN conditions"},
		{"SELECT a FROM T WHERE a IN (SELECT b, c FROM U)", "subquery must project exactly one expression"},
		{"SELECT a FROM T WHERE a IN (SELECT * FROM U)", "subquery must project exactly one expression"},
		{"SELECT a FROM T WHERE a IN (SELECT b FROM U UNION SELECT c FROM V)", "subquery must be a single SELECT"},
		{"SELECT a FROM T LEFT JOIN U ON T.a = U.a", "OUTER JOIN is not supported: LEFT JOIN"},
		{"SELECT a FROM T RIGHT OUTER JOIN U ON T.a = U.a", "OUTER JOIN is not supported: RIGHT JOIN"},
		{"SELECT a FROM T JOIN U USING (a)", MsgJoinUsing},
		{"SELECT a FROM T WHERE a <=> 1", "<=> is not supported"},
		{"SELECT a FROM T UNION SELECT a FROM U ORDER BY a", "ORDER BY is not supported"},
		{"WITH w AS (SELECT a FROM T) SELECT a FROM w", "WITH is not supported"},
		{"SELECT a FROM T GROUP BY a", "GROUP BY is not supported"},
		{"SELECT a FROM T ORDER BY a", "ORDER BY is not supported"},
		{"SELECT a FROM T LIMIT 1", "LIMIT is not supported"},
		{"SELECT a FROM T WHERE a LIKE 'x%'", "LIKE is not supported"},
		{"SELECT COUNT(*) FROM T", "function calls and aggregates are not supported: COUNT"},
		{"SELECT 1", "SELECT without FROM is not supported"},
		{"SELECT a FROM T WHERE a + 1", `expected a condition, got arithmetic expression with "+"`},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			rel, err := build(t, tt.sql)
			require.Error(t, err)
			assert.Nil(t, rel)
			assert.True(t, IsError(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
