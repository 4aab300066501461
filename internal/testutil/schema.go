package testutil

import "github.com/roach88/sqlra/internal/schema"

// ShopSchema is the schema most tests translate against:
//
//	Users(id INT pk, name VARCHAR(40), age INT)
//	Orders(id INT pk, user_id INT -> Users.id, total DECIMAL(10,2))
//	A(x INT pk, y VARCHAR(10))
//	B(x INT pk, z VARCHAR(10))
//	C(p INT pk, q VARCHAR(10))
//	D(x VARCHAR(10) pk, w INT)
//	T1(a INT pk, b VARCHAR(10))
//	T2(c INT pk, d DATE)
//
// A fresh value is returned on every call so tests may modify it.
func ShopSchema() *schema.Schema {
	return &schema.Schema{Tables: []schema.Table{
		{Name: "Users", Columns: []schema.Column{
			{Name: "id", Type: "INT", PrimaryKey: true},
			{Name: "name", Type: "VARCHAR(40)"},
			{Name: "age", Type: "INT"},
		}},
		{Name: "Orders", Columns: []schema.Column{
			{Name: "id", Type: "INT", PrimaryKey: true},
			{Name: "user_id", Type: "INT", ForeignKey: &schema.ForeignKey{ReferencedTable: "Users", ReferencedColumn: "id"}},
			{Name: "total", Type: "DECIMAL(10,2)"},
		}},
		{Name: "A", Columns: []schema.Column{
			{Name: "x", Type: "INT", PrimaryKey: true},
			{Name: "y", Type: "VARCHAR(10)"},
		}},
		{Name: "B", Columns: []schema.Column{
			{Name: "x", Type: "INT", PrimaryKey: true},
			{Name: "z", Type: "VARCHAR(10)"},
		}},
		{Name: "C", Columns: []schema.Column{
			{Name: "p", Type: "INT", PrimaryKey: true},
			{Name: "q", Type: "VARCHAR(10)"},
		}},
		{Name: "D", Columns: []schema.Column{
			{Name: "x", Type: "VARCHAR(10)", PrimaryKey: true},
			{Name: "w", Type: "INT"},
		}},
		{Name: "T1", Columns: []schema.Column{
			{Name: "a", Type: "INT", PrimaryKey: true},
			{Name: "b", Type: "VARCHAR(10)"},
		}},
		{Name: "T2", Columns: []schema.Column{
			{Name: "c", Type: "INT", PrimaryKey: true},
			{Name: "d", Type: "DATE"},
		}},
	}}
}

// ShopIndex returns an Index over ShopSchema.
func ShopIndex() *schema.Index {
	return schema.NewIndex(ShopSchema())
}
