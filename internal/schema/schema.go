package schema

import (
	"golang.org/x/text/cases"
)

// Schema is a caller-supplied database description. Field names follow the
// request body accepted by the HTTP API.
type Schema struct {
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table is an ordered list of columns under a name.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column describes one table column. Type is the declared type string
// (e.g. "INT", "varchar(40)"), classified by CategoryOf.
type Column struct {
	Name       string      `json:"name" yaml:"name"`
	Type       string      `json:"type" yaml:"type"`
	PrimaryKey bool        `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	ForeignKey *ForeignKey `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
}

// ForeignKey references a column of another table.
type ForeignKey struct {
	ReferencedTable  string `json:"referencedTable" yaml:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn" yaml:"referencedColumn"`
}

// Index answers case-insensitive table and column lookups over a Schema.
//
// An Index is built once per request and never mutated afterwards, so it is
// safe for concurrent readers. When two tables (or two columns of one
// table) fold to the same key, the first one wins; Check reports such
// duplicates before an Index is normally built.
type Index struct {
	tables map[string]*indexedTable
	order  []string
}

type indexedTable struct {
	table   Table
	columns map[string]Column
}

// Fold returns the case-folded lookup key for an identifier.
func Fold(name string) string {
	return cases.Fold().String(name)
}

// NewIndex builds an Index over s. A nil schema yields an empty index.
func NewIndex(s *Schema) *Index {
	idx := &Index{tables: map[string]*indexedTable{}}
	if s == nil {
		return idx
	}
	for _, t := range s.Tables {
		key := Fold(t.Name)
		if _, dup := idx.tables[key]; dup {
			continue
		}
		it := &indexedTable{table: t, columns: make(map[string]Column, len(t.Columns))}
		for _, c := range t.Columns {
			ck := Fold(c.Name)
			if _, dup := it.columns[ck]; dup {
				continue
			}
			it.columns[ck] = c
		}
		idx.tables[key] = it
		idx.order = append(idx.order, key)
	}
	return idx
}

// HasTable reports whether a table with the given name exists.
func (i *Index) HasTable(name string) bool {
	_, ok := i.tables[Fold(name)]
	return ok
}

// Table returns the table with the given name.
func (i *Index) Table(name string) (Table, bool) {
	it, ok := i.tables[Fold(name)]
	if !ok {
		return Table{}, false
	}
	return it.table, true
}

// Columns returns the declared columns of a table in schema order, or nil
// when the table does not exist.
func (i *Index) Columns(table string) []Column {
	it, ok := i.tables[Fold(table)]
	if !ok {
		return nil
	}
	return it.table.Columns
}

// Column looks up one column of a table.
func (i *Index) Column(table, column string) (Column, bool) {
	it, ok := i.tables[Fold(table)]
	if !ok {
		return Column{}, false
	}
	c, ok := it.columns[Fold(column)]
	return c, ok
}

// HasColumn reports whether table has column.
func (i *Index) HasColumn(table, column string) bool {
	_, ok := i.Column(table, column)
	return ok
}

// ColumnType returns the declared type string of table.column.
func (i *Index) ColumnType(table, column string) (string, bool) {
	c, ok := i.Column(table, column)
	if !ok {
		return "", false
	}
	return c.Type, true
}

// TableNames returns table names as declared, in schema order.
func (i *Index) TableNames() []string {
	names := make([]string, 0, len(i.order))
	for _, key := range i.order {
		names = append(names, i.tables[key].table.Name)
	}
	return names
}
