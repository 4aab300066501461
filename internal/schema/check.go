package schema

import (
	"strings"

	"github.com/roach88/sqlra/internal/diag"
)

// Check validates the structural well-formedness of a schema description.
//
// Every problem is reported as a SYNTAX_ERROR diagnostic; Check never stops
// at the first one. Rules:
//   - at least one table
//   - every table has a non-blank, unique (case-insensitive) name
//   - every table has at least one column
//   - every column has a non-blank name, unique within its table, and a type
//   - every table has exactly one primary key column
//   - a foreign key names both a table and a column, the referenced column
//     exists and is that table's primary key, and both declared types match
func Check(s *Schema) *diag.Result {
	res := diag.New()
	if s == nil || len(s.Tables) == 0 {
		res.AddError(diag.KindSyntax, "At least one table must be defined.")
		return res
	}

	seenTables := map[string]bool{}
	for _, t := range s.Tables {
		checkTable(s, t, res)

		if isBlank(t.Name) {
			continue
		}
		key := Fold(strings.TrimSpace(t.Name))
		if seenTables[key] {
			res.AddError(diag.KindSyntax, "Duplicate table in schema: '%s'.", t.Name)
			continue
		}
		seenTables[key] = true
	}
	return res
}

func checkTable(s *Schema, t Table, res *diag.Result) {
	if isBlank(t.Name) {
		res.AddError(diag.KindSyntax, "Every table must have a valid name.")
	}
	if len(t.Columns) == 0 {
		res.AddError(diag.KindSyntax, "Table '%s' must have at least one column.", t.Name)
		return
	}

	seenColumns := map[string]bool{}
	primaryKeys := 0
	for _, c := range t.Columns {
		if isBlank(c.Name) {
			res.AddError(diag.KindSyntax, "Table '%s' has a column without a name.", t.Name)
		} else {
			key := Fold(strings.TrimSpace(c.Name))
			if seenColumns[key] {
				res.AddError(diag.KindSyntax, "Duplicate column '%s' in table '%s'.", c.Name, t.Name)
			}
			seenColumns[key] = true
		}
		if isBlank(c.Type) {
			res.AddError(diag.KindSyntax, "Column '%s' of table '%s' has no data type.", c.Name, t.Name)
		}
		if c.PrimaryKey {
			primaryKeys++
		}
		if c.ForeignKey != nil {
			checkForeignKey(s, t, c, res)
		}
	}

	switch {
	case primaryKeys == 0:
		res.AddError(diag.KindSyntax, "Table '%s' has no primary key.", t.Name)
	case primaryKeys > 1:
		res.AddError(diag.KindSyntax, "Table '%s' has more than one primary key; only one is allowed.", t.Name)
	}
}

func checkForeignKey(s *Schema, owner Table, c Column, res *diag.Result) {
	fk := c.ForeignKey
	if isBlank(fk.ReferencedTable) || isBlank(fk.ReferencedColumn) {
		res.AddError(diag.KindSyntax, "Column '%s' in table '%s' has an incomplete foreign key.", c.Name, owner.Name)
		return
	}

	ref, ok := findTable(s, fk.ReferencedTable)
	if !ok {
		res.AddError(diag.KindSyntax, "Foreign key '%s.%s' references a missing table: '%s'.",
			owner.Name, c.Name, fk.ReferencedTable)
		return
	}
	refCol, ok := findColumn(ref, fk.ReferencedColumn)
	if !ok {
		res.AddError(diag.KindSyntax, "Foreign key '%s.%s' references a missing column: '%s.%s'.",
			owner.Name, c.Name, fk.ReferencedTable, fk.ReferencedColumn)
		return
	}
	if !refCol.PrimaryKey {
		res.AddError(diag.KindSyntax, "Foreign key '%s.%s' must reference a primary key, but '%s.%s' is not one.",
			owner.Name, c.Name, fk.ReferencedTable, fk.ReferencedColumn)
	}
	src := strings.ToLower(strings.TrimSpace(c.Type))
	dst := strings.ToLower(strings.TrimSpace(refCol.Type))
	if src != "" && dst != "" && src != dst {
		res.AddError(diag.KindSyntax, "Foreign key '%s' in '%s' does not match the type of '%s.%s'.",
			c.Name, owner.Name, fk.ReferencedTable, fk.ReferencedColumn)
	}
}

func findTable(s *Schema, name string) (Table, bool) {
	key := Fold(strings.TrimSpace(name))
	for _, t := range s.Tables {
		if Fold(strings.TrimSpace(t.Name)) == key {
			return t, true
		}
	}
	return Table{}, false
}

func findColumn(t Table, name string) (Column, bool) {
	key := Fold(strings.TrimSpace(name))
	for _, c := range t.Columns {
		if Fold(strings.TrimSpace(c.Name)) == key {
			return c, true
		}
	}
	return Column{}, false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
