package schema

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// LoadSQLite introspects the user tables of an existing SQLite database.
// Tables keep their creation order and columns their declaration order.
// A foreign key declared without a target column resolves to the
// referenced table's primary key.
func LoadSQLite(path string) (*Schema, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite schema: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite schema: %w", err)
	}
	defer db.Close()

	return introspect(db)
}

func introspect(db *sql.DB) (*Schema, error) {
	names, err := tableNames(db)
	if err != nil {
		return nil, err
	}

	s := &Schema{}
	for _, name := range names {
		t, err := introspectTable(db, name)
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, t)
	}
	resolveImplicitReferences(s)
	return s, nil
}

func tableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func introspectTable(db *sql.DB, name string) (Table, error) {
	t := Table{Name: name}

	rows, err := db.Query(`SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return t, fmt.Errorf("table info %s: %w", name, err)
	}
	for rows.Next() {
		var c Column
		var pk int
		if err := rows.Scan(&c.Name, &c.Type, &pk); err != nil {
			rows.Close()
			return t, fmt.Errorf("scan column of %s: %w", name, err)
		}
		c.PrimaryKey = pk > 0
		t.Columns = append(t.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return t, fmt.Errorf("table info %s: %w", name, err)
	}

	fks, err := db.Query(`SELECT "from", "table", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name)
	if err != nil {
		return t, fmt.Errorf("foreign keys of %s: %w", name, err)
	}
	defer fks.Close()
	for fks.Next() {
		var from, table string
		var to sql.NullString
		if err := fks.Scan(&from, &table, &to); err != nil {
			return t, fmt.Errorf("scan foreign key of %s: %w", name, err)
		}
		for i := range t.Columns {
			if Fold(t.Columns[i].Name) == Fold(from) {
				t.Columns[i].ForeignKey = &ForeignKey{ReferencedTable: table, ReferencedColumn: to.String}
			}
		}
	}
	return t, fks.Err()
}

func resolveImplicitReferences(s *Schema) {
	for ti := range s.Tables {
		for ci := range s.Tables[ti].Columns {
			fk := s.Tables[ti].Columns[ci].ForeignKey
			if fk == nil || fk.ReferencedColumn != "" {
				continue
			}
			ref, ok := findTable(s, fk.ReferencedTable)
			if !ok {
				continue
			}
			for _, c := range ref.Columns {
				if c.PrimaryKey {
					fk.ReferencedColumn = c.Name
					break
				}
			}
		}
	}
}
