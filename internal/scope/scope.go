// Package scope computes which relation names, and which of their columns,
// are visible at a node of a Core tree.
package scope

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/schema"
)

// Source is one visible relation: a table under its written name or alias.
type Source struct {
	Name    string
	Columns []schema.Column
}

// Has reports whether the source exposes column (case-insensitive).
func (s Source) Has(column string) bool {
	_, ok := s.Column(column)
	return ok
}

// Column returns the named column of the source.
func (s Source) Column(column string) (schema.Column, bool) {
	key := schema.Fold(column)
	for _, c := range s.Columns {
		if schema.Fold(c.Name) == key {
			return c, true
		}
	}
	return schema.Column{}, false
}

// Visibility is an ordered list of sources with distinct folded names.
type Visibility []Source

// Of computes the visibility of rel bottom-up. A Table contributes its
// schema columns (nothing when the table is unknown); an Alias renames what
// its input exposes; Project and Select pass their input through; products
// and joins concatenate both sides with the first source winning on a name
// collision; set operations expose their left branch.
func Of(rel core.Rel, idx *schema.Index) Visibility {
	switch r := rel.(type) {
	case core.Table:
		t, ok := idx.Table(r.Name)
		if !ok {
			return nil
		}
		return Visibility{{Name: r.Name, Columns: t.Columns}}
	case core.Alias:
		inner := Of(r.Input, idx)
		if len(inner) == 0 {
			return nil
		}
		return Visibility{{Name: r.Name, Columns: mergeColumns(inner)}}
	case core.Project:
		return Of(r.Input, idx)
	case core.Select:
		return Of(r.Input, idx)
	case core.Product:
		return Combine(Of(r.Left, idx), Of(r.Right, idx))
	case core.Join:
		return Combine(Of(r.Left, idx), Of(r.Right, idx))
	case core.NaturalJoin:
		return Combine(Of(r.Left, idx), Of(r.Right, idx))
	case core.Union:
		return Of(r.Left, idx)
	case core.Intersect:
		return Of(r.Left, idx)
	case core.Except:
		return Of(r.Left, idx)
	default:
		return nil
	}
}

// Combine concatenates left and right; a right source whose name is
// already visible on the left is dropped.
func Combine(left, right Visibility) Visibility {
	out := make(Visibility, 0, len(left)+len(right))
	out = append(out, left...)
	for _, s := range right {
		if _, dup := out.Lookup(s.Name); dup {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Shadowed returns the names of right sources hidden by Combine.
func Shadowed(left, right Visibility) []string {
	var names []string
	for _, s := range right {
		if _, dup := left.Lookup(s.Name); dup {
			names = append(names, s.Name)
		}
	}
	return names
}

func mergeColumns(v Visibility) []schema.Column {
	if len(v) == 1 {
		return v[0].Columns
	}
	seen := map[string]bool{}
	var cols []schema.Column
	for _, s := range v {
		for _, c := range s.Columns {
			key := schema.Fold(c.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			cols = append(cols, c)
		}
	}
	return cols
}

// Lookup finds a source by name (case-insensitive).
func (v Visibility) Lookup(name string) (Source, bool) {
	key := schema.Fold(name)
	for _, s := range v {
		if schema.Fold(s.Name) == key {
			return s, true
		}
	}
	return Source{}, false
}

// Owners returns, in visibility order, the names of every source exposing
// column.
func (v Visibility) Owners(column string) []string {
	var owners []string
	for _, s := range v {
		if s.Has(column) {
			owners = append(owners, s.Name)
		}
	}
	return owners
}

// Names returns the source names in order.
func (v Visibility) Names() []string {
	names := make([]string, 0, len(v))
	for _, s := range v {
		names = append(names, s.Name)
	}
	return names
}

// AmbiguousMessage reports a column owned by more than one source.
func AmbiguousMessage(column string, owners []string) string {
	return fmt.Sprintf("Ambiguous column: %s in [%s]", column, strings.Join(owners, ", "))
}
