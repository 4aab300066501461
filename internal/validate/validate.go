// Package validate performs the schema-aware semantic checks over canonical
// Core IR.
//
// The validator never stops at the first problem. It walks the whole tree,
// recomputing visibility bottom-up at every node, and appends each finding
// to a diag.Result. It never modifies the tree.
package validate

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/scope"
)

// maxHintDistance bounds the edit distance of "did you mean" suggestions.
const maxHintDistance = 2

type validator struct {
	idx *schema.Index
	res *diag.Result
}

// Validate checks rel against idx and returns every diagnostic found.
func Validate(rel core.Rel, idx *schema.Index) *diag.Result {
	v := &validator{idx: idx, res: diag.New()}
	v.rel(rel)
	return v.res
}

func (v *validator) logic(format string, args ...any) {
	v.res.AddError(diag.KindLogic, format, args...)
}

func (v *validator) syntax(format string, args ...any) {
	v.res.AddError(diag.KindSyntax, format, args...)
}

func (v *validator) rel(r core.Rel) {
	switch r := r.(type) {
	case core.Table:
		v.table(r)

	case core.Alias:
		v.rel(r.Input)
		if isBlank(r.Name) {
			v.syntax("Alias name must not be blank.")
		}

	case core.Project:
		v.rel(r.Input)
		v.project(r)

	case core.Select:
		v.rel(r.Input)
		if r.Pred == nil {
			v.res.AddWarning("Selection without a predicate is treated as TRUE.")
			return
		}
		v.pred(r.Pred, scope.Of(r.Input, v.idx))

	case core.Product:
		v.binary(r.Left, r.Right)

	case core.Join:
		v.binary(r.Left, r.Right)
		if r.On == nil {
			v.res.AddWarning("Join without a condition is treated as TRUE.")
			return
		}
		if core.ContainsSubselect(r.On) {
			v.logic("Subqueries are allowed only in the outer WHERE, not in ON.")
			return
		}
		v.pred(r.On, scope.Of(r, v.idx))

	case core.NaturalJoin:
		v.binary(r.Left, r.Right)
		v.naturalJoin(r)

	case core.Union:
		v.setOp("UNION", r.Left, r.Right)
	case core.Intersect:
		v.setOp("INTERSECT", r.Left, r.Right)
	case core.Except:
		v.setOp("EXCEPT", r.Left, r.Right)

	default:
		v.logic("Unsupported relation node: %T", r)
	}
}

func (v *validator) table(t core.Table) {
	if isBlank(t.Name) {
		v.syntax("Table name must not be blank.")
		return
	}
	if v.idx.HasTable(t.Name) {
		return
	}
	v.logic("Table not found: %s%s", t.Name, hint(t.Name, v.idx.TableNames()))
}

// binary validates both inputs of a product or join and warns when a name
// on the right is hidden by the same name on the left.
func (v *validator) binary(left, right core.Rel) {
	v.rel(left)
	v.rel(right)
	for _, name := range scope.Shadowed(scope.Of(left, v.idx), scope.Of(right, v.idx)) {
		v.res.AddWarning("Relation name %s appears more than once; only the first one is visible.", name)
	}
}

func (v *validator) project(p core.Project) {
	if len(p.Items) == 0 {
		v.logic("Projection must not be empty.")
		return
	}
	vis := scope.Of(p.Input, v.idx)
	for _, it := range p.Items {
		switch it := it.(type) {
		case core.ProjAll:
			if len(vis) > 0 {
				v.logic("Wildcard was not expanded.")
			}
		case core.ProjAllFrom:
			switch {
			case isBlank(it.Rel):
				v.syntax("Qualified wildcard without a relation name.")
			case len(vis) == 0:
			default:
				if _, ok := vis.Lookup(it.Rel); !ok {
					v.logic("Relation not found in FROM: %s%s", it.Rel, hint(it.Rel, vis.Names()))
				} else {
					v.logic("Wildcard %s.* was not expanded.", it.Rel)
				}
			}
		case core.ProjExpr:
			v.expr(it.Expr, vis, true)
		default:
			v.logic("Unsupported projection item: %T", it)
		}
	}
}

func (v *validator) naturalJoin(j core.NaturalJoin) {
	left := columnsOf(scope.Of(j.Left, v.idx))
	right := columnsOf(scope.Of(j.Right, v.idx))
	if len(left) == 0 || len(right) == 0 {
		return
	}

	shared := 0
	for _, lc := range left {
		for _, rc := range right {
			if schema.Fold(lc.Name) != schema.Fold(rc.Name) {
				continue
			}
			shared++
			lcat, rcat := schema.CategoryOf(lc.Type), schema.CategoryOf(rc.Type)
			if lcat != rcat {
				v.logic("NATURAL JOIN column %s has incompatible types: %s vs %s.", lc.Name, lcat, rcat)
			}
		}
	}
	if shared == 0 {
		v.logic("NATURAL JOIN between %s and %s has no common columns.",
			relName(j.Left, v.idx), relName(j.Right, v.idx))
	}
}

func (v *validator) setOp(op string, left, right core.Rel) {
	v.rel(left)
	v.rel(right)

	lt, lok := v.outputTypes(left)
	rt, rok := v.outputTypes(right)
	if !lok || !rok {
		return
	}
	if len(lt) != len(rt) {
		v.logic("%s operands must have the same number of columns (%d vs %d).", op, len(lt), len(rt))
		return
	}
	for i := range lt {
		if !Comparable(lt[i], rt[i]) {
			v.logic("%s column %d has incompatible types: %s vs %s.", op, i+1, lt[i], rt[i])
		}
	}
}

// outputTypes returns the coarse type of each output column of r, or false
// when r still has an unexpanded wildcard.
func (v *validator) outputTypes(r core.Rel) ([]Type, bool) {
	switch r := r.(type) {
	case core.Project:
		vis := scope.Of(r.Input, v.idx)
		types := make([]Type, 0, len(r.Items))
		for _, it := range r.Items {
			pe, ok := it.(core.ProjExpr)
			if !ok {
				return nil, false
			}
			types = append(types, v.expr(pe.Expr, vis, false))
		}
		return types, true
	case core.Union:
		return v.outputTypes(r.Left)
	case core.Intersect:
		return v.outputTypes(r.Left)
	case core.Except:
		return v.outputTypes(r.Left)
	case core.Select:
		return v.outputTypes(r.Input)
	case core.Alias:
		return v.outputTypes(r.Input)
	default:
		cols := columnsOf(scope.Of(r, v.idx))
		if len(cols) == 0 {
			return nil, false
		}
		types := make([]Type, 0, len(cols))
		for _, c := range cols {
			types = append(types, typeOfColumn(c.Type))
		}
		return types, true
	}
}

// columnsOf lists every visible column once, in visibility order.
func columnsOf(vis scope.Visibility) []schema.Column {
	seen := map[string]bool{}
	var cols []schema.Column
	for _, s := range vis {
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

func relName(r core.Rel, idx *schema.Index) string {
	names := scope.Of(r, idx).Names()
	if len(names) == 1 {
		return names[0]
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// hint suggests the closest candidate within maxHintDistance.
func hint(name string, candidates []string) string {
	best, bestDist := "", maxHintDistance+1
	key := schema.Fold(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(key, schema.Fold(c))
		if d > 0 && d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %s?)", best)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func columnNames(cols []schema.Column) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}
