// Package normalize rewrites raw Core IR into canonical form.
//
// Canonical Core contains no BETWEEN, no IN/EXISTS subselects and no
// wildcards over known sources. Subselect predicates in a WHERE clause are
// lifted into joins against the subquery's FROM tree; columns taking part
// in a lifted WHERE are qualified against the query scope so that the
// join-enriched input cannot make them ambiguous.
//
// Normalization fails fast with an *Error on constructs that need
// anti-join semantics or on an ambiguous column met during qualification.
package normalize

import (
	"errors"
	"fmt"

	"github.com/roach88/sqlra/internal/core"
	"github.com/roach88/sqlra/internal/schema"
	"github.com/roach88/sqlra/internal/scope"
)

// Error reports a construct the normalizer cannot rewrite.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// IsError reports whether err is a normalization failure.
func IsError(err error) bool {
	var ne *Error
	return errors.As(err, &ne)
}

func fail(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Normalizer holds the schema used to resolve visibility.
type Normalizer struct {
	idx *schema.Index
}

// New returns a Normalizer over idx.
func New(idx *schema.Index) *Normalizer {
	return &Normalizer{idx: idx}
}

// Normalize rewrites rel bottom-up: every node's inputs are normalized
// before the node itself.
func (n *Normalizer) Normalize(rel core.Rel) (core.Rel, error) {
	switch r := rel.(type) {
	case core.Table:
		return r, nil

	case core.Alias:
		in, err := n.Normalize(r.Input)
		if err != nil {
			return nil, err
		}
		return core.Alias{Input: in, Name: r.Name}, nil

	case core.Project:
		return n.project(r)

	case core.Select:
		return n.selection(r)

	case core.Product:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		return core.Product{Left: l, Right: rr}, nil

	case core.Join:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		if core.ContainsSubselect(r.On) {
			return nil, fail("subqueries are not allowed in JOIN conditions")
		}
		on, err := desugar(r.On)
		if err != nil {
			return nil, err
		}
		return core.Join{Left: l, Right: rr, On: on}, nil

	case core.NaturalJoin:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		return core.NaturalJoin{Left: l, Right: rr}, nil

	case core.Union:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		return core.Union{Left: l, Right: rr}, nil

	case core.Intersect:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		return core.Intersect{Left: l, Right: rr}, nil

	case core.Except:
		l, rr, err := n.pair(r.Left, r.Right)
		if err != nil {
			return nil, err
		}
		return core.Except{Left: l, Right: rr}, nil

	default:
		return nil, fail("unexpected relation %T", rel)
	}
}

func (n *Normalizer) pair(left, right core.Rel) (core.Rel, core.Rel, error) {
	l, err := n.Normalize(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := n.Normalize(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// project expands wildcards against what the query itself can see. Tables
// pulled in by lifting are not part of that scope, so visibility is taken
// from the input before it is normalized.
func (n *Normalizer) project(p core.Project) (core.Rel, error) {
	vis := scope.Of(p.Input, n.idx)
	lifted := liftsSubselects(p.Input)

	in, err := n.Normalize(p.Input)
	if err != nil {
		return nil, err
	}

	items := make([]core.ProjItem, 0, len(p.Items))
	for _, it := range p.Items {
		switch it := it.(type) {
		case core.ProjAll:
			if len(vis) == 0 {
				items = append(items, it)
				continue
			}
			for _, src := range vis {
				items = append(items, expandSource(src)...)
			}
		case core.ProjAllFrom:
			src, ok := vis.Lookup(it.Rel)
			if !ok {
				items = append(items, it)
				continue
			}
			items = append(items, expandSource(src)...)
		case core.ProjExpr:
			if lifted {
				e, err := qualifyExpr(it.Expr, vis)
				if err != nil {
					return nil, err
				}
				it.Expr = e
			}
			items = append(items, it)
		}
	}
	return core.Project{Input: in, Items: items}, nil
}

func expandSource(src scope.Source) []core.ProjItem {
	items := make([]core.ProjItem, 0, len(src.Columns))
	for _, c := range src.Columns {
		items = append(items, core.ProjExpr{Expr: core.ColumnRef{Rel: src.Name, Name: c.Name}})
	}
	return items
}

func liftsSubselects(rel core.Rel) bool {
	sel, ok := rel.(core.Select)
	return ok && core.ContainsSubselect(sel.Pred)
}

func (n *Normalizer) selection(s core.Select) (core.Rel, error) {
	in, err := n.Normalize(s.Input)
	if err != nil {
		return nil, err
	}

	if !core.ContainsSubselect(s.Pred) {
		pred, err := desugar(s.Pred)
		if err != nil {
			return nil, err
		}
		return core.Select{Input: in, Pred: pred}, nil
	}

	l := &lifter{n: n, outer: scope.Of(s.Input, n.idx)}
	enriched, residual, err := l.lift(s.Pred, in)
	if err != nil {
		return nil, err
	}
	if residual == nil {
		return enriched, nil
	}
	residual, err = qualifyPred(residual, l.outer)
	if err != nil {
		return nil, err
	}
	residual, err = desugar(residual)
	if err != nil {
		return nil, err
	}
	if core.IsTrue(residual) {
		return enriched, nil
	}
	return core.Select{Input: enriched, Pred: residual}, nil
}
