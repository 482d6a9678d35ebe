package processors

import (
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
	"github.com/samber/lo"
)

// forcedRef records one place where a codef's clause body forces
// another codef before producing its own observable result.
type forcedRef struct {
	name ast.Identifier
	loc  ast.Location
}

// checkProductivity guarantees that observing any codef always yields
// a result after one clause dispatch, never an unbounded unfolding.
//
// A codef occurrence in a clause body is forced when the body cannot
// produce its value without running that codef's clauses now: as the
// receiver of an observation, as the scrutinee of a local match, or as
// an argument to a def call (which may match on it immediately).
// Occurrences in result position (the clause body itself, constructor
// or codef arguments, cocase bodies of a local comatch) are guarded:
// they become suspended values that only a later observation advances.
// A cycle among forced references is exactly a definition that unfolds
// forever before answering, so it is rejected.
func checkProductivity(table *typed.Table, work []declWork) []error {
	edges := map[ast.Identifier][]forcedRef{}
	var order []ast.Identifier
	for _, w := range work {
		if w.codef == nil {
			continue
		}
		var refs []forcedRef
		for _, clause := range w.codef.Clauses {
			refs = append(refs, forcedRefs(table, clause.Body)...)
		}
		edges[w.codef.Name] = refs
		order = append(order, w.codef.Name)
	}

	var errs []error
	// one report per back edge: distinct cycles through the same codef
	// each get their own diagnostic
	type backEdge struct{ from, to ast.Identifier }
	reported := map[backEdge]struct{}{}

	// depth-first search over the forced graph; a back edge closes a
	// cycle of unguarded unfoldings
	const (
		white = iota
		grey
		black
	)
	color := map[ast.Identifier]int{}
	var visit func(name ast.Identifier, stack []ast.Identifier)
	visit = func(name ast.Identifier, stack []ast.Identifier) {
		color[name] = grey
		stack = append(stack, name)
		for _, ref := range edges[name] {
			switch color[ref.name] {
			case white:
				visit(ref.name, stack)
			case grey:
				edge := backEdge{from: name, to: ref.name}
				if _, done := reported[edge]; done {
					continue
				}
				reported[edge] = struct{}{}
				cycle := stack[lo.IndexOf(stack, ref.name):]
				errs = append(errs, common.NewError(common.KindUnguardedRecursion, ref.loc,
					"corecursive call to `%s` is not guarded by a destructor (cycle: %s)",
					ref.name, strings.Join(lo.Map(cycle, func(n ast.Identifier, _ int) string {
						return string(n)
					}), " -> ")))
			}
		}
		color[name] = black
	}
	for _, name := range order {
		if color[name] == white {
			visit(name, nil)
		}
	}
	return errs
}

// forcedRefs walks one clause body and collects every codef reference
// that evaluation of this body would force.
func forcedRefs(table *typed.Table, e source.Expression) []forcedRef {
	switch x := e.(type) {
	case source.Var, source.Universe, source.Hole:
		return nil
	case source.Apply:
		refs := lo.FlatMap(x.Args, func(a source.Expression, _ int) []forcedRef {
			return forcedRefs(table, a)
		})
		if kind, ok := table.Kind(x.Name); ok && kind == typed.DeclDef {
			// arguments handed to a def may be matched on immediately
			for _, a := range x.Args {
				if name, ok := codefHead(table, a); ok {
					refs = append(refs, forcedRef{name: name, loc: a.ExpLocation()})
				}
			}
		}
		return refs
	case source.DotApply:
		refs := forcedRefs(table, x.Receiver)
		refs = append(refs, lo.FlatMap(x.Args, func(a source.Expression, _ int) []forcedRef {
			return forcedRefs(table, a)
		})...)
		if name, ok := codefHead(table, x.Receiver); ok {
			refs = append(refs, forcedRef{name: name, loc: x.Location})
		}
		if kind, ok := table.Kind(x.Name); ok && kind == typed.DeclDef {
			for _, a := range x.Args {
				if name, ok := codefHead(table, a); ok {
					refs = append(refs, forcedRef{name: name, loc: a.ExpLocation()})
				}
			}
		}
		if cm, ok := x.Receiver.(source.Comatch); ok {
			// the selected cocase runs right now, so its forcings count
			for _, c := range cm.Cases {
				refs = append(refs, forcedRefs(table, c.Body)...)
			}
		}
		return refs
	case source.Match:
		refs := forcedRefs(table, x.On)
		if name, ok := codefHead(table, x.On); ok {
			refs = append(refs, forcedRef{name: name, loc: x.Location})
		}
		for _, c := range x.Cases {
			refs = append(refs, forcedRefs(table, c.Body)...)
		}
		return refs
	case source.Comatch:
		// cocase bodies only run under a future observation
		return nil
	case source.Anno:
		return forcedRefs(table, x.Exp)
	}
	panic(common.NewSystemError("unhandled expression %T", e))
}

// codefHead reports whether the expression is directly a codef
// reference, i.e. evaluates to a suspension of that codef.
func codefHead(table *typed.Table, e source.Expression) (ast.Identifier, bool) {
	var name ast.Identifier
	switch x := e.(type) {
	case source.Var:
		name = x.Name
	case source.Apply:
		name = x.Name
	case source.Anno:
		return codefHead(table, x.Exp)
	default:
		return "", false
	}
	if kind, ok := table.Kind(name); ok && kind == typed.DeclCodef {
		return name, true
	}
	return "", false
}
