package processors

import (
	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
	set "github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
)

// checkCoverage verifies that every def covers the constructors of its
// scrutinee type exactly, and every codef the destructors of its result
// type. Coverage is a set-equality check; clause order only matters for
// how diagnostics are phrased.
func checkCoverage(table *typed.Table, work []declWork) []error {
	var errs []error
	for _, w := range work {
		switch {
		case w.def != nil:
			decl, err := table.Data(w.def.Scrutinee)
			if err != nil {
				continue // already reported during signature resolution
			}
			errs = append(errs, checkClauseSet(
				common.KindPatternCoverage, w.def.Location, w.def.Clauses, decl.CtorNames())...)
		case w.codef != nil:
			decl, err := table.Codata(w.codef.Result)
			if err != nil {
				continue
			}
			errs = append(errs, checkClauseSet(
				common.KindCopatternCoverage, w.codef.Location, w.codef.Clauses, decl.DtorNames())...)
		}
	}
	return errs
}

// checkClauseSet compares the clause tags of one definition (or local
// match/comatch) against the declared tag list of the matched type.
// Also used by the definition elaborator for local case analyses.
func checkClauseSet(kind common.Kind, loc ast.Location, clauses []source.Clause, declared []ast.Identifier) []error {
	var errs []error

	declaredSet := set.From(declared)
	seen := set.New[ast.Identifier](len(clauses))
	for _, c := range clauses {
		if seen.Contains(c.Tag) {
			errs = append(errs, common.NewCoverageError(kind, common.IssueDuplicateClause,
				c.Location, []ast.Identifier{c.Tag}, "more than one clause for the same tag"))
			continue
		}
		seen.Insert(c.Tag)
		if !declaredSet.Contains(c.Tag) {
			errs = append(errs, common.NewCoverageError(kind, common.IssueUnexpectedTag,
				c.Location, []ast.Identifier{c.Tag}, "tag does not belong to the matched type"))
		}
	}

	// missing tags reported in declaration order, not set order
	missing := declaredSet.Difference(seen)
	if missing.Size() > 0 {
		names := lo.Filter(declared, func(tag ast.Identifier, _ int) bool {
			return missing.Contains(tag)
		})
		errs = append(errs, common.NewCoverageError(kind, common.IssueMissingTag,
			loc, names, "clause set does not cover the matched type"))
	}
	return errs
}
