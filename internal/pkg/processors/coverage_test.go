package processors

import (
	"testing"

	"github.com/duality-lang/duality/internal/pkg/common"
)

func TestMissingConstructorIsNamed(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.not: Bool { T => F }
	`)
	ce := wantDiag(t, errs, common.KindPatternCoverage, common.IssueMissingTag)
	if len(ce.Tags) != 1 || ce.Tags[0] != "F" {
		t.Errorf("diagnostic should name the absent constructor F, got %v", ce.Tags)
	}
}

func TestMissingConstructorsReportedInDeclarationOrder(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Shape { Circle, Square, Triangle }
		def Shape.sides: Shape { Square => Square }
	`)
	ce := wantDiag(t, errs, common.KindPatternCoverage, common.IssueMissingTag)
	if len(ce.Tags) != 2 || ce.Tags[0] != "Circle" || ce.Tags[1] != "Triangle" {
		t.Errorf("want [Circle Triangle], got %v", ce.Tags)
	}
}

func TestDuplicateClause(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.not: Bool { T => F, T => T, F => T }
	`)
	ce := wantDiag(t, errs, common.KindPatternCoverage, common.IssueDuplicateClause)
	if len(ce.Tags) != 1 || ce.Tags[0] != "T" {
		t.Errorf("diagnostic should name the repeated tag T, got %v", ce.Tags)
	}
}

func TestUnexpectedTag(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		data Nat { Z, S(n: Nat) }
		def Bool.not: Bool { T => F, F => T, Z => T }
	`)
	ce := wantDiag(t, errs, common.KindPatternCoverage, common.IssueUnexpectedTag)
	if len(ce.Tags) != 1 || ce.Tags[0] != "Z" {
		t.Errorf("diagnostic should name the stray tag Z, got %v", ce.Tags)
	}
}

func TestClauseOrderIsIrrelevant(t *testing.T) {
	table := mustElaborate(t, `
		data Bool { T, F }
		def Bool.not: Bool { F => T, T => F }
	`)
	wantEval(t, table, "T.not", "F")
	wantEval(t, table, "F.not", "T")
}

func TestCopatternCoverage(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Stuck: Stream { .head => Z }
	`)
	ce := wantDiag(t, errs, common.KindCopatternCoverage, common.IssueMissingTag)
	if len(ce.Tags) != 1 || ce.Tags[0] != "tail" {
		t.Errorf("diagnostic should name the absent destructor tail, got %v", ce.Tags)
	}

	_, errs = elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Doubled: Stream { .head => Z, .head => Z, .tail => Doubled }
	`)
	wantDiag(t, errs, common.KindCopatternCoverage, common.IssueDuplicateClause)
}

func TestLocalMatchCoverage(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.same: Bool { T => T.match { T => T }, F => F }
	`)
	wantDiag(t, errs, common.KindPatternCoverage, common.IssueMissingTag)
}

func TestLocalComatchCoverage(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Wrapped: Stream {
			.head => Z,
			.tail => (comatch { .head => Z } : Stream)
		}
	`)
	wantDiag(t, errs, common.KindCopatternCoverage, common.IssueMissingTag)
}
