package processors

import (
	"testing"

	"github.com/duality-lang/duality/internal/pkg/common"
	"github.com/duality-lang/duality/internal/pkg/parser"
)

func TestBodyTypeMismatch(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		data Nat { Z, S(n: Nat) }
		def Bool.not: Bool { T => F, F => Z }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestCodefClauseCheckedAgainstDestructorReturn(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		data Bool { T, F }
		codata Stream { .head: Nat, .tail: Stream }
		codef Bad: Stream { .head => T, .tail => Bad }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestDependentParameterThreading(t *testing.T) {
	// both branches elaborate at the type bound to `a`
	mustElaborate(t, `
		data Bool { T, F }
		data Nat { Z, S(n: Nat) }
		def Bool.if_then_else(a: Type, then: a, else: a): a { T => then, F => else }
	`)

	// a branch at the wrong instantiation is rejected
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		data Nat { Z, S(n: Nat) }
		def Bool.if_then_else(a: Type, then: a, else: a): a { T => then, F => else }
		def Bool.broken: Nat { T => T.if_then_else(Nat, Z, F), F => Z }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestTypeArgumentMustBeAType(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.if_then_else(a: Type, then: a, else: a): a { T => then, F => else }
		def Bool.broken: Bool { T => T.if_then_else(T, T, F), F => F }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestCallArityMismatch(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.if_then_else(a: Type, then: a, else: a): a { T => then, F => else }
		def Bool.broken: Bool { T => T.if_then_else(Bool, T), F => F }
	`)
	wantDiag(t, errs, common.KindArityMismatch, common.IssueNone)
}

func TestPatternBindArityMismatch(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		def Nat.pred: Nat { Z => Z, S(n, m) => n }
	`)
	wantDiag(t, errs, common.KindArityMismatch, common.IssueNone)
}

func TestConstructorFieldDependsOnEarlierTypeField(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		data Box { MkBox(a: Type, contents: a) }
		def Box.repack: Box { MkBox(a, contents) => MkBox(a, contents) }
	`)
	wantEval(t, table, "MkBox(Nat, S(Z)).repack", "MkBox(Nat, S(Z))")
}

func TestAnnotationCheckedThenErased(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		def Nat.same: Nat { Z => (Z : Nat), S(n) => S(n) }
	`)
	wantEval(t, table, "(S(Z) : Nat).same", "S(Z)")

	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		data Bool { T, F }
		def Nat.broken: Nat { Z => (T : Nat), S(n) => n }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestHoleElaboratesAtAnyType(t *testing.T) {
	mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		data Bool { T, F }
		def Nat.todo: Bool { Z => ?, S(n) => T }
	`)
}

func TestUnknownNameInBody(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		def Bool.broken: Bool { T => Maybe, F => F }
	`)
	wantDiag(t, errs, common.KindUnknownIdentifier, common.IssueNone)
}

func TestComatchInfersTypeFromFirstCocase(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Zeroes: Stream { .head => Z, .tail => Zeroes }
	`)
	wantEval(t, table, "comatch { .head => S(Z), .tail => Zeroes }.head", "S(Z)")
}

func TestLocalMatchInfersFromFirstCase(t *testing.T) {
	table := mustElaborate(t, `
		data Bool { T, F }
		data Nat { Z, S(n: Nat) }
	`)
	wantEval(t, table, "T.match { T => S(Z), F => Z }", "S(Z)")

	e, err := parser.ParseExpression("T.match { T => S(Z), F => F }")
	if err != nil {
		t.Fatal(err)
	}
	_, errs := ElaborateExpression(table, e, nil)
	if _, found := findDiag(errs, common.KindTypeMismatch, common.IssueNone); !found {
		t.Errorf("arms at different types should be rejected, got %v", errs)
	}
}
