package processors

import (
	"testing"

	"github.com/samber/lo"

	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
)

func TestElaboratePrelude(t *testing.T) {
	table := mustElaborate(t, prelude)
	if len(table.DataTypes()) != 2 {
		t.Errorf("want 2 data types, got %d", len(table.DataTypes()))
	}
	if len(table.CodataTypes()) != 1 {
		t.Errorf("want 1 codata type, got %d", len(table.CodataTypes()))
	}
	if len(table.Defs()) != 3 || len(table.Codefs()) != 2 {
		t.Errorf("want 3 defs and 2 codefs, got %d and %d", len(table.Defs()), len(table.Codefs()))
	}
}

func TestDuplicateTypeName(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		codata Bool { .head: Bool }
	`)
	wantDiag(t, errs, common.KindDuplicateDeclaration, common.IssueNone)
}

func TestConstructorNamesShareOneNamespace(t *testing.T) {
	// the tag `Z` may not be reused by another type's constructor,
	// nor by a destructor
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		data Peano { Z }
	`)
	wantDiag(t, errs, common.KindDuplicateDeclaration, common.IssueNone)

	_, errs = elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Conat { .S: Conat }
	`)
	wantDiag(t, errs, common.KindDuplicateDeclaration, common.IssueNone)
}

func TestDuplicateDoesNotAbortTheRest(t *testing.T) {
	table, errs := elaborateSrc(t, `
		data Bool { T, F }
		data Bool { T2, F2 }
		data Nat { Z, S(n: Nat) }
	`)
	if _, found := findDiag(errs, common.KindDuplicateDeclaration, common.IssueNone); !found {
		t.Fatalf("expected a DuplicateDeclaration, got %v", errs)
	}
	if _, err := table.Data("Nat"); err != nil {
		t.Errorf("Nat should still be registered: %v", err)
	}
}

func TestDuplicateTagKeepsLaterFieldsAligned(t *testing.T) {
	// Peano's Z collides with Nat's, but P must keep its own field
	// list: registration failure of one tag must not shift the field
	// lists of the tags after it
	table, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		data Peano { O, Z, P(p: Peano) }
		def Peano.unwrap: Peano { O => O, P(p) => p }
	`)
	wantDiag(t, errs, common.KindDuplicateDeclaration, common.IssueNone)
	if ce, found := findDiag(errs, common.KindArityMismatch, common.IssueNone); found {
		t.Fatalf("spurious diagnostic: %v", ce)
	}

	decl, err := table.Data("Peano")
	if err != nil {
		t.Fatal(err)
	}
	p, found := lo.Find(decl.Ctors, func(c typed.Ctor) bool { return c.Name == "P" })
	if !found {
		t.Fatalf("P is missing from Peano, got %v", decl.CtorNames())
	}
	if len(p.Fields) != 1 || p.Fields[0].Name != "p" || p.Fields[0].Type.Code() != "Peano" {
		t.Fatalf("P should keep its field (p: Peano), got %#v", p.Fields)
	}
	wantEval(t, table, "P(P(O)).unwrap", "P(O)")
}

func TestDuplicateDestructorKeepsLaterParamsAligned(t *testing.T) {
	table, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Clock { .now: Nat }
		codata Timer { .now: Nat, .after(n: Nat): Timer }
	`)
	wantDiag(t, errs, common.KindDuplicateDeclaration, common.IssueNone)

	decl, err := table.Codata("Timer")
	if err != nil {
		t.Fatal(err)
	}
	after, found := lo.Find(decl.Dtors, func(d typed.Dtor) bool { return d.Name == "after" })
	if !found {
		t.Fatalf("after is missing from Timer, got %v", decl.DtorNames())
	}
	if len(after.Params) != 1 || after.Params[0].Name != "n" {
		t.Fatalf("after should keep its parameter (n: Nat), got %#v", after.Params)
	}
	if after.Return.Code() != "Timer" {
		t.Fatalf("after should keep its return type Timer, got %s", after.Return.Code())
	}
}

func TestUnknownFieldType(t *testing.T) {
	_, errs := elaborateSrc(t, `data Tree { Leaf, Node(l: Forest) }`)
	ce := wantDiag(t, errs, common.KindUnknownIdentifier, common.IssueNone)
	if got := ce.Error(); got == "" {
		t.Error("diagnostic should render")
	}
}

func TestMutualRecursionIsOrderIndependent(t *testing.T) {
	// Forest references Tree before Tree is declared; the two-pass
	// scheme resolves it anyway
	table := mustElaborate(t, `
		data Forest { FNil, FCons(t: Tree, rest: Forest) }
		data Tree { Node(children: Forest) }
	`)
	decl, err := table.Data("Forest")
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Ctors[1].Fields) != 2 {
		t.Fatalf("FCons should keep both fields")
	}
	if decl.Ctors[1].Fields[0].Type.Code() != "Tree" {
		t.Errorf("field type should resolve to Tree, got %s", decl.Ctors[1].Fields[0].Type.Code())
	}
}

func TestDataCodataMutualRecursion(t *testing.T) {
	mustElaborate(t, `
		codata Machine { .step: Result }
		data Result { Done, Continue(next: Machine) }
	`)
}

func TestDefOverCodataRejected(t *testing.T) {
	_, errs := elaborateSrc(t, `
		codata Stream { .head: Stream }
		def Stream.broken: Stream { head => Stream }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}

func TestCodefOverDataRejected(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Bool { T, F }
		codef Broken: Bool { .T => F }
	`)
	wantDiag(t, errs, common.KindTypeMismatch, common.IssueNone)
}
