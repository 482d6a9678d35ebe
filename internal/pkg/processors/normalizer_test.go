package processors

import (
	"errors"
	"testing"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/nf"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/parser"
)

func TestInvolution(t *testing.T) {
	table := mustElaborate(t, prelude)
	for _, b := range []string{"T", "F"} {
		wantEval(t, table, b+".not.not", b)
	}
}

func TestDependentSubstitutionAtRuntime(t *testing.T) {
	table := mustElaborate(t, prelude)
	wantEval(t, table, "T.if_then_else(Nat, S(Z), Z)", "S(Z)")
	wantEval(t, table, "F.if_then_else(Nat, S(Z), Z)", "Z")
}

func TestLazyUnfoldingTerminates(t *testing.T) {
	table := mustElaborate(t, prelude)

	e, err := parser.ParseExpression("Zeroes.tail.tail.tail.head")
	if err != nil {
		t.Fatal(err)
	}
	te, errs := ElaborateExpression(table, e, nil)
	if len(errs) > 0 {
		t.Fatal(errs[0])
	}
	norm := NewNormalizer(table, 0)
	v, err := norm.Eval(te)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "Z" {
		t.Fatalf("want Z, got %s", v)
	}
	// work stays proportional to the observation chain, not to the
	// stream's (infinite) length
	if norm.Steps() > 64 {
		t.Errorf("a 4-step observation took %d evaluation steps", norm.Steps())
	}
}

func TestTailStaysSuspended(t *testing.T) {
	table := mustElaborate(t, prelude)
	v, err := evalValue(t, table, "Zeroes.tail")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*nf.Suspended); !ok {
		t.Fatalf("Zeroes.tail should stay a suspended codef, got %T (%s)", v, v)
	}
}

func TestAlternation(t *testing.T) {
	table := mustElaborate(t, prelude)
	wantEval(t, table, "Alternate(T).head", "S(Z)")
	wantEval(t, table, "Alternate(T).tail.head", "Z")
	wantEval(t, table, "Alternate(F).head", "Z")
	wantEval(t, table, "Alternate(F).tail.head", "S(Z)")
}

func TestObservePath(t *testing.T) {
	table := mustElaborate(t, prelude)
	norm := NewNormalizer(table, 0)
	v, err := norm.Eval(typed.Call{Name: "Alternate", Args: []typed.Expression{
		typed.CtorApp{Tag: "T", T: typed.TCtor{Name: "Bool"}},
	}, T: typed.TCtor{Name: "Stream"}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := norm.ObservePath(v, []Observation{{Tag: "tail"}, {Tag: "tail"}, {Tag: "head"}})
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "S(Z)" {
		t.Fatalf("want S(Z), got %s", out)
	}
}

func TestReObservationIsReferentiallyTransparent(t *testing.T) {
	table := mustElaborate(t, prelude)
	norm := NewNormalizer(table, 0)

	susp := &nf.Suspended{Name: "Alternate", Args: []nf.Value{&nf.Ctor{Tag: "T"}}}
	first, err := norm.Observe(susp, ast.Identifier("head"), nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := norm.Observe(susp, ast.Identifier("head"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !first.EqualsTo(second) {
		t.Fatalf("re-observation differs: %s vs %s", first, second)
	}
}

func TestDivergentDataRecursionHitsBudget(t *testing.T) {
	// data-side recursion is unrestricted, so a divergent def is
	// accepted statically; the driver's step budget stops it
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		def Nat.loop: Nat { Z => Z.loop, S(n) => n.loop }
	`)
	e, err := parser.ParseExpression("Z.loop")
	if err != nil {
		t.Fatal(err)
	}
	te, errs := ElaborateExpression(table, e, nil)
	if len(errs) > 0 {
		t.Fatal(errs[0])
	}
	_, evalErr := NewNormalizer(table, 10_000).Eval(te)
	if !errors.Is(evalErr, ErrBudgetExhausted) {
		t.Fatalf("want ErrBudgetExhausted, got %v", evalErr)
	}
}

func TestObservingAHoleFails(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
	`)
	e, err := parser.ParseExpression("(? : Stream).head")
	if err != nil {
		t.Fatal(err)
	}
	te, errs := ElaborateExpression(table, e, nil)
	if len(errs) > 0 {
		t.Fatal(errs[0])
	}
	if _, evalErr := NewNormalizer(table, 0).Eval(te); evalErr == nil {
		t.Fatal("observing a hole should fail")
	}
}

func TestMatchingAHoleFails(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		def Nat.pred: Nat { Z => Z, S(n) => n }
	`)
	e, err := parser.ParseExpression("(? : Nat).pred")
	if err != nil {
		t.Fatal(err)
	}
	te, errs := ElaborateExpression(table, e, nil)
	if len(errs) > 0 {
		t.Fatal(errs[0])
	}
	if _, evalErr := NewNormalizer(table, 0).Eval(te); evalErr == nil {
		t.Fatal("matching on a hole should fail")
	}
}

func TestComatchClosureCapturesEnvironment(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Const(n: Nat): Stream {
			.head => n,
			.tail => (comatch { .head => n, .tail => Const(n) } : Stream)
		}
	`)
	wantEval(t, table, "Const(S(Z)).tail.head", "S(Z)")
	wantEval(t, table, "Const(S(Z)).tail.tail.head", "S(Z)")
}
