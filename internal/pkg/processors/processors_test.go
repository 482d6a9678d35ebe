package processors

import (
	"testing"

	"github.com/duality-lang/duality/internal/pkg/ast/nf"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
	"github.com/duality-lang/duality/internal/pkg/parser"
)

// prelude is the worked example every phase test builds on: booleans,
// naturals, streams, and the definitions over them.
const prelude = `
data Bool { T, F }
data Nat { Z, S(n: Nat) }
codata Stream { .head: Nat, .tail: Stream }

def Bool.not: Bool { T => F, F => T }
def Bool.if_then_else(a: Type, then: a, else: a): a { T => then, F => else }
def Nat.pred: Nat { Z => Z, S(n) => n }

codef Zeroes: Stream { .head => Z, .tail => Zeroes }
codef Alternate(b: Bool): Stream {
	.head => b.if_then_else(Nat, S(Z), Z),
	.tail => Alternate(b.not)
}
`

// --- helpers ---------------------------------------------------------------

func elaborateSrc(t *testing.T, src string) (*typed.Table, []error) {
	t.Helper()
	mod, errs := parser.ParseWithContent("test.dual", src)
	if len(errs) > 0 {
		t.Fatalf("parse error: %v\nsource:\n%s", errs[0], src)
	}
	return Elaborate(mod)
}

func mustElaborate(t *testing.T, src string) *typed.Table {
	t.Helper()
	table, errs := elaborateSrc(t, src)
	if len(errs) > 0 {
		t.Fatalf("elaboration failed: %v\nsource:\n%s", errs[0], src)
	}
	return table
}

// evalStr normalizes an expression against the table and renders the
// resulting value.
func evalStr(t *testing.T, table *typed.Table, expr string) string {
	t.Helper()
	v, err := evalValue(t, table, expr)
	if err != nil {
		t.Fatalf("eval error for %q: %v", expr, err)
	}
	return v.String()
}

func evalValue(t *testing.T, table *typed.Table, expr string) (nf.Value, error) {
	t.Helper()
	e, err := parser.ParseExpression(expr)
	if err != nil {
		t.Fatalf("parse error for %q: %v", expr, err)
	}
	te, errs := ElaborateExpression(table, e, nil)
	if len(errs) > 0 {
		t.Fatalf("elaboration error for %q: %v", expr, errs[0])
	}
	return NewNormalizer(table, 0).Eval(te)
}

func wantEval(t *testing.T, table *typed.Table, expr, want string) {
	t.Helper()
	if got := evalStr(t, table, expr); got != want {
		t.Errorf("%s: want %s, got %s", expr, want, got)
	}
}

// findDiag reports whether some collected error carries the given kind
// and issue (IssueNone matches any issue).
func findDiag(errs []error, kind common.Kind, issue common.Issue) (common.Error, bool) {
	for _, err := range errs {
		ce, ok := err.(common.Error)
		if !ok {
			continue
		}
		if ce.Kind == kind && (issue == common.IssueNone || ce.Issue == issue) {
			return ce, true
		}
	}
	return common.Error{}, false
}

func wantDiag(t *testing.T, errs []error, kind common.Kind, issue common.Issue) common.Error {
	t.Helper()
	ce, found := findDiag(errs, kind, issue)
	if !found {
		t.Fatalf("no %s(%s) among %d error(s): %v", kind, issue, len(errs), errs)
	}
	return ce
}
