package processors

import (
	"strings"
	"testing"
	"time"

	"github.com/duality-lang/duality/internal/pkg/common"
)

func TestDirectGuardedRecursionAccepted(t *testing.T) {
	// Zeroes' .tail clause mentions Zeroes itself, but the call only
	// runs when the next observation selects a clause
	mustElaborate(t, prelude)
}

func TestUnguardedSelfObservationRejected(t *testing.T) {
	// .head forces Bad's own clauses to a Nat before producing anything
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Bad: Stream { .head => Bad.head, .tail => Bad }
	`)
	ce := wantDiag(t, errs, common.KindUnguardedRecursion, common.IssueNone)
	if !strings.Contains(ce.Message, "Bad") {
		t.Errorf("diagnostic should name the cycle, got %q", ce.Message)
	}
}

func TestUnguardedDataArgumentRejected(t *testing.T) {
	// the corecursive call is handed to a def as a data-valued
	// argument, which may match on it immediately
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		def Nat.first(s: Stream): Nat { Z => s.head, S(n) => n }
		codef Bad: Stream { .head => Z.first(Bad), .tail => Bad }
	`)
	wantDiag(t, errs, common.KindUnguardedRecursion, common.IssueNone)
}

func TestUnguardedLocalMatchRejected(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Conat { .out: Nat }
		codef Bad: Conat { .out => Bad.out.match { Z => Z, S(n) => n } }
	`)
	wantDiag(t, errs, common.KindUnguardedRecursion, common.IssueNone)
}

func TestMutualUnguardedCycleRejected(t *testing.T) {
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Ping: Stream { .head => Pong.head, .tail => Pong }
		codef Pong: Stream { .head => Ping.head, .tail => Ping }
	`)
	ce := wantDiag(t, errs, common.KindUnguardedRecursion, common.IssueNone)
	if !strings.Contains(ce.Message, "->") {
		t.Errorf("mutual cycle should be spelled out, got %q", ce.Message)
	}
}

func TestMutualGuardedRecursionAccepted(t *testing.T) {
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Even: Stream { .head => Z, .tail => Odd }
		codef Odd: Stream { .head => S(Z), .tail => Even }
	`)
	wantEval(t, table, "Even.tail.head", "S(Z)")
	wantEval(t, table, "Even.tail.tail.head", "Z")
}

func TestForcingUnderGuardIsAccepted(t *testing.T) {
	// observing a *different*, already-complete codef inside a clause
	// body is fine; only cycles among forced calls are rejected
	table := mustElaborate(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Zeroes: Stream { .head => Z, .tail => Zeroes }
		codef Shifted: Stream { .head => Zeroes.head, .tail => Zeroes }
	`)
	wantEval(t, table, "Shifted.head", "Z")
}

func TestDistinctCyclesEachGetADiagnostic(t *testing.T) {
	// two unguarded cycles run through Hub: Hub->Left->Hub and
	// Hub->Right->Hub; each must surface on its own
	_, errs := elaborateSrc(t, `
		data Nat { Z, S(n: Nat) }
		codata Stream { .head: Nat, .tail: Stream }
		codef Hub: Stream { .head => Left.head, .tail => Right.tail }
		codef Left: Stream { .head => Hub.head, .tail => Hub }
		codef Right: Stream { .head => Hub.head, .tail => Hub }
	`)
	count := 0
	for _, err := range errs {
		if ce, ok := err.(common.Error); ok && ce.Kind == common.KindUnguardedRecursion {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("want 2 UnguardedRecursion diagnostics, got %d: %v", count, errs)
	}
}

func TestRejectionTerminates(t *testing.T) {
	// detecting the unproductive definition must not itself unfold it
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, errs := elaborateSrc(t, `
			data Nat { Z, S(n: Nat) }
			codata Stream { .head: Nat, .tail: Stream }
			codef Bad: Stream { .head => Bad.head, .tail => Bad }
		`)
		if _, found := findDiag(errs, common.KindUnguardedRecursion, common.IssueNone); !found {
			t.Errorf("expected UnguardedRecursion, got %v", errs)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("elaboration did not terminate")
	}
}
