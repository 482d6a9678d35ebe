// Package nf holds normal forms: the values the normalizer produces.
// Data values are fully built constructor trees; codata values stay
// suspended and are only advanced destructor by destructor.
package nf

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/samber/lo"
)

type Value interface {
	fmt.Stringer
	EqualsTo(other Value) bool
	value()
}

func codeArgs(args []Value) string {
	if len(args) == 0 {
		return ""
	}
	return "(" + strings.Join(lo.Map(args, func(v Value, _ int) string {
		return v.String()
	}), ", ") + ")"
}

// Ctor is a data value in constructor normal form.
type Ctor struct {
	Tag  ast.Identifier
	Args []Value
}

func (v *Ctor) value()         {}
func (v *Ctor) String() string { return string(v.Tag) + codeArgs(v.Args) }

func (v *Ctor) EqualsTo(other Value) bool {
	o, ok := other.(*Ctor)
	if !ok || o.Tag != v.Tag || len(o.Args) != len(v.Args) {
		return false
	}
	for i, a := range v.Args {
		if !a.EqualsTo(o.Args[i]) {
			return false
		}
	}
	return true
}

// Suspended is an unevaluated codef instantiation: the corecursive tail
// of an infinite value. Its arguments are evaluated; its clauses are
// not, and only run when a destructor is observed on it.
type Suspended struct {
	Name ast.Identifier
	Args []Value
}

func (v *Suspended) value()         {}
func (v *Suspended) String() string { return string(v.Name) + codeArgs(v.Args) }

// EqualsTo on suspensions compares the codef and its arguments; two
// equal suspensions answer every observation identically.
func (v *Suspended) EqualsTo(other Value) bool {
	o, ok := other.(*Suspended)
	if !ok || o.Name != v.Name || len(o.Args) != len(v.Args) {
		return false
	}
	for i, a := range v.Args {
		if !a.EqualsTo(o.Args[i]) {
			return false
		}
	}
	return true
}

// Closure is a local comatch value: its cocases plus the environment
// they were built in.
type Closure struct {
	Cases []typed.Clause
	Env   Env
}

func (v *Closure) value() {}

func (v *Closure) String() string {
	tags := lo.Map(v.Cases, func(c typed.Clause, _ int) string { return "." + string(c.Tag) })
	return fmt.Sprintf("comatch { %s }", strings.Join(tags, ", "))
}

// Closures have no useful notion of equality; identity is all we can
// offer without comparing bodies under their environments.
func (v *Closure) EqualsTo(other Value) bool {
	return v == other
}

// TypeVal is a type passed as an ordinary value. The normalizer never
// inspects which type it is.
type TypeVal struct {
	T typed.Type
}

func (v TypeVal) value()         {}
func (v TypeVal) String() string { return v.T.Code() }

func (v TypeVal) EqualsTo(other Value) bool {
	o, ok := other.(TypeVal)
	return ok && o.T.EqualsTo(v.T)
}

// Hole is the value of an elaborated `?`. Observing or matching it is
// a normalization error.
type Hole struct{}

func (v Hole) value()         {}
func (v Hole) String() string { return "?" }
func (v Hole) EqualsTo(other Value) bool {
	_, ok := other.(Hole)
	return ok
}

// Env binds clause and parameter names to values during evaluation.
type Env map[ast.Identifier]Value

func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func (e Env) Bind(name ast.Identifier, v Value) {
	e[name] = v
}

func (e Env) Lookup(name ast.Identifier) (Value, bool) {
	v, ok := e[name]
	return v, ok
}
