package source

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/samber/lo"
)

type Expression interface {
	Coder
	ExpLocation() ast.Location
	expression()
}

func codeArgs(args []Expression) string {
	if len(args) == 0 {
		return ""
	}
	return "(" + strings.Join(lo.Map(args, func(e Expression, _ int) string {
		return e.Code()
	}), ", ") + ")"
}

// Var is a bare identifier. It may resolve to a clause binding, a
// parameter, a zero-argument constructor or codef, or a type name used
// as a value.
type Var struct {
	Location ast.Location
	Name     ast.Identifier
}

func (e Var) expression()               {}
func (e Var) ExpLocation() ast.Location { return e.Location }
func (e Var) Code() string              { return string(e.Name) }

// Universe is the sort `Type` used as a term.
type Universe struct {
	Location ast.Location
}

func (e Universe) expression()               {}
func (e Universe) ExpLocation() ast.Location { return e.Location }
func (e Universe) Code() string              { return string(ast.KwType) }

// Apply is `Name(args)`: a constructor application, a codef
// instantiation, or a call to a def with the scrutinee passed as the
// first argument.
type Apply struct {
	Location ast.Location
	Name     ast.Identifier
	Args     []Expression
}

func (e Apply) expression()               {}
func (e Apply) ExpLocation() ast.Location { return e.Location }
func (e Apply) Code() string              { return string(e.Name) + codeArgs(e.Args) }

// DotApply is `receiver.name(args)`: a destructor observation on a
// codata value, or a def call written receiver-first.
type DotApply struct {
	Location ast.Location
	Receiver Expression
	Name     ast.Identifier
	Args     []Expression
}

func (e DotApply) expression()               {}
func (e DotApply) ExpLocation() ast.Location { return e.Location }

func (e DotApply) Code() string {
	return fmt.Sprintf("%s.%s%s", e.Receiver.Code(), e.Name, codeArgs(e.Args))
}

// Match is a local case analysis `on.match { C(x) => ..., ... }` over
// the constructors of the scrutinee's data type.
type Match struct {
	Location ast.Location
	On       Expression
	Cases    []Clause
}

func (e Match) expression()               {}
func (e Match) ExpLocation() ast.Location { return e.Location }

func (e Match) Code() string {
	return fmt.Sprintf("%s.match { %s }", e.On.Code(), codeClauses(e.Cases, false))
}

// Comatch is a local codata value `comatch { .d(x) => ..., ... }`
// covering the destructors of its (expected) codata type.
type Comatch struct {
	Location ast.Location
	Cases    []Clause
}

func (e Comatch) expression()               {}
func (e Comatch) ExpLocation() ast.Location { return e.Location }

func (e Comatch) Code() string {
	return fmt.Sprintf("comatch { %s }", codeClauses(e.Cases, true))
}

// Anno is a checked type annotation `(e : T)`. It is erased after
// elaboration.
type Anno struct {
	Location ast.Location
	Exp      Expression
	Type     TypeExpr
}

func (e Anno) expression()               {}
func (e Anno) ExpLocation() ast.Location { return e.Location }

func (e Anno) Code() string {
	return fmt.Sprintf("(%s : %s)", e.Exp.Code(), e.Type.Code())
}

// Hole is `?`: it elaborates at whatever type is expected and evaluates
// to an opaque value that cannot be observed or matched.
type Hole struct {
	Location ast.Location
}

func (e Hole) expression()               {}
func (e Hole) ExpLocation() ast.Location { return e.Location }
func (e Hole) Code() string              { return "?" }
