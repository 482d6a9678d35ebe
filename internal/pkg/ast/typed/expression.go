package typed

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/samber/lo"
)

// Expression is a type-annotated term. Type-sorted arguments are kept
// explicit here even though the normalizer never inspects them.
type Expression interface {
	Code() string
	ExpType() Type
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

type Var struct {
	Location ast.Location
	Name     ast.Identifier
	T        Type
}

func (e Var) expression()               {}
func (e Var) ExpType() Type             { return e.T }
func (e Var) ExpLocation() ast.Location { return e.Location }
func (e Var) Code() string              { return string(e.Name) }

// TypeRef is a type used as a term, e.g. `Nat` passed to a Type-sorted
// parameter. Its sort is always the universe; Denoted is the type it
// stands for.
type TypeRef struct {
	Location ast.Location
	Denoted  Type
}

func (e TypeRef) expression()               {}
func (e TypeRef) ExpType() Type             { return TUniv{} }
func (e TypeRef) ExpLocation() ast.Location { return e.Location }
func (e TypeRef) Code() string              { return e.Denoted.Code() }

type CtorApp struct {
	Location ast.Location
	Tag      ast.Identifier
	Args     []Expression
	T        Type
}

func (e CtorApp) expression()               {}
func (e CtorApp) ExpType() Type             { return e.T }
func (e CtorApp) ExpLocation() ast.Location { return e.Location }
func (e CtorApp) Code() string              { return string(e.Tag) + codeArgs(e.Args) }

// Call invokes a def (first argument is the scrutinee) or instantiates
// a codef. Which of the two it is follows from the name's table entry.
type Call struct {
	Location ast.Location
	Name     ast.Identifier
	Args     []Expression
	T        Type
}

func (e Call) expression()               {}
func (e Call) ExpType() Type             { return e.T }
func (e Call) ExpLocation() ast.Location { return e.Location }
func (e Call) Code() string              { return string(e.Name) + codeArgs(e.Args) }

// Observe applies a destructor to a codata-typed receiver.
type Observe struct {
	Location ast.Location
	Receiver Expression
	Tag      ast.Identifier
	Args     []Expression
	T        Type
}

func (e Observe) expression()               {}
func (e Observe) ExpType() Type             { return e.T }
func (e Observe) ExpLocation() ast.Location { return e.Location }

func (e Observe) Code() string {
	return fmt.Sprintf("%s.%s%s", e.Receiver.Code(), e.Tag, codeArgs(e.Args))
}

func codeCases(cases []Clause, copattern bool) string {
	return strings.Join(lo.Map(cases, func(c Clause, _ int) string {
		sb := strings.Builder{}
		if copattern {
			sb.WriteString(".")
		}
		sb.WriteString(string(c.Tag))
		if len(c.Binds) > 0 {
			sb.WriteString("(")
			sb.WriteString(strings.Join(lo.Map(c.Binds, func(b ast.Identifier, _ int) string {
				return string(b)
			}), ", "))
			sb.WriteString(")")
		}
		sb.WriteString(" => ")
		sb.WriteString(c.Body.Code())
		return sb.String()
	}), ", ")
}

type Match struct {
	Location ast.Location
	On       Expression
	Cases    []Clause
	T        Type
}

func (e Match) expression()               {}
func (e Match) ExpType() Type             { return e.T }
func (e Match) ExpLocation() ast.Location { return e.Location }

func (e Match) Code() string {
	return fmt.Sprintf("%s.match { %s }", e.On.Code(), codeCases(e.Cases, false))
}

type Comatch struct {
	Location ast.Location
	Cases    []Clause
	T        Type
}

func (e Comatch) expression()               {}
func (e Comatch) ExpType() Type             { return e.T }
func (e Comatch) ExpLocation() ast.Location { return e.Location }

func (e Comatch) Code() string {
	return fmt.Sprintf("comatch { %s }", codeCases(e.Cases, true))
}

type Hole struct {
	Location ast.Location
	T        Type
}

func (e Hole) expression()               {}
func (e Hole) ExpType() Type             { return e.T }
func (e Hole) ExpLocation() ast.Location { return e.Location }
func (e Hole) Code() string              { return "?" }
