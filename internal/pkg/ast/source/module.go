// Package source holds the declaration and expression trees the
// elaborator consumes. A frontend (the bundled parser or any other
// producer) hands over a well-formed *Module; everything in here is
// read-only input from the elaborator's point of view.
package source

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/samber/lo"
)

// Coder renders a node back to surface syntax. Used for diagnostics and
// for writing out transposed modules.
type Coder interface {
	Code() string
}

type Module struct {
	Name  string
	Decls []Declaration
}

func (m *Module) Code() string {
	return strings.Join(lo.Map(m.Decls, func(d Declaration, _ int) string {
		return d.Code()
	}), "\n\n") + "\n"
}

type Declaration interface {
	Coder
	DeclName() ast.Identifier
	DeclLocation() ast.Location
	declaration()
}

// Param is a named, typed parameter or constructor field. A Param whose
// Type is the universe binds a type variable for the parameters and
// return type that follow it.
type Param struct {
	Location ast.Location
	Name     ast.Identifier
	Type     TypeExpr
}

func (p Param) Code() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type.Code())
}

func codeParams(params []Param) string {
	if len(params) == 0 {
		return ""
	}
	return "(" + strings.Join(lo.Map(params, func(p Param, _ int) string {
		return p.Code()
	}), ", ") + ")"
}

type Constructor struct {
	Location ast.Location
	Name     ast.Identifier
	Fields   []Param
}

func (c Constructor) Code() string {
	return string(c.Name) + codeParams(c.Fields)
}

type Destructor struct {
	Location ast.Location
	Name     ast.Identifier
	Params   []Param
	Return   TypeExpr
}

func (d Destructor) Code() string {
	return fmt.Sprintf(".%s%s: %s", d.Name, codeParams(d.Params), d.Return.Code())
}

type Data struct {
	Location ast.Location
	Name     ast.Identifier
	Ctors    []Constructor
}

func (d *Data) declaration()               {}
func (d *Data) DeclName() ast.Identifier   { return d.Name }
func (d *Data) DeclLocation() ast.Location { return d.Location }

func (d *Data) Code() string {
	items := lo.Map(d.Ctors, func(c Constructor, _ int) string { return c.Code() })
	return fmt.Sprintf("data %s { %s }", d.Name, strings.Join(items, ", "))
}

type Codata struct {
	Location ast.Location
	Name     ast.Identifier
	Dtors    []Destructor
}

func (c *Codata) declaration()               {}
func (c *Codata) DeclName() ast.Identifier   { return c.Name }
func (c *Codata) DeclLocation() ast.Location { return c.Location }

func (c *Codata) Code() string {
	items := lo.Map(c.Dtors, func(d Destructor, _ int) string { return d.Code() })
	return fmt.Sprintf("codata %s { %s }", c.Name, strings.Join(items, ", "))
}

// Clause is one arm of a def, codef, match or comatch. Tag selects a
// constructor (patterns) or destructor (copatterns); Binds receive the
// tag's fields or parameters in declaration order.
type Clause struct {
	Location ast.Location
	Tag      ast.Identifier
	Binds    []ast.Identifier
	Body     Expression
}

func (c Clause) code(copattern bool) string {
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
}

func codeClauses(clauses []Clause, copattern bool) string {
	return strings.Join(lo.Map(clauses, func(c Clause, _ int) string {
		return c.code(copattern)
	}), ", ")
}

// Def is a function defined by exhaustive pattern matching on the
// constructors of Scrutinee's data type. The scrutinee itself is the
// implicit receiver; Params are the remaining parameters.
type Def struct {
	Location  ast.Location
	Name      ast.Identifier
	Scrutinee ast.Identifier
	Params    []Param
	Return    TypeExpr
	Clauses   []Clause
}

func (d *Def) declaration()               {}
func (d *Def) DeclName() ast.Identifier   { return d.Name }
func (d *Def) DeclLocation() ast.Location { return d.Location }

func (d *Def) Code() string {
	return fmt.Sprintf("def %s.%s%s: %s { %s }",
		d.Scrutinee, d.Name, codeParams(d.Params), d.Return.Code(), codeClauses(d.Clauses, false))
}

// Codef is a corecursive value of the Result codata type, defined by
// exhaustive copattern matching on that type's destructors.
type Codef struct {
	Location ast.Location
	Name     ast.Identifier
	Params   []Param
	Result   ast.Identifier
	Clauses  []Clause
}

func (c *Codef) declaration()               {}
func (c *Codef) DeclName() ast.Identifier   { return c.Name }
func (c *Codef) DeclLocation() ast.Location { return c.Location }

func (c *Codef) Code() string {
	return fmt.Sprintf("codef %s%s: %s { %s }",
		c.Name, codeParams(c.Params), c.Result, codeClauses(c.Clauses, true))
}
