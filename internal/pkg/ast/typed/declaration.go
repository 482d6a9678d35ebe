package typed

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/samber/lo"
)

// Param is a resolved parameter or constructor field. A Param whose
// type is TUniv binds a type variable scoping over the parameters and
// return type that follow it.
type Param struct {
	Name ast.Identifier
	Type Type
}

func (p Param) IsTypeSorted() bool {
	_, ok := p.Type.(TUniv)
	return ok
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

type Ctor struct {
	Location ast.Location
	Name     ast.Identifier
	Owner    ast.Identifier
	Fields   []Param
}

type Dtor struct {
	Location ast.Location
	Name     ast.Identifier
	Owner    ast.Identifier
	Params   []Param
	Return   Type
}

type DataDecl struct {
	Location ast.Location
	Name     ast.Identifier
	Ctors    []Ctor
}

// CtorNames returns the constructor tags in declaration order.
func (d *DataDecl) CtorNames() []ast.Identifier {
	return lo.Map(d.Ctors, func(c Ctor, _ int) ast.Identifier { return c.Name })
}

type CodataDecl struct {
	Location ast.Location
	Name     ast.Identifier
	Dtors    []Dtor
}

func (d *CodataDecl) DtorNames() []ast.Identifier {
	return lo.Map(d.Dtors, func(dt Dtor, _ int) ast.Identifier { return dt.Name })
}

// Clause is an elaborated arm of a def, codef, match or comatch. Binds
// are positional: they receive the tag's fields (patterns) or
// parameters (copatterns) in declaration order.
type Clause struct {
	Location ast.Location
	Tag      ast.Identifier
	Binds    []ast.Identifier
	Body     Expression
}

type Def struct {
	Location  ast.Location
	Name      ast.Identifier
	Scrutinee ast.Identifier
	Params    []Param
	Return    Type
	Clauses   []Clause
}

// ClauseFor returns the clause matching the given constructor tag.
// Coverage guarantees exactly one exists for every constructor of the
// scrutinee type.
func (d *Def) ClauseFor(tag ast.Identifier) (Clause, bool) {
	return lo.Find(d.Clauses, func(c Clause) bool { return c.Tag == tag })
}

func (d *Def) Code() string {
	return fmt.Sprintf("def %s.%s%s: %s", d.Scrutinee, d.Name, codeParams(d.Params), d.Return.Code())
}

type Codef struct {
	Location ast.Location
	Name     ast.Identifier
	Params   []Param
	Result   ast.Identifier
	Clauses  []Clause
}

func (c *Codef) ClauseFor(tag ast.Identifier) (Clause, bool) {
	return lo.Find(c.Clauses, func(cl Clause) bool { return cl.Tag == tag })
}

func (c *Codef) Code() string {
	return fmt.Sprintf("codef %s%s: %s", c.Name, codeParams(c.Params), c.Result)
}
