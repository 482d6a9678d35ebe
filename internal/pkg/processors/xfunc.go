package processors

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
)

// Xfunc transposes the program matrix for one type and returns a fresh
// source module that re-elaborates cleanly.
//
// A data type is refunctionalized: the defs matching on it become the
// destructors of a new codata type, and its constructors become codefs.
// A codata type is defunctionalized the other way around. Applying the
// transposition twice is the identity up to declaration order.
//
// Clause bodies travel unchanged: constructor applications and codef
// instantiations share the `Name(args)` form, and def calls and
// observations share the `recv.name(args)` form, so a transposed body
// re-elaborates under the flipped table without rewriting. Only binder
// names move, from each clause onto the declared field/param names.
func Xfunc(table *typed.Table, typeName ast.Identifier) (*source.Module, error) {
	kind, ok := table.Kind(typeName)
	if !ok {
		return nil, errors.Errorf("cannot transpose `%s`: no such type", typeName)
	}
	switch kind {
	case typed.DeclData:
		return refunctionalize(table, typeName)
	case typed.DeclCodata:
		return defunctionalize(table, typeName)
	}
	return nil, errors.Errorf("cannot transpose `%s`: it is a %s, not a type", typeName, kind)
}

func refunctionalize(table *typed.Table, typeName ast.Identifier) (*source.Module, error) {
	decl, err := table.Data(typeName)
	if err != nil {
		return nil, err
	}
	defs := table.DefsOver(typeName)
	if err := checkTransposable(table, typeName); err != nil {
		return nil, err
	}

	// defs over the type become the destructor list, in source order
	codata := &source.Codata{
		Name: typeName,
		Dtors: lo.Map(defs, func(d *typed.Def, _ int) source.Destructor {
			return source.Destructor{
				Name:   d.Name,
				Params: quoteParams(d.Params),
				Return: quoteType(d.Return),
			}
		}),
	}

	// each constructor becomes a codef holding its column of the matrix
	codefs := lo.Map(decl.Ctors, func(c typed.Ctor, _ int) source.Declaration {
		return &source.Codef{
			Name:   c.Name,
			Params: quoteParams(c.Fields),
			Result: typeName,
			Clauses: lo.Map(defs, func(d *typed.Def, _ int) source.Clause {
				clause, ok := d.ClauseFor(c.Name)
				if !ok {
					panic(common.NewSystemError("def `%s` has no clause for `%s`", d.Name, c.Name))
				}
				return source.Clause{
					Tag:   d.Name,
					Binds: paramNames(d.Params),
					Body:  quoteExp(table, clause.Body, bindRenaming(clause.Binds, c.Fields)),
				}
			}),
		}
	})

	mod := quoteUntouched(table, typeName)
	mod.Decls = append(mod.Decls, codata)
	mod.Decls = append(mod.Decls, codefs...)
	return mod, nil
}

func defunctionalize(table *typed.Table, typeName ast.Identifier) (*source.Module, error) {
	decl, err := table.Codata(typeName)
	if err != nil {
		return nil, err
	}
	codefs := table.CodefsOf(typeName)
	if err := checkTransposable(table, typeName); err != nil {
		return nil, err
	}

	// codefs producing the type become the constructor list
	data := &source.Data{
		Name: typeName,
		Ctors: lo.Map(codefs, func(c *typed.Codef, _ int) source.Constructor {
			return source.Constructor{Name: c.Name, Fields: quoteParams(c.Params)}
		}),
	}

	// each destructor becomes a def holding its row of the matrix
	defs := lo.Map(decl.Dtors, func(d typed.Dtor, _ int) source.Declaration {
		return &source.Def{
			Name:      d.Name,
			Scrutinee: typeName,
			Params:    quoteParams(d.Params),
			Return:    quoteType(d.Return),
			Clauses: lo.Map(codefs, func(c *typed.Codef, _ int) source.Clause {
				clause, ok := c.ClauseFor(d.Name)
				if !ok {
					panic(common.NewSystemError("codef `%s` has no clause for `%s`", c.Name, d.Name))
				}
				return source.Clause{
					Tag:   c.Name,
					Binds: paramNames(c.Params),
					Body:  quoteExp(table, clause.Body, bindRenaming(clause.Binds, d.Params)),
				}
			}),
		}
	})

	mod := quoteUntouched(table, typeName)
	mod.Decls = append(mod.Decls, data)
	mod.Decls = append(mod.Decls, defs...)
	return mod, nil
}

// checkTransposable rejects programs with a local match or comatch on
// the transposed type: such a case set would need to be lifted into a
// top-level definition first, which this transposition does not do.
func checkTransposable(table *typed.Table, typeName ast.Identifier) error {
	check := func(owner ast.Identifier, clauses []typed.Clause) error {
		for _, c := range clauses {
			if loc, found := findLocalCaseOn(c.Body, typeName); found {
				return errors.Errorf(
					"cannot transpose `%s`: `%s` has a local match or comatch on it at %s",
					typeName, owner, loc.CursorString())
			}
		}
		return nil
	}
	for _, d := range table.Defs() {
		if err := check(d.Name, d.Clauses); err != nil {
			return err
		}
	}
	for _, c := range table.Codefs() {
		if err := check(c.Name, c.Clauses); err != nil {
			return err
		}
	}
	return nil
}

func findLocalCaseOn(e typed.Expression, typeName ast.Identifier) (ast.Location, bool) {
	inClauses := func(cs []typed.Clause) (ast.Location, bool) {
		for _, c := range cs {
			if loc, found := findLocalCaseOn(c.Body, typeName); found {
				return loc, true
			}
		}
		return ast.Location{}, false
	}
	inArgs := func(args []typed.Expression) (ast.Location, bool) {
		for _, a := range args {
			if loc, found := findLocalCaseOn(a, typeName); found {
				return loc, true
			}
		}
		return ast.Location{}, false
	}
	switch x := e.(type) {
	case typed.Var, typed.TypeRef, typed.Hole:
		return ast.Location{}, false
	case typed.CtorApp:
		return inArgs(x.Args)
	case typed.Call:
		return inArgs(x.Args)
	case typed.Observe:
		if loc, found := findLocalCaseOn(x.Receiver, typeName); found {
			return loc, true
		}
		return inArgs(x.Args)
	case typed.Match:
		if x.On.ExpType().EqualsTo(typed.TCtor{Name: typeName}) {
			return x.Location, true
		}
		if loc, found := findLocalCaseOn(x.On, typeName); found {
			return loc, true
		}
		return inClauses(x.Cases)
	case typed.Comatch:
		if x.T.EqualsTo(typed.TCtor{Name: typeName}) {
			return x.Location, true
		}
		return inClauses(x.Cases)
	}
	panic(common.NewSystemError("unhandled expression %T", e))
}

// quoteUntouched renders every declaration not involved in the
// transposition back to source form.
func quoteUntouched(table *typed.Table, typeName ast.Identifier) *source.Module {
	mod := &source.Module{Name: string(typeName) + ".xfunc"}
	for _, d := range table.DataTypes() {
		if d.Name != typeName {
			mod.Decls = append(mod.Decls, quoteData(d))
		}
	}
	for _, d := range table.CodataTypes() {
		if d.Name != typeName {
			mod.Decls = append(mod.Decls, quoteCodata(d))
		}
	}
	for _, d := range table.Defs() {
		if d.Scrutinee != typeName {
			mod.Decls = append(mod.Decls, quoteDef(table, d))
		}
	}
	for _, c := range table.Codefs() {
		if c.Result != typeName {
			mod.Decls = append(mod.Decls, quoteCodef(table, c))
		}
	}
	return mod
}

func quoteData(d *typed.DataDecl) *source.Data {
	return &source.Data{
		Name: d.Name,
		Ctors: lo.Map(d.Ctors, func(c typed.Ctor, _ int) source.Constructor {
			return source.Constructor{Name: c.Name, Fields: quoteParams(c.Fields)}
		}),
	}
}

func quoteCodata(d *typed.CodataDecl) *source.Codata {
	return &source.Codata{
		Name: d.Name,
		Dtors: lo.Map(d.Dtors, func(dt typed.Dtor, _ int) source.Destructor {
			return source.Destructor{Name: dt.Name, Params: quoteParams(dt.Params), Return: quoteType(dt.Return)}
		}),
	}
}

func quoteDef(table *typed.Table, d *typed.Def) *source.Def {
	return &source.Def{
		Name:      d.Name,
		Scrutinee: d.Scrutinee,
		Params:    quoteParams(d.Params),
		Return:    quoteType(d.Return),
		Clauses:   quoteClauses(table, d.Clauses),
	}
}

func quoteCodef(table *typed.Table, c *typed.Codef) *source.Codef {
	return &source.Codef{
		Name:    c.Name,
		Params:  quoteParams(c.Params),
		Result:  c.Result,
		Clauses: quoteClauses(table, c.Clauses),
	}
}

func quoteClauses(table *typed.Table, clauses []typed.Clause) []source.Clause {
	return lo.Map(clauses, func(c typed.Clause, _ int) source.Clause {
		return source.Clause{
			Tag:   c.Tag,
			Binds: c.Binds,
			Body:  quoteExp(table, c.Body, nil),
		}
	})
}

func quoteParams(params []typed.Param) []source.Param {
	return lo.Map(params, func(p typed.Param, _ int) source.Param {
		return source.Param{Name: p.Name, Type: quoteType(p.Type)}
	})
}

func quoteType(t typed.Type) source.TypeExpr {
	switch x := t.(type) {
	case typed.TUniv:
		return source.TUniverse{}
	case typed.TCtor:
		return source.TNamed{Name: x.Name}
	case typed.TVar:
		return source.TNamed{Name: x.Name}
	}
	panic(common.NewSystemError("unhandled type %T", t))
}

// bindRenaming maps a clause's binder names onto the declared
// field/param names they stand for.
func bindRenaming(binds []ast.Identifier, declared []typed.Param) map[ast.Identifier]ast.Identifier {
	ren := map[ast.Identifier]ast.Identifier{}
	for i, b := range binds {
		if i < len(declared) && b != declared[i].Name {
			ren[b] = declared[i].Name
		}
	}
	return ren
}

func paramNames(params []typed.Param) []ast.Identifier {
	return lo.Map(params, func(p typed.Param, _ int) ast.Identifier { return p.Name })
}

// quoteExp renders a typed expression back to source form, applying a
// binder renaming. Def calls come out receiver-first and observations
// keep their dot form, so the quoted body elaborates the same way
// whether its head names a def or a destructor after a transposition;
// the `Name(args)` form likewise covers both constructors and codefs.
func quoteExp(table *typed.Table, e typed.Expression, ren map[ast.Identifier]ast.Identifier) source.Expression {
	quoteArgs := func(args []typed.Expression) []source.Expression {
		return lo.Map(args, func(a typed.Expression, _ int) source.Expression {
			return quoteExp(table, a, ren)
		})
	}
	switch x := e.(type) {
	case typed.Var:
		name := x.Name
		if r, ok := ren[name]; ok {
			name = r
		}
		return source.Var{Name: name}

	case typed.TypeRef:
		if _, isUniv := x.Denoted.(typed.TUniv); isUniv {
			return source.Universe{}
		}
		if v, isVar := x.Denoted.(typed.TVar); isVar {
			name := v.Name
			if r, ok := ren[name]; ok {
				name = r
			}
			return source.Var{Name: name}
		}
		return source.Var{Name: x.Denoted.(typed.TCtor).Name}

	case typed.CtorApp:
		if len(x.Args) == 0 {
			return source.Var{Name: x.Tag}
		}
		return source.Apply{Name: x.Tag, Args: quoteArgs(x.Args)}

	case typed.Call:
		if kind, ok := table.Kind(x.Name); ok && kind == typed.DeclDef {
			return source.DotApply{
				Receiver: quoteExp(table, x.Args[0], ren),
				Name:     x.Name,
				Args:     quoteArgs(x.Args[1:]),
			}
		}
		if len(x.Args) == 0 {
			return source.Var{Name: x.Name}
		}
		return source.Apply{Name: x.Name, Args: quoteArgs(x.Args)}

	case typed.Observe:
		return source.DotApply{
			Receiver: quoteExp(table, x.Receiver, ren),
			Name:     x.Tag,
			Args:     quoteArgs(x.Args),
		}

	case typed.Match:
		return source.Match{
			On:    quoteExp(table, x.On, ren),
			Cases: quoteLocalClauses(table, x.Cases, ren),
		}

	case typed.Comatch:
		return source.Comatch{Cases: quoteLocalClauses(table, x.Cases, ren)}

	case typed.Hole:
		return source.Hole{}
	}
	panic(common.NewSystemError("unhandled expression %T", e))
}

// quoteLocalClauses keeps local binders as written; a binder that
// shadows a renamed name suspends the renaming inside its body.
func quoteLocalClauses(table *typed.Table, clauses []typed.Clause, ren map[ast.Identifier]ast.Identifier) []source.Clause {
	return lo.Map(clauses, func(c typed.Clause, _ int) source.Clause {
		inner := ren
		for _, b := range c.Binds {
			if _, shadowed := ren[b]; shadowed {
				inner = shadowFree(ren, c.Binds)
				break
			}
		}
		return source.Clause{
			Tag:   c.Tag,
			Binds: c.Binds,
			Body:  quoteExp(table, c.Body, inner),
		}
	})
}

func shadowFree(ren map[ast.Identifier]ast.Identifier, binds []ast.Identifier) map[ast.Identifier]ast.Identifier {
	out := map[ast.Identifier]ast.Identifier{}
	for k, v := range ren {
		if !lo.Contains(binds, k) {
			out[k] = v
		}
	}
	return out
}
