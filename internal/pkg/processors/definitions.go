package processors

import (
	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
)

// scope maps local names to their types during expression elaboration.
// A name bound at the universe is a type variable: it may appear both
// in annotations and as a type-valued argument.
type scope struct {
	vars map[ast.Identifier]typed.Type
}

func newScope() scope {
	return scope{vars: map[ast.Identifier]typed.Type{}}
}

func (s scope) child() scope {
	out := newScope()
	for k, v := range s.vars {
		out.vars[k] = v
	}
	return out
}

func (s scope) bind(name ast.Identifier, t typed.Type) {
	s.vars[name] = t
}

func (s scope) lookup(name ast.Identifier) (typed.Type, bool) {
	t, ok := s.vars[name]
	return t, ok
}

// typeVars returns the names usable in type position: everything bound
// at the universe.
func (s scope) typeVars() map[ast.Identifier]struct{} {
	out := map[ast.Identifier]struct{}{}
	for name, t := range s.vars {
		if _, ok := t.(typed.TUniv); ok {
			out[name] = struct{}{}
		}
	}
	return out
}

// elaborateDefinitions is the final pass: clause bodies are elaborated
// into typed expressions and checked against their declared types.
func elaborateDefinitions(table *typed.Table, work []declWork) []error {
	var errs []error
	for i := range work {
		w := &work[i]
		switch {
		case w.def != nil:
			errs = append(errs, elaborateDefBody(table, w)...)
		case w.codef != nil:
			errs = append(errs, elaborateCodefBody(table, w)...)
		}
	}
	return errs
}

func elaborateDefBody(table *typed.Table, w *declWork) []error {
	var errs []error
	sc := newScope()
	for _, p := range w.tdef.Params {
		sc.bind(p.Name, p.Type)
	}
	for _, c := range w.def.Clauses {
		ctor, _, err := table.Ctor(c.Tag)
		if err != nil || ctor.Owner != w.def.Scrutinee {
			continue // coverage already reported the stray tag
		}
		clauseScope, bindErrs := bindPattern(sc, c, ctor.Fields)
		errs = append(errs, bindErrs...)
		body, bodyErrs := elaborateExp(table, clauseScope, c.Body, w.tdef.Return)
		errs = append(errs, bodyErrs...)
		w.tdef.Clauses = append(w.tdef.Clauses, typed.Clause{
			Location: c.Location, Tag: c.Tag, Binds: c.Binds, Body: body,
		})
	}
	return errs
}

func elaborateCodefBody(table *typed.Table, w *declWork) []error {
	var errs []error
	sc := newScope()
	for _, p := range w.tcodef.Params {
		sc.bind(p.Name, p.Type)
	}
	for _, c := range w.codef.Clauses {
		dtor, _, err := table.Dtor(c.Tag)
		if err != nil || dtor.Owner != w.codef.Result {
			continue
		}
		clauseScope, want, bindErrs := bindCopattern(sc, c, dtor)
		errs = append(errs, bindErrs...)
		body, bodyErrs := elaborateExp(table, clauseScope, c.Body, want)
		errs = append(errs, bodyErrs...)
		w.tcodef.Clauses = append(w.tcodef.Clauses, typed.Clause{
			Location: c.Location, Tag: c.Tag, Binds: c.Binds, Body: body,
		})
	}
	return errs
}

// bindPattern brings a pattern clause's binders into scope. Each binder
// receives the corresponding constructor field's type; a Type-sorted
// field additionally rewrites later field types to mention the binder
// instead of the field name.
func bindPattern(sc scope, c source.Clause, fields []typed.Param) (scope, []error) {
	out := sc.child()
	if len(c.Binds) != len(fields) {
		return out, []error{common.NewError(common.KindArityMismatch, c.Location,
			"pattern `%s` binds %d names, constructor has %d fields", c.Tag, len(c.Binds), len(fields))}
	}
	subst := map[ast.Identifier]typed.Type{}
	for i, b := range c.Binds {
		t := fields[i].Type.Subst(subst)
		if fields[i].IsTypeSorted() {
			subst[fields[i].Name] = typed.TVar{Name: b}
		}
		out.bind(b, t)
	}
	return out, nil
}

// bindCopattern does the same for a copattern clause over a destructor,
// and returns the expected body type under the rewriting.
func bindCopattern(sc scope, c source.Clause, dtor *typed.Dtor) (scope, typed.Type, []error) {
	out := sc.child()
	if len(c.Binds) != len(dtor.Params) {
		return out, dtor.Return, []error{common.NewError(common.KindArityMismatch, c.Location,
			"copattern `%s` binds %d names, destructor has %d parameters", c.Tag, len(c.Binds), len(dtor.Params))}
	}
	subst := map[ast.Identifier]typed.Type{}
	for i, b := range c.Binds {
		t := dtor.Params[i].Type.Subst(subst)
		if dtor.Params[i].IsTypeSorted() {
			subst[dtor.Params[i].Name] = typed.TVar{Name: b}
		}
		out.bind(b, t)
	}
	return out, dtor.Return.Subst(subst), nil
}

// ElaborateExpression checks a standalone expression against the sealed
// table, for the evaluator and the repl. Pass nil to infer the type.
func ElaborateExpression(table *typed.Table, e source.Expression, want typed.Type) (typed.Expression, []error) {
	return elaborateExp(table, newScope(), e, want)
}

// elaborateExp infers the typed form of an expression. When want is
// non-nil the result is additionally checked against it; holes and
// caseless (co)matches take their type from want.
func elaborateExp(table *typed.Table, sc scope, e source.Expression, want typed.Type) (typed.Expression, []error) {
	switch x := e.(type) {
	case source.Var:
		return elaborateVar(table, sc, x, want)

	case source.Universe:
		out := typed.TypeRef{Location: x.Location, Denoted: typed.TUniv{}}
		return out, checkExpected(x.Location, out.ExpType(), want)

	case source.Apply:
		return elaborateApply(table, sc, x, want)

	case source.DotApply:
		return elaborateDotApply(table, sc, x, want)

	case source.Match:
		return elaborateMatch(table, sc, x, want)

	case source.Comatch:
		return elaborateComatch(table, sc, x, want)

	case source.Anno:
		t, err := resolveTypeExpr(table, x.Type, sc.typeVars())
		if err != nil {
			return typed.Hole{Location: x.Location, T: typed.TUniv{}}, []error{err}
		}
		// annotations are erased once checked
		inner, errs := elaborateExp(table, sc, x.Exp, t)
		errs = append(errs, checkExpected(x.Location, t, want)...)
		return inner, errs

	case source.Hole:
		t := want
		if t == nil {
			t = typed.TUniv{}
		}
		return typed.Hole{Location: x.Location, T: t}, nil
	}
	panic(common.NewSystemError("unhandled expression %T", e))
}

func elaborateVar(table *typed.Table, sc scope, x source.Var, want typed.Type) (typed.Expression, []error) {
	if t, ok := sc.lookup(x.Name); ok {
		if _, isUniv := t.(typed.TUniv); isUniv {
			out := typed.TypeRef{Location: x.Location, Denoted: typed.TVar{Name: x.Name}}
			return out, checkExpected(x.Location, typed.TUniv{}, want)
		}
		out := typed.Var{Location: x.Location, Name: x.Name, T: t}
		return out, checkExpected(x.Location, t, want)
	}
	kind, ok := table.Kind(x.Name)
	if !ok {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			[]error{common.NewError(common.KindUnknownIdentifier, x.Location, "undefined name `%s`", x.Name)}
	}
	switch kind {
	case typed.DeclData, typed.DeclCodata:
		out := typed.TypeRef{Location: x.Location, Denoted: typed.TCtor{Name: x.Name}}
		return out, checkExpected(x.Location, typed.TUniv{}, want)
	case typed.DeclCtor, typed.DeclCodef:
		// bare reference to a nullary constructor or codef
		return elaborateApply(table, sc, source.Apply{Location: x.Location, Name: x.Name}, want)
	}
	return typed.Hole{Location: x.Location, T: typed.TUniv{}},
		[]error{common.NewError(common.KindTypeMismatch, x.Location,
			"`%s` is a %s and cannot be used as a value", x.Name, kind)}
}

func elaborateApply(table *typed.Table, sc scope, x source.Apply, want typed.Type) (typed.Expression, []error) {
	if _, local := sc.lookup(x.Name); local {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			[]error{common.NewError(common.KindTypeMismatch, x.Location,
				"local `%s` is not callable", x.Name)}
	}
	kind, ok := table.Kind(x.Name)
	if !ok {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			[]error{common.NewError(common.KindUnknownIdentifier, x.Location, "undefined name `%s`", x.Name)}
	}
	switch kind {
	case typed.DeclCtor:
		ctor, _, err := table.Ctor(x.Name)
		if err != nil {
			panic(common.NewSystemError("constructor `%s` lost after registration", x.Name))
		}
		args, _, errs := elaborateArgs(table, sc, x.Location, x.Name, x.Args, ctor.Fields)
		out := typed.CtorApp{Location: x.Location, Tag: x.Name, Args: args, T: typed.TCtor{Name: ctor.Owner}}
		return out, append(errs, checkExpected(x.Location, out.T, want)...)

	case typed.DeclCodef:
		codef, err := table.Codef(x.Name)
		if err != nil {
			panic(common.NewSystemError("codef `%s` lost after registration", x.Name))
		}
		args, _, errs := elaborateArgs(table, sc, x.Location, x.Name, x.Args, codef.Params)
		out := typed.Call{Location: x.Location, Name: x.Name, Args: args, T: typed.TCtor{Name: codef.Result}}
		return out, append(errs, checkExpected(x.Location, out.T, want)...)

	case typed.DeclDef:
		// call style: the first argument is the scrutinee
		def, err := table.Def(x.Name)
		if err != nil {
			panic(common.NewSystemError("def `%s` lost after registration", x.Name))
		}
		if len(x.Args) == 0 {
			return typed.Hole{Location: x.Location, T: typed.TUniv{}},
				[]error{common.NewError(common.KindArityMismatch, x.Location,
					"def `%s` needs a `%s` value to match on", x.Name, def.Scrutinee)}
		}
		recv, errs := elaborateExp(table, sc, x.Args[0], typed.TCtor{Name: def.Scrutinee})
		args, subst, argErrs := elaborateArgs(table, sc, x.Location, x.Name, x.Args[1:], def.Params)
		errs = append(errs, argErrs...)
		out := typed.Call{
			Location: x.Location, Name: x.Name,
			Args: append([]typed.Expression{recv}, args...),
			T:    def.Return.Subst(subst),
		}
		return out, append(errs, checkExpected(x.Location, out.T, want)...)
	}
	return typed.Hole{Location: x.Location, T: typed.TUniv{}},
		[]error{common.NewError(common.KindTypeMismatch, x.Location,
			"`%s` is a %s and cannot be applied", x.Name, kind)}
}

func elaborateDotApply(table *typed.Table, sc scope, x source.DotApply, want typed.Type) (typed.Expression, []error) {
	kind, ok := table.Kind(x.Name)
	if !ok {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			[]error{common.NewError(common.KindUnknownIdentifier, x.Location, "undefined name `%s`", x.Name)}
	}
	switch kind {
	case typed.DeclDtor:
		dtor, _, err := table.Dtor(x.Name)
		if err != nil {
			panic(common.NewSystemError("destructor `%s` lost after registration", x.Name))
		}
		recv, errs := elaborateExp(table, sc, x.Receiver, typed.TCtor{Name: dtor.Owner})
		args, subst, argErrs := elaborateArgs(table, sc, x.Location, x.Name, x.Args, dtor.Params)
		errs = append(errs, argErrs...)
		out := typed.Observe{
			Location: x.Location, Receiver: recv, Tag: x.Name, Args: args,
			T: dtor.Return.Subst(subst),
		}
		return out, append(errs, checkExpected(x.Location, out.T, want)...)

	case typed.DeclDef:
		// receiver style desugars to a call with the receiver first
		return elaborateApply(table, sc, source.Apply{
			Location: x.Location, Name: x.Name,
			Args: append([]source.Expression{x.Receiver}, x.Args...),
		}, want)
	}
	return typed.Hole{Location: x.Location, T: typed.TUniv{}},
		[]error{common.NewError(common.KindTypeMismatch, x.Location,
			"`%s` is a %s, expected a destructor or def after `.`", x.Name, kind)}
}

func elaborateMatch(table *typed.Table, sc scope, x source.Match, want typed.Type) (typed.Expression, []error) {
	on, errs := elaborateExp(table, sc, x.On, nil)
	named, isNamed := on.ExpType().(typed.TCtor)
	if !isNamed {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			append(errs, common.NewError(common.KindTypeMismatch, x.On.ExpLocation(),
				"cannot match on a value of type `%s`", on.ExpType().Code()))
	}
	decl, err := table.Data(named.Name)
	if err != nil {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			append(errs, common.NewError(common.KindTypeMismatch, x.On.ExpLocation(),
				"cannot match on `%s`, it is not a data type", named.Name))
	}
	errs = append(errs, checkClauseSet(common.KindPatternCoverage, x.Location, x.Cases, decl.CtorNames())...)

	var cases []typed.Clause
	resultT := want
	for _, c := range x.Cases {
		ctor, _, err := table.Ctor(c.Tag)
		if err != nil || ctor.Owner != decl.Name {
			continue
		}
		clauseScope, bindErrs := bindPattern(sc, c, ctor.Fields)
		errs = append(errs, bindErrs...)
		body, bodyErrs := elaborateExp(table, clauseScope, c.Body, resultT)
		errs = append(errs, bodyErrs...)
		if resultT == nil {
			resultT = body.ExpType() // later arms must agree with the first
		}
		cases = append(cases, typed.Clause{Location: c.Location, Tag: c.Tag, Binds: c.Binds, Body: body})
	}
	if resultT == nil {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			append(errs, common.NewError(common.KindTypeMismatch, x.Location,
				"cannot infer the type of a match with no cases, annotate it"))
	}
	return typed.Match{Location: x.Location, On: on, Cases: cases, T: resultT}, errs
}

func elaborateComatch(table *typed.Table, sc scope, x source.Comatch, want typed.Type) (typed.Expression, []error) {
	owner, errs := comatchOwner(table, x, want)
	if owner == "" {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}}, errs
	}
	decl, err := table.Codata(owner)
	if err != nil {
		return typed.Hole{Location: x.Location, T: typed.TUniv{}},
			append(errs, common.NewError(common.KindTypeMismatch, x.Location,
				"cannot comatch at `%s`, it is not a codata type", owner))
	}
	errs = append(errs, checkClauseSet(common.KindCopatternCoverage, x.Location, x.Cases, decl.DtorNames())...)

	var cases []typed.Clause
	for _, c := range x.Cases {
		dtor, _, err := table.Dtor(c.Tag)
		if err != nil || dtor.Owner != owner {
			continue
		}
		clauseScope, bodyWant, bindErrs := bindCopattern(sc, c, dtor)
		errs = append(errs, bindErrs...)
		body, bodyErrs := elaborateExp(table, clauseScope, c.Body, bodyWant)
		errs = append(errs, bodyErrs...)
		cases = append(cases, typed.Clause{Location: c.Location, Tag: c.Tag, Binds: c.Binds, Body: body})
	}
	out := typed.Comatch{Location: x.Location, Cases: cases, T: typed.TCtor{Name: owner}}
	return out, append(errs, checkExpected(x.Location, out.T, want)...)
}

// comatchOwner finds which codata type a comatch builds: from the
// expected type when there is one, otherwise from the first cocase tag.
func comatchOwner(table *typed.Table, x source.Comatch, want typed.Type) (ast.Identifier, []error) {
	if named, ok := want.(typed.TCtor); ok {
		return named.Name, nil
	}
	for _, c := range x.Cases {
		if dtor, _, err := table.Dtor(c.Tag); err == nil {
			return dtor.Owner, nil
		}
	}
	return "", []error{common.NewError(common.KindTypeMismatch, x.Location,
		"cannot infer the codata type of this comatch, annotate it")}
}

// elaborateArgs checks an argument list against a parameter list,
// threading the substitution that dependent parameters induce: once a
// Type-sorted parameter is instantiated, every later parameter type is
// rewritten with that instantiation. The substitution is also what the
// caller applies to the result type.
func elaborateArgs(table *typed.Table, sc scope, loc ast.Location, name ast.Identifier,
	args []source.Expression, params []typed.Param) ([]typed.Expression, map[ast.Identifier]typed.Type, []error) {

	subst := map[ast.Identifier]typed.Type{}
	if len(args) != len(params) {
		return nil, subst, []error{common.NewError(common.KindArityMismatch, loc,
			"`%s` expects %d arguments, got %d", name, len(params), len(args))}
	}
	var errs []error
	out := make([]typed.Expression, 0, len(args))
	for i, a := range args {
		wantT := params[i].Type.Subst(subst)
		arg, argErrs := elaborateExp(table, sc, a, wantT)
		errs = append(errs, argErrs...)
		if params[i].IsTypeSorted() {
			if ref, ok := arg.(typed.TypeRef); ok {
				subst[params[i].Name] = ref.Denoted
			} else if _, isHole := arg.(typed.Hole); !isHole {
				errs = append(errs, common.NewError(common.KindTypeMismatch, a.ExpLocation(),
					"argument for `%s` must be a type", params[i].Name))
			}
		}
		out = append(out, arg)
	}
	return out, subst, errs
}

// checkExpected compares an inferred type against an expected one.
// A nil expectation always passes.
func checkExpected(loc ast.Location, got typed.Type, want typed.Type) []error {
	if want == nil || got.EqualsTo(want) {
		return nil
	}
	return []error{common.NewError(common.KindTypeMismatch, loc,
		"expected `%s`, found `%s`", want.Code(), got.Code())}
}
