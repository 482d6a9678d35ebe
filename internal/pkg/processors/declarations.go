// Package processors contains the elaboration pipeline and the
// normalizer. Declarations flow through registration, signature
// resolution, coverage, productivity and definition elaboration; the
// sealed signature table is the pipeline's product and the normalizer's
// only input besides the terms it is asked to evaluate.
package processors

import (
	"github.com/samber/lo"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/ast/typed"
	"github.com/duality-lang/duality/internal/pkg/common"
)

// declWork pairs a source declaration with the typed declaration being
// built for it across the elaboration passes.
type declWork struct {
	data   *source.Data
	tdata  *typed.DataDecl
	codata *source.Codata
	tco    *typed.CodataDecl
	def    *source.Def
	tdef   *typed.Def
	codef  *source.Codef
	tcodef *typed.Codef
}

// Elaborate consumes a full module and produces the sealed signature
// table. Diagnostics are collected per declaration and per clause; a
// failing declaration does not stop the others from being checked.
func Elaborate(mod *source.Module) (*typed.Table, []error) {
	table := typed.NewTable()
	work, errs := registerDeclarations(table, mod)
	errs = append(errs, resolveSignatures(table, work)...)
	errs = append(errs, checkCoverage(table, work)...)
	errs = append(errs, checkProductivity(table, work)...)
	errs = append(errs, elaborateDefinitions(table, work)...)
	table.Seal()
	return table, errs
}

// registerDeclarations is pass 1: every name enters the namespace with
// an empty body, so mutually recursive declarations resolve regardless
// of their order in the source.
func registerDeclarations(table *typed.Table, mod *source.Module) ([]declWork, []error) {
	var work []declWork
	var errs []error

	for _, decl := range mod.Decls {
		switch d := decl.(type) {
		case *source.Data:
			td := &typed.DataDecl{Location: d.Location, Name: d.Name}
			if err := table.RegisterData(td); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, c := range d.Ctors {
				tc := typed.Ctor{Location: c.Location, Name: c.Name, Owner: d.Name}
				if err := table.RegisterCtor(&tc); err != nil {
					errs = append(errs, err)
					continue
				}
				td.Ctors = append(td.Ctors, tc)
			}
			work = append(work, declWork{data: d, tdata: td})

		case *source.Codata:
			td := &typed.CodataDecl{Location: d.Location, Name: d.Name}
			if err := table.RegisterCodata(td); err != nil {
				errs = append(errs, err)
				continue
			}
			for _, dt := range d.Dtors {
				tdt := typed.Dtor{Location: dt.Location, Name: dt.Name, Owner: d.Name}
				if err := table.RegisterDtor(&tdt); err != nil {
					errs = append(errs, err)
					continue
				}
				td.Dtors = append(td.Dtors, tdt)
			}
			work = append(work, declWork{codata: d, tco: td})

		case *source.Def:
			td := &typed.Def{Location: d.Location, Name: d.Name, Scrutinee: d.Scrutinee}
			if err := table.RegisterDef(td); err != nil {
				errs = append(errs, err)
				continue
			}
			work = append(work, declWork{def: d, tdef: td})

		case *source.Codef:
			tc := &typed.Codef{Location: d.Location, Name: d.Name, Result: d.Result}
			if err := table.RegisterCodef(tc); err != nil {
				errs = append(errs, err)
				continue
			}
			work = append(work, declWork{codef: d, tcodef: tc})

		default:
			panic(common.NewSystemError("unhandled declaration %T", decl))
		}
	}
	return work, errs
}

// resolveSignatures is pass 2: all field, parameter and return types
// are resolved against the now-complete namespace.
func resolveSignatures(table *typed.Table, work []declWork) []error {
	var errs []error
	for i := range work {
		w := &work[i]
		switch {
		case w.data != nil:
			// pair by name, not index: a constructor whose tag failed
			// to register is absent from the typed list, and pairing
			// positionally would shift every field list after it
			for j := range w.tdata.Ctors {
				tc := &w.tdata.Ctors[j]
				c, ok := lo.Find(w.data.Ctors, func(c source.Constructor) bool {
					return c.Name == tc.Name
				})
				if !ok {
					panic(common.NewSystemError("constructor `%s` has no source declaration", tc.Name))
				}
				fields, fieldErrs := resolveParams(table, c.Fields, nil)
				tc.Fields = fields
				errs = append(errs, fieldErrs...)
			}

		case w.codata != nil:
			for j := range w.tco.Dtors {
				tdt := &w.tco.Dtors[j]
				dt, ok := lo.Find(w.codata.Dtors, func(d source.Destructor) bool {
					return d.Name == tdt.Name
				})
				if !ok {
					panic(common.NewSystemError("destructor `%s` has no source declaration", tdt.Name))
				}
				params, paramErrs := resolveParams(table, dt.Params, nil)
				tdt.Params = params
				errs = append(errs, paramErrs...)
				ret, err := resolveTypeExpr(table, dt.Return, typeVarsOf(params))
				if err != nil {
					errs = append(errs, err)
					ret = typed.TUniv{}
				}
				tdt.Return = ret
			}

		case w.def != nil:
			errs = append(errs, resolveDefSignature(table, w)...)

		case w.codef != nil:
			errs = append(errs, resolveCodefSignature(table, w)...)
		}
	}
	return errs
}

func resolveDefSignature(table *typed.Table, w *declWork) []error {
	var errs []error
	if kind, ok := table.Kind(w.def.Scrutinee); !ok {
		errs = append(errs, common.NewError(common.KindUnknownIdentifier, w.def.Location,
			"undefined type `%s`", w.def.Scrutinee))
	} else if kind == typed.DeclCodata {
		errs = append(errs, common.NewError(common.KindTypeMismatch, w.def.Location,
			"cannot match on codata type `%s`", w.def.Scrutinee))
	} else if kind != typed.DeclData {
		errs = append(errs, common.NewError(common.KindTypeMismatch, w.def.Location,
			"def `%s` must match on a data type, `%s` is a %s", w.def.Name, w.def.Scrutinee, kind))
	}
	params, paramErrs := resolveParams(table, w.def.Params, nil)
	w.tdef.Params = params
	errs = append(errs, paramErrs...)
	ret, err := resolveTypeExpr(table, w.def.Return, typeVarsOf(params))
	if err != nil {
		errs = append(errs, err)
		ret = typed.TUniv{}
	}
	w.tdef.Return = ret
	return errs
}

func resolveCodefSignature(table *typed.Table, w *declWork) []error {
	var errs []error
	if kind, ok := table.Kind(w.codef.Result); !ok {
		errs = append(errs, common.NewError(common.KindUnknownIdentifier, w.codef.Location,
			"undefined type `%s`", w.codef.Result))
	} else if kind == typed.DeclData {
		errs = append(errs, common.NewError(common.KindTypeMismatch, w.codef.Location,
			"cannot comatch on data type `%s`", w.codef.Result))
	} else if kind != typed.DeclCodata {
		errs = append(errs, common.NewError(common.KindTypeMismatch, w.codef.Location,
			"codef `%s` must produce a codata type, `%s` is a %s", w.codef.Name, w.codef.Result, kind))
	}
	params, paramErrs := resolveParams(table, w.codef.Params, nil)
	w.tcodef.Params = params
	errs = append(errs, paramErrs...)
	return errs
}

// resolveParams resolves a parameter or field list left to right.
// A Type-sorted parameter brings its name into scope as a type
// variable for every annotation after it.
func resolveParams(table *typed.Table, params []source.Param, outerVars map[ast.Identifier]struct{}) ([]typed.Param, []error) {
	var errs []error
	vars := map[ast.Identifier]struct{}{}
	for v := range outerVars {
		vars[v] = struct{}{}
	}
	out := make([]typed.Param, 0, len(params))
	for _, p := range params {
		t, err := resolveTypeExpr(table, p.Type, vars)
		if err != nil {
			errs = append(errs, err)
			t = typed.TUniv{}
		}
		if _, isUniv := t.(typed.TUniv); isUniv {
			vars[p.Name] = struct{}{}
		}
		out = append(out, typed.Param{Name: p.Name, Type: t})
	}
	return out, errs
}

func typeVarsOf(params []typed.Param) map[ast.Identifier]struct{} {
	vars := map[ast.Identifier]struct{}{}
	for _, p := range params {
		if p.IsTypeSorted() {
			vars[p.Name] = struct{}{}
		}
	}
	return vars
}

func resolveTypeExpr(table *typed.Table, te source.TypeExpr, typeVars map[ast.Identifier]struct{}) (typed.Type, error) {
	switch t := te.(type) {
	case source.TUniverse:
		return typed.TUniv{}, nil
	case source.TNamed:
		if _, ok := typeVars[t.Name]; ok {
			return typed.TVar{Name: t.Name}, nil
		}
		if table.IsType(t.Name) {
			return typed.TCtor{Name: t.Name}, nil
		}
		return nil, common.NewError(common.KindUnknownIdentifier, t.Location,
			"undefined type `%s`", t.Name)
	}
	panic(common.NewSystemError("unhandled type expression %T", te))
}
