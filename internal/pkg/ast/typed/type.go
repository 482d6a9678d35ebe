// Package typed holds the elaborated program: the signature table and
// the type-annotated declaration and expression trees. Types reference
// declarations by name through the table rather than structurally, so
// mutually recursive declarations stay finite in memory.
package typed

import (
	"github.com/duality-lang/duality/internal/pkg/ast"
)

// Type is a resolved type: a named data/codata type, a Type-sorted
// parameter, or the universe itself. Equality is nominal.
type Type interface {
	Code() string
	EqualsTo(other Type) bool
	Subst(subst map[ast.Identifier]Type) Type
	typ()
}

// TCtor references a declared data or codata type by name.
type TCtor struct {
	Name ast.Identifier
}

func (t TCtor) typ()         {}
func (t TCtor) Code() string { return string(t.Name) }

func (t TCtor) EqualsTo(other Type) bool {
	o, ok := other.(TCtor)
	return ok && o.Name == t.Name
}

func (t TCtor) Subst(map[ast.Identifier]Type) Type { return t }

// TVar references a Type-sorted parameter bound earlier in the
// enclosing signature or clause.
type TVar struct {
	Name ast.Identifier
}

func (t TVar) typ()         {}
func (t TVar) Code() string { return string(t.Name) }

func (t TVar) EqualsTo(other Type) bool {
	o, ok := other.(TVar)
	return ok && o.Name == t.Name
}

func (t TVar) Subst(subst map[ast.Identifier]Type) Type {
	if r, ok := subst[t.Name]; ok {
		return r
	}
	return t
}

// TUniv is the sort of types.
type TUniv struct{}

func (t TUniv) typ()         {}
func (t TUniv) Code() string { return string(ast.KwType) }

func (t TUniv) EqualsTo(other Type) bool {
	_, ok := other.(TUniv)
	return ok
}

func (t TUniv) Subst(map[ast.Identifier]Type) Type { return t }
