package source

import (
	"github.com/duality-lang/duality/internal/pkg/ast"
)

// TypeExpr is an unresolved type annotation. Name resolution decides
// whether a TNamed refers to a declared data/codata type or to a
// Type-sorted parameter bound earlier in the same signature.
type TypeExpr interface {
	Coder
	TypeLocation() ast.Location
	typeExpr()
}

type TNamed struct {
	Location ast.Location
	Name     ast.Identifier
}

func (t TNamed) typeExpr()                  {}
func (t TNamed) TypeLocation() ast.Location { return t.Location }
func (t TNamed) Code() string               { return string(t.Name) }

// TUniverse is the sort `Type` used as an annotation, marking a
// dependent type parameter.
type TUniverse struct {
	Location ast.Location
}

func (t TUniverse) typeExpr()                  {}
func (t TUniverse) TypeLocation() ast.Location { return t.Location }
func (t TUniverse) Code() string               { return string(ast.KwType) }
