package ast

// Identifier names a declaration. Type names, constructor and destructor
// tags, and def/codef names all live in one flat namespace so that
// dispatch by name is unambiguous.
type Identifier string

func (i Identifier) String() string {
	return string(i)
}

// KwType is the keyword denoting the sort of types when it appears in a
// parameter or field annotation.
const KwType Identifier = "Type"
