package typed

import (
	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/common"
)

// DeclKind tells what a name in the global namespace stands for.
type DeclKind uint8

const (
	DeclData DeclKind = iota
	DeclCodata
	DeclCtor
	DeclDtor
	DeclDef
	DeclCodef
)

func (k DeclKind) String() string {
	switch k {
	case DeclData:
		return "data type"
	case DeclCodata:
		return "codata type"
	case DeclCtor:
		return "constructor"
	case DeclDtor:
		return "destructor"
	case DeclDef:
		return "def"
	case DeclCodef:
		return "codef"
	}
	return "declaration"
}

// Table is the signature table: the single registry of every declared
// name in a program. It is populated by the declaration elaborator and
// sealed before type checking starts; later phases only read it.
type Table struct {
	sealed bool

	typeOrder []ast.Identifier
	defOrder  []ast.Identifier

	kinds  map[ast.Identifier]DeclKind
	locs   map[ast.Identifier]ast.Location
	data   map[ast.Identifier]*DataDecl
	codata map[ast.Identifier]*CodataDecl
	defs   map[ast.Identifier]*Def
	codefs map[ast.Identifier]*Codef
	owners map[ast.Identifier]ast.Identifier
}

func NewTable() *Table {
	return &Table{
		kinds:  map[ast.Identifier]DeclKind{},
		locs:   map[ast.Identifier]ast.Location{},
		data:   map[ast.Identifier]*DataDecl{},
		codata: map[ast.Identifier]*CodataDecl{},
		defs:   map[ast.Identifier]*Def{},
		codefs: map[ast.Identifier]*Codef{},
		owners: map[ast.Identifier]ast.Identifier{},
	}
}

// Seal freezes the table. Any further registration is an internal bug.
func (t *Table) Seal() {
	t.sealed = true
}

func (t *Table) register(name ast.Identifier, kind DeclKind, loc ast.Location) error {
	if t.sealed {
		panic(common.NewSystemError("registering %s into a sealed table", name))
	}
	if prevKind, ok := t.kinds[name]; ok {
		err := common.NewError(common.KindDuplicateDeclaration, loc,
			"`%s` is already declared as a %s", name, prevKind)
		err.Extra = []ast.Location{t.locs[name]}
		return err
	}
	t.kinds[name] = kind
	t.locs[name] = loc
	return nil
}

func (t *Table) RegisterData(d *DataDecl) error {
	if err := t.register(d.Name, DeclData, d.Location); err != nil {
		return err
	}
	t.data[d.Name] = d
	t.typeOrder = append(t.typeOrder, d.Name)
	return nil
}

func (t *Table) RegisterCodata(d *CodataDecl) error {
	if err := t.register(d.Name, DeclCodata, d.Location); err != nil {
		return err
	}
	t.codata[d.Name] = d
	t.typeOrder = append(t.typeOrder, d.Name)
	return nil
}

// RegisterCtor puts a constructor tag into the shared tag namespace.
// The constructor itself lives in its owning DataDecl.
func (t *Table) RegisterCtor(c *Ctor) error {
	if err := t.register(c.Name, DeclCtor, c.Location); err != nil {
		return err
	}
	t.owners[c.Name] = c.Owner
	return nil
}

func (t *Table) RegisterDtor(d *Dtor) error {
	if err := t.register(d.Name, DeclDtor, d.Location); err != nil {
		return err
	}
	t.owners[d.Name] = d.Owner
	return nil
}

func (t *Table) RegisterDef(d *Def) error {
	if err := t.register(d.Name, DeclDef, d.Location); err != nil {
		return err
	}
	t.defs[d.Name] = d
	t.defOrder = append(t.defOrder, d.Name)
	return nil
}

func (t *Table) RegisterCodef(c *Codef) error {
	if err := t.register(c.Name, DeclCodef, c.Location); err != nil {
		return err
	}
	t.codefs[c.Name] = c
	t.defOrder = append(t.defOrder, c.Name)
	return nil
}

func (t *Table) Kind(name ast.Identifier) (DeclKind, bool) {
	k, ok := t.kinds[name]
	return k, ok
}

func (t *Table) Location(name ast.Identifier) ast.Location {
	return t.locs[name]
}

// IsType reports whether name is a declared data or codata type.
func (t *Table) IsType(name ast.Identifier) bool {
	k, ok := t.kinds[name]
	return ok && (k == DeclData || k == DeclCodata)
}

func (t *Table) Data(name ast.Identifier) (*DataDecl, error) {
	if d, ok := t.data[name]; ok {
		return d, nil
	}
	return nil, t.wrongKind(name, "data type")
}

func (t *Table) Codata(name ast.Identifier) (*CodataDecl, error) {
	if d, ok := t.codata[name]; ok {
		return d, nil
	}
	return nil, t.wrongKind(name, "codata type")
}

func (t *Table) Def(name ast.Identifier) (*Def, error) {
	if d, ok := t.defs[name]; ok {
		return d, nil
	}
	return nil, t.wrongKind(name, "def")
}

func (t *Table) Codef(name ast.Identifier) (*Codef, error) {
	if c, ok := t.codefs[name]; ok {
		return c, nil
	}
	return nil, t.wrongKind(name, "codef")
}

func (t *Table) wrongKind(name ast.Identifier, wanted string) error {
	if kind, ok := t.kinds[name]; ok {
		return common.NewError(common.KindTypeMismatch, t.locs[name],
			"expected `%s` to be a %s, but it is a %s", name, wanted, kind)
	}
	return common.NewError(common.KindUnknownIdentifier, ast.Location{},
		"undefined declaration `%s`", name)
}

// Ctor resolves a constructor tag to its declaration and owning type.
func (t *Table) Ctor(tag ast.Identifier) (*Ctor, *DataDecl, error) {
	owner, ok := t.owners[tag]
	if !ok || t.kinds[tag] != DeclCtor {
		return nil, nil, t.wrongKind(tag, "constructor")
	}
	decl := t.data[owner]
	for i := range decl.Ctors {
		if decl.Ctors[i].Name == tag {
			return &decl.Ctors[i], decl, nil
		}
	}
	panic(common.NewSystemError("constructor `%s` missing from its owner `%s`", tag, owner))
}

// Dtor resolves a destructor tag to its declaration and owning type.
func (t *Table) Dtor(tag ast.Identifier) (*Dtor, *CodataDecl, error) {
	owner, ok := t.owners[tag]
	if !ok || t.kinds[tag] != DeclDtor {
		return nil, nil, t.wrongKind(tag, "destructor")
	}
	decl := t.codata[owner]
	for i := range decl.Dtors {
		if decl.Dtors[i].Name == tag {
			return &decl.Dtors[i], decl, nil
		}
	}
	panic(common.NewSystemError("destructor `%s` missing from its owner `%s`", tag, owner))
}

// DataTypes returns all data declarations in source order.
func (t *Table) DataTypes() []*DataDecl {
	var out []*DataDecl
	for _, name := range t.typeOrder {
		if d, ok := t.data[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (t *Table) CodataTypes() []*CodataDecl {
	var out []*CodataDecl
	for _, name := range t.typeOrder {
		if d, ok := t.codata[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (t *Table) Defs() []*Def {
	var out []*Def
	for _, name := range t.defOrder {
		if d, ok := t.defs[name]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (t *Table) Codefs() []*Codef {
	var out []*Codef
	for _, name := range t.defOrder {
		if c, ok := t.codefs[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// DefsOver returns the defs matching on the given data type, in source
// order.
func (t *Table) DefsOver(typeName ast.Identifier) []*Def {
	var out []*Def
	for _, d := range t.Defs() {
		if d.Scrutinee == typeName {
			out = append(out, d)
		}
	}
	return out
}

// CodefsOf returns the codefs producing the given codata type, in
// source order.
func (t *Table) CodefsOf(typeName ast.Identifier) []*Codef {
	var out []*Codef
	for _, c := range t.Codefs() {
		if c.Result == typeName {
			out = append(out, c)
		}
	}
	return out
}
