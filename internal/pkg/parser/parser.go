// Package parser reads the surface syntax for data/codata declarations
// and pattern/copattern definitions into the source AST. It is a thin
// frontend: the elaborator consumes any well-formed *source.Module and
// does not depend on this package.
package parser

import (
	"os"
	"unicode"

	"github.com/pkg/errors"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/duality-lang/duality/internal/pkg/ast/source"
	"github.com/duality-lang/duality/internal/pkg/common"
)

const (
	kwData    = "data"
	kwCodata  = "codata"
	kwDef     = "def"
	kwCodef   = "codef"
	kwMatch   = "match"
	kwComatch = "comatch"

	seqComment    = "//"
	seqClauseBind = "=>"
)

// Parse reads and parses one module file.
func Parse(filePath string) (*source.Module, []error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, []error{errors.Wrapf(err, "failed to read module `%s`", filePath)}
	}
	return ParseWithContent(filePath, string(data))
}

// ParseWithContent parses module source text. filePath is only used for
// diagnostic locations.
func ParseWithContent(filePath string, fileContent string) (*source.Module, []error) {
	src := &reader{filePath: filePath, text: []rune(fileContent)}
	return parseModule(src)
}

// ParseExpression parses a standalone expression, as typed at the repl
// or passed to `eval -e`.
func ParseExpression(text string) (source.Expression, error) {
	src := &reader{filePath: "<expression>", text: []rune(text)}
	skipWhiteSpace(src)
	e, err := parseExpression(src)
	if err != nil {
		return nil, err
	}
	if isOk(src) {
		return nil, newError(src, "unexpected trailing input")
	}
	return e, nil
}

type reader struct {
	filePath string
	cursor   uint32
	text     []rune
}

func isOk(src *reader) bool {
	return src.cursor < uint32(len(src.text))
}

func loc(src *reader, start uint32) ast.Location {
	return ast.NewLocation(src.filePath, src.text, start, src.cursor)
}

func newError(src *reader, format string, args ...any) error {
	return common.NewError(common.KindSyntax,
		ast.NewLocationCursor(src.filePath, src.text, src.cursor), format, args...)
}

func skipWhiteSpace(src *reader) {
	for isOk(src) {
		c := src.text[src.cursor]
		if unicode.IsSpace(c) {
			src.cursor++
			continue
		}
		if c == '/' && readSequence(src, seqComment) {
			for isOk(src) && src.text[src.cursor] != '\n' {
				src.cursor++
			}
			continue
		}
		break
	}
}

// readSequence consumes value exactly, or leaves the cursor untouched.
func readSequence(src *reader, value string) bool {
	start := src.cursor
	for _, c := range value {
		if !isOk(src) || src.text[src.cursor] != c {
			src.cursor = start
			return false
		}
		src.cursor++
	}
	return true
}

// readExact consumes value plus trailing whitespace.
func readExact(src *reader, value string) bool {
	if !readSequence(src, value) {
		return false
	}
	skipWhiteSpace(src)
	return true
}

func isIdentChar(c rune, first bool) bool {
	if unicode.IsLetter(c) {
		return true
	}
	return !first && (c == '_' || unicode.IsDigit(c))
}

// readIdentifier returns nil when the cursor is not at an identifier.
func readIdentifier(src *reader) *ast.Identifier {
	start := src.cursor
	for isOk(src) && isIdentChar(src.text[src.cursor], src.cursor == start) {
		src.cursor++
	}
	if src.cursor == start {
		return nil
	}
	id := ast.Identifier(src.text[start:src.cursor])
	skipWhiteSpace(src)
	return &id
}

// readKeyword consumes kw only when it is a whole word.
func readKeyword(src *reader, kw string) bool {
	start := src.cursor
	if !readSequence(src, kw) {
		return false
	}
	if isOk(src) && isIdentChar(src.text[src.cursor], false) {
		src.cursor = start
		return false
	}
	skipWhiteSpace(src)
	return true
}

func parseModule(src *reader) (*source.Module, []error) {
	module := &source.Module{Name: src.filePath}
	var errs []error
	skipWhiteSpace(src)
	for isOk(src) {
		decl, err := parseDeclaration(src)
		if err != nil {
			errs = append(errs, err)
			if !skipToNextDeclaration(src) {
				break
			}
			continue
		}
		module.Decls = append(module.Decls, decl)
	}
	return module, errs
}

// skipToNextDeclaration recovers after a parse error by scanning for
// the next top-level keyword, so one bad declaration does not hide
// diagnostics for the rest of the file.
func skipToNextDeclaration(src *reader) bool {
	for isOk(src) {
		for _, kw := range []string{kwData, kwCodata, kwDef, kwCodef} {
			start := src.cursor
			if readKeyword(src, kw) {
				src.cursor = start
				return true
			}
		}
		src.cursor++
	}
	return false
}

func parseDeclaration(src *reader) (source.Declaration, error) {
	switch {
	case readKeyword(src, kwData):
		return parseData(src)
	case readKeyword(src, kwCodata):
		return parseCodata(src)
	case readKeyword(src, kwDef):
		return parseDef(src)
	case readKeyword(src, kwCodef):
		return parseCodef(src)
	}
	return nil, newError(src, "expected `data`, `codata`, `def` or `codef`")
}

func parseData(src *reader) (*source.Data, error) {
	start := src.cursor
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a data type name")
	}
	decl := &source.Data{Name: *name}
	if !readExact(src, "{") {
		return nil, newError(src, "expected `{` after `data %s`", *name)
	}
	for !readExact(src, "}") {
		ctor, err := parseConstructor(src)
		if err != nil {
			return nil, err
		}
		decl.Ctors = append(decl.Ctors, *ctor)
		if !readExact(src, ",") && !isAt(src, '}') {
			return nil, newError(src, "expected `,` or `}` in `data %s`", *name)
		}
	}
	decl.Location = loc(src, start)
	return decl, nil
}

func parseConstructor(src *reader) (*source.Constructor, error) {
	start := src.cursor
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a constructor name")
	}
	fields, err := parseParams(src)
	if err != nil {
		return nil, err
	}
	return &source.Constructor{Location: loc(src, start), Name: *name, Fields: fields}, nil
}

func parseCodata(src *reader) (*source.Codata, error) {
	start := src.cursor
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a codata type name")
	}
	decl := &source.Codata{Name: *name}
	if !readExact(src, "{") {
		return nil, newError(src, "expected `{` after `codata %s`", *name)
	}
	for !readExact(src, "}") {
		dtor, err := parseDestructor(src)
		if err != nil {
			return nil, err
		}
		decl.Dtors = append(decl.Dtors, *dtor)
		if !readExact(src, ",") && !isAt(src, '}') {
			return nil, newError(src, "expected `,` or `}` in `codata %s`", *name)
		}
	}
	decl.Location = loc(src, start)
	return decl, nil
}

func parseDestructor(src *reader) (*source.Destructor, error) {
	start := src.cursor
	if !readExact(src, ".") {
		return nil, newError(src, "expected a destructor, starting with `.`")
	}
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a destructor name after `.`")
	}
	params, err := parseParams(src)
	if err != nil {
		return nil, err
	}
	if !readExact(src, ":") {
		return nil, newError(src, "expected `:` and a return type for `.%s`", *name)
	}
	ret, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	return &source.Destructor{Location: loc(src, start), Name: *name, Params: params, Return: ret}, nil
}

// parseParams parses an optional parenthesized `name: Type` list.
func parseParams(src *reader) ([]source.Param, error) {
	if !readExact(src, "(") {
		return nil, nil
	}
	var params []source.Param
	for !readExact(src, ")") {
		start := src.cursor
		name := readIdentifier(src)
		if name == nil {
			return nil, newError(src, "expected a parameter name")
		}
		if !readExact(src, ":") {
			return nil, newError(src, "expected `:` and a type for parameter `%s`", *name)
		}
		t, err := parseTypeExpr(src)
		if err != nil {
			return nil, err
		}
		params = append(params, source.Param{Location: loc(src, start), Name: *name, Type: t})
		if !readExact(src, ",") && !isAt(src, ')') {
			return nil, newError(src, "expected `,` or `)` in parameter list")
		}
	}
	return params, nil
}

func parseTypeExpr(src *reader) (source.TypeExpr, error) {
	start := src.cursor
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a type")
	}
	if *name == ast.KwType {
		return source.TUniverse{Location: loc(src, start)}, nil
	}
	return source.TNamed{Location: loc(src, start), Name: *name}, nil
}

func parseDef(src *reader) (*source.Def, error) {
	start := src.cursor
	scrutinee := readIdentifier(src)
	if scrutinee == nil {
		return nil, newError(src, "expected the matched type name after `def`")
	}
	if !readExact(src, ".") {
		return nil, newError(src, "expected `.` and the def name after `def %s`", *scrutinee)
	}
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a def name")
	}
	params, err := parseParams(src)
	if err != nil {
		return nil, err
	}
	if !readExact(src, ":") {
		return nil, newError(src, "expected `:` and a return type for def `%s`", *name)
	}
	ret, err := parseTypeExpr(src)
	if err != nil {
		return nil, err
	}
	clauses, err := parseClauses(src, false)
	if err != nil {
		return nil, err
	}
	return &source.Def{
		Location: loc(src, start), Name: *name, Scrutinee: *scrutinee,
		Params: params, Return: ret, Clauses: clauses,
	}, nil
}

func parseCodef(src *reader) (*source.Codef, error) {
	start := src.cursor
	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected a codef name")
	}
	params, err := parseParams(src)
	if err != nil {
		return nil, err
	}
	if !readExact(src, ":") {
		return nil, newError(src, "expected `:` and a codata type for codef `%s`", *name)
	}
	result := readIdentifier(src)
	if result == nil {
		return nil, newError(src, "expected the result codata type name")
	}
	clauses, err := parseClauses(src, true)
	if err != nil {
		return nil, err
	}
	return &source.Codef{
		Location: loc(src, start), Name: *name, Params: params,
		Result: *result, Clauses: clauses,
	}, nil
}

// parseClauses parses a braced, comma-separated clause list. Copattern
// clauses are prefixed with `.`.
func parseClauses(src *reader, copattern bool) ([]source.Clause, error) {
	if !readExact(src, "{") {
		return nil, newError(src, "expected `{` and a clause list")
	}
	var clauses []source.Clause
	for !readExact(src, "}") {
		clause, err := parseClause(src, copattern)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
		if !readExact(src, ",") && !isAt(src, '}') {
			return nil, newError(src, "expected `,` or `}` after a clause")
		}
	}
	return clauses, nil
}

func parseClause(src *reader, copattern bool) (*source.Clause, error) {
	start := src.cursor
	if copattern && !readExact(src, ".") {
		return nil, newError(src, "expected a copattern, starting with `.`")
	}
	tag := readIdentifier(src)
	if tag == nil {
		return nil, newError(src, "expected a clause tag")
	}
	var binds []ast.Identifier
	if readExact(src, "(") {
		for !readExact(src, ")") {
			b := readIdentifier(src)
			if b == nil {
				return nil, newError(src, "expected a binder name in clause `%s`", *tag)
			}
			binds = append(binds, *b)
			if !readExact(src, ",") && !isAt(src, ')') {
				return nil, newError(src, "expected `,` or `)` in clause `%s`", *tag)
			}
		}
	}
	if !readExact(src, seqClauseBind) {
		return nil, newError(src, "expected `=>` in clause `%s`", *tag)
	}
	body, err := parseExpression(src)
	if err != nil {
		return nil, err
	}
	return &source.Clause{Location: loc(src, start), Tag: *tag, Binds: binds, Body: body}, nil
}

func isAt(src *reader, c rune) bool {
	return isOk(src) && src.text[src.cursor] == c
}

// parseExpression parses an atom followed by a chain of `.name(args)`,
// `.match { ... }` selections.
func parseExpression(src *reader) (source.Expression, error) {
	e, err := parseAtom(src)
	if err != nil {
		return nil, err
	}
	for {
		start := src.cursor
		if !readExact(src, ".") {
			return e, nil
		}
		if readKeyword(src, kwMatch) {
			cases, err := parseClauses(src, false)
			if err != nil {
				return nil, err
			}
			e = source.Match{Location: loc(src, start), On: e, Cases: cases}
			continue
		}
		name := readIdentifier(src)
		if name == nil {
			return nil, newError(src, "expected an observation name after `.`")
		}
		args, err := parseArgs(src)
		if err != nil {
			return nil, err
		}
		e = source.DotApply{Location: loc(src, start), Receiver: e, Name: *name, Args: args}
	}
}

func parseAtom(src *reader) (source.Expression, error) {
	start := src.cursor
	switch {
	case readExact(src, "?"):
		return source.Hole{Location: loc(src, start)}, nil

	case readKeyword(src, kwComatch):
		cases, err := parseClauses(src, true)
		if err != nil {
			return nil, err
		}
		return source.Comatch{Location: loc(src, start), Cases: cases}, nil

	case readExact(src, "("):
		e, err := parseExpression(src)
		if err != nil {
			return nil, err
		}
		if readExact(src, ":") {
			t, err := parseTypeExpr(src)
			if err != nil {
				return nil, err
			}
			if !readExact(src, ")") {
				return nil, newError(src, "expected `)` closing the annotation")
			}
			return source.Anno{Location: loc(src, start), Exp: e, Type: t}, nil
		}
		if !readExact(src, ")") {
			return nil, newError(src, "expected `)` or `:` in a parenthesized expression")
		}
		return e, nil
	}

	name := readIdentifier(src)
	if name == nil {
		return nil, newError(src, "expected an expression")
	}
	if *name == ast.KwType {
		return source.Universe{Location: loc(src, start)}, nil
	}
	args, err := parseArgs(src)
	if err != nil {
		return nil, err
	}
	if args == nil {
		return source.Var{Location: loc(src, start), Name: *name}, nil
	}
	return source.Apply{Location: loc(src, start), Name: *name, Args: args}, nil
}

// parseArgs parses an optional parenthesized argument list. A missing
// list returns nil; an empty `()` returns a non-nil empty slice.
func parseArgs(src *reader) ([]source.Expression, error) {
	if !readExact(src, "(") {
		return nil, nil
	}
	args := []source.Expression{}
	for !readExact(src, ")") {
		a, err := parseExpression(src)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !readExact(src, ",") && !isAt(src, ')') {
			return nil, newError(src, "expected `,` or `)` in argument list")
		}
	}
	return args, nil
}
