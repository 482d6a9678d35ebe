package common

import (
	"fmt"
	"strings"

	"github.com/duality-lang/duality/internal/pkg/ast"
	"github.com/samber/lo"
)

// Kind classifies elaboration diagnostics. Everything except the
// coverage kinds carries its detail in the message; coverage errors
// additionally carry an Issue and the offending tags.
type Kind uint8

const (
	KindSyntax Kind = iota
	KindUnknownIdentifier
	KindDuplicateDeclaration
	KindArityMismatch
	KindTypeMismatch
	KindPatternCoverage
	KindCopatternCoverage
	KindUnguardedRecursion
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindUnknownIdentifier:
		return "UnknownIdentifier"
	case KindDuplicateDeclaration:
		return "DuplicateDeclaration"
	case KindArityMismatch:
		return "ArityMismatch"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindPatternCoverage:
		return "PatternCoverageError"
	case KindCopatternCoverage:
		return "CopatternCoverageError"
	case KindUnguardedRecursion:
		return "UnguardedRecursion"
	}
	return "UnknownError"
}

// Issue refines the two coverage kinds.
type Issue uint8

const (
	IssueNone Issue = iota
	IssueMissingTag
	IssueUnexpectedTag
	IssueDuplicateClause
)

func (i Issue) String() string {
	switch i {
	case IssueMissingTag:
		return "missingConstructor"
	case IssueUnexpectedTag:
		return "unexpectedTag"
	case IssueDuplicateClause:
		return "duplicateClause"
	}
	return ""
}

type Error struct {
	Kind     Kind
	Issue    Issue
	Location ast.Location
	Extra    []ast.Location
	Tags     []ast.Identifier
	Message  string
}

func (e Error) Error() string {
	sb := strings.Builder{}
	if cursor := e.Location.CursorString(); cursor != "" {
		sb.WriteString(cursor)
		sb.WriteString(" ")
	}
	sb.WriteString(e.Kind.String())
	if e.Issue != IssueNone {
		sb.WriteString(fmt.Sprintf("(%s)", e.Issue))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Tags) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(lo.Map(e.Tags, func(t ast.Identifier, _ int) string {
			return string(t)
		}), ", "))
	}
	for _, extra := range e.Extra {
		if cursor := extra.CursorString(); cursor != "" {
			sb.WriteString("\n+ ")
			sb.WriteString(cursor)
		}
	}
	return sb.String()
}

func NewError(kind Kind, loc ast.Location, format string, args ...any) Error {
	return Error{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}

func NewCoverageError(kind Kind, issue Issue, loc ast.Location, tags []ast.Identifier, format string, args ...any) Error {
	return Error{
		Kind:     kind,
		Issue:    issue,
		Location: loc,
		Tags:     tags,
		Message:  fmt.Sprintf(format, args...),
	}
}

// SystemError marks an internal-consistency failure: a malformed term
// reached a phase it should never have passed elaboration into. It is
// fatal and never recovered into a diagnostic.
type SystemError struct {
	Message string
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system error: %s", e.Message)
}

func NewSystemError(format string, args ...any) SystemError {
	return SystemError{Message: fmt.Sprintf(format, args...)}
}
