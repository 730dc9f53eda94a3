package ast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a syntax error.
type ErrorKind int

const (
	// UnexpectedCharacter is a character that cannot start any token.
	UnexpectedCharacter ErrorKind = iota + 1
	// UnterminatedLiteral is a quoted string or identifier missing its closing quote.
	UnterminatedLiteral
	// ExpectedExpression is a place where an expression was required but absent.
	ExpectedExpression
	// UnexpectedToken is a well-formed token that does not fit the grammar here.
	UnexpectedToken
	// UnexpectedEndOfInput is input that stops before the statement is complete.
	UnexpectedEndOfInput
	// NestingTooDeep is an expression nested beyond the parser's depth limit.
	NestingTooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnterminatedLiteral:
		return "UnterminatedLiteral"
	case ExpectedExpression:
		return "ExpectedExpression"
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnexpectedEndOfInput:
		return "UnexpectedEndOfInput"
	case NestingTooDeep:
		return "NestingTooDeep"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SyntaxError is returned by the lexer and parser for malformed input.
type SyntaxError struct {
	Kind ErrorKind
	// Offset and Length delimit the offending bytes of the input.
	Offset int
	Length int
	// Line and Pos are 1-indexed, as on Token.
	Line int
	Pos  int
	// Found is the offending text, or "EOF".
	Found string
	// Expected optionally lists the tokens that would have been accepted.
	Expected []TokenType
	// Detail is an optional free-form refinement of the message.
	Detail string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case UnexpectedCharacter:
		fmt.Fprintf(&b, "unexpected character %q", e.Found)
	case UnterminatedLiteral:
		b.WriteString("unterminated literal")
	case ExpectedExpression:
		fmt.Fprintf(&b, "expected expression but got %s", quoteFound(e.Found))
	case UnexpectedToken:
		fmt.Fprintf(&b, "unexpected token %s", quoteFound(e.Found))
	case UnexpectedEndOfInput:
		b.WriteString("unexpected end of input")
	case NestingTooDeep:
		b.WriteString("expression nested too deeply")
	default:
		b.WriteString("syntax error")
	}
	fmt.Fprintf(&b, " at line %d position %d", e.Line, e.Pos)
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, t := range e.Expected {
			names[i] = t.String()
		}
		fmt.Fprintf(&b, ": expected %s", strings.Join(names, " or "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func quoteFound(found string) string {
	if found == "EOF" {
		return found
	}
	return fmt.Sprintf("%q", found)
}

// KindOf returns the kind of the first *SyntaxError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func newTokenError(kind ErrorKind, t Token, expected ...TokenType) *SyntaxError {
	if t.Type == EOF && (kind == UnexpectedToken || kind == ExpectedExpression) {
		kind = UnexpectedEndOfInput
	}
	return &SyntaxError{
		Kind:     kind,
		Offset:   t.Offset,
		Length:   t.Len(),
		Line:     t.Line,
		Pos:      t.Pos,
		Found:    t.String(),
		Expected: expected,
	}
}
