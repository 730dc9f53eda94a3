package ast

import (
	"fmt"
)

type Token struct {
	// Type categorizes the token.
	Type TokenType
	// Raw is the exact source text of this token.
	Raw string
	// Value is the decoded text: upper-cased keywords, unquoted identifiers
	// and strings, numeric text as written.
	Value string
	// Offset is the 0-indexed byte offset of the token in the input.
	Offset int
	// Line is the 1-indexed line on which this token appears in the query.
	Line int
	// Pos is the 1-indexed position (in runes) where this token appears on its line.
	Pos int
}

// Len is the length of the token in bytes.
func (t Token) Len() int {
	return len(t.Raw)
}

// End is the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Raw)
}

func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return t.Raw
}

func (t Token) MarshalJSON() ([]byte, error) {
	return []byte(
		`{"type":` + fmt.Sprintf("%q", t.Type) +
			`,"raw":` + fmt.Sprintf("%q", t.Raw) +
			`,"offset":` + fmt.Sprint(t.Offset) +
			`,"line":` + fmt.Sprint(t.Line) +
			`,"pos":` + fmt.Sprint(t.Pos) +
			`}`,
	), nil
}

// TokenType represents a lexical token kind.
type TokenType int

func (t TokenType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	if s, ok := keywordNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Class returns the family of the token type.
func (t TokenType) Class() Class {
	switch {
	case t == EOF:
		return ClassEndOfInput
	case t == IDENT:
		return ClassIdentifier
	case t == NUMERIC || t == STRING:
		return ClassLiteral
	case t > keywordsBegin && t < keywordsEnd:
		return ClassKeyword
	case t > symbolsBegin && t < symbolsEnd:
		return ClassPunctuation
	default:
		return ClassIllegal
	}
}

// Class groups token types into the families a caller usually switches on.
type Class int

const (
	ClassIllegal Class = iota
	ClassKeyword
	ClassIdentifier
	ClassLiteral
	ClassPunctuation
	ClassEndOfInput
)

func (c Class) String() string {
	switch c {
	case ClassKeyword:
		return "keyword"
	case ClassIdentifier:
		return "identifier"
	case ClassLiteral:
		return "literal"
	case ClassPunctuation:
		return "punctuation"
	case ClassEndOfInput:
		return "end of input"
	default:
		return "illegal"
	}
}

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	symbolsBegin
	STAR      // *
	COMMA     // ,
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;
	EQ        // =, ==
	NEQ       // !=, <>
	LT        // <
	LTE       // <=
	GT        // >
	GTE       // >=
	PLUS      // +
	MINUS     // -
	SLASH     // /
	PERCENT   // %
	CONCAT    // ||
	symbolsEnd

	keywordsBegin
	SELECT
	DISTINCT
	ALL
	AS
	FROM
	WHERE
	AND
	OR
	NOT
	IN
	IS
	NULL
	BETWEEN
	LIKE
	GROUP
	BY
	HAVING
	ORDER
	ASC
	DESC
	LIMIT
	OFFSET
	JOIN
	INNER
	LEFT
	OUTER
	CROSS
	ON
	TRUE
	FALSE
	keywordsEnd

	// Literals
	STRING  // 'foo'
	NUMERIC // 123.456

	// Identifiers
	IDENT // table_name, field_name, alias, "ident"
)

var tokenNames = map[TokenType]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	STAR:      "*",
	COMMA:     ",",
	DOT:       ".",
	LPAREN:    "(",
	RPAREN:    ")",
	SEMICOLON: ";",
	EQ:        "=",
	NEQ:       "!=",
	LT:        "<",
	LTE:       "<=",
	GT:        ">",
	GTE:       ">=",
	PLUS:      "+",
	MINUS:     "-",
	SLASH:     "/",
	PERCENT:   "%",
	CONCAT:    "||",
	STRING:    "STRING",
	NUMERIC:   "NUMERIC",
	IDENT:     "IDENT",
}

var (
	keywordNames = map[TokenType]string{}
	keywordTypes = map[string]TokenType{}
)

func init() {
	for typ, kw := range keywords {
		keywordNames[typ] = kw
		keywordTypes[kw] = typ
	}
}
