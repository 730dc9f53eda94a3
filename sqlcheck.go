// Package sqlcheck tokenizes and parses the SELECT subset of SQLite's SQL.
//
//	cmd, err := sqlcheck.Parse("SELECT name FROM users WHERE id = 1")
//	if err != nil {
//		var se *sqlcheck.SyntaxError
//		errors.As(err, &se) // se.Kind, se.Line, se.Pos ...
//	}
//	fmt.Println(sqlcheck.Format(cmd))
package sqlcheck

import (
	"context"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
	"github.com/kevin-cantwell/sqlcheck/internal/engine"
)

type (
	Token     = ast.Token
	TokenType = ast.TokenType
	Class     = ast.Class

	Command         = ast.Command
	SelectStatement = ast.SelectStatement
	TableRef        = ast.TableRef
	Join            = ast.Join
	JoinType        = ast.JoinType
	OrderingTerm    = ast.OrderingTerm

	// Expression is implemented by the pointer types below; switch on them
	// to consume a tree.
	Expression   = ast.Expression
	BinaryExpr   = ast.BinaryExpr
	UnaryExpr    = ast.UnaryExpr
	FunctionExpr = ast.FunctionExpr
	ColumnRef    = ast.ColumnRef
	Literal      = ast.Literal
	LiteralKind  = ast.LiteralKind
	Wildcard     = ast.Wildcard
	AliasedExpr  = ast.AliasedExpr
	IsNullExpr   = ast.IsNullExpr
	BetweenExpr  = ast.BetweenExpr
	InExpr       = ast.InExpr
	LikeExpr     = ast.LikeExpr

	SyntaxError  = ast.SyntaxError
	ErrorKind    = ast.ErrorKind
	DialectError = engine.DialectError
)

const (
	UnexpectedCharacter  = ast.UnexpectedCharacter
	UnterminatedLiteral  = ast.UnterminatedLiteral
	ExpectedExpression   = ast.ExpectedExpression
	UnexpectedToken      = ast.UnexpectedToken
	UnexpectedEndOfInput = ast.UnexpectedEndOfInput
	NestingTooDeep       = ast.NestingTooDeep
)

const (
	InnerJoin = ast.InnerJoin
	LeftJoin  = ast.LeftJoin
	CrossJoin = ast.CrossJoin
)

const (
	NumberLiteral  = ast.NumberLiteral
	StringLiteral  = ast.StringLiteral
	BooleanLiteral = ast.BooleanLiteral
	NullLiteral    = ast.NullLiteral
)

const (
	ClassIllegal     = ast.ClassIllegal
	ClassKeyword     = ast.ClassKeyword
	ClassIdentifier  = ast.ClassIdentifier
	ClassLiteral     = ast.ClassLiteral
	ClassPunctuation = ast.ClassPunctuation
	ClassEndOfInput  = ast.ClassEndOfInput
)

// Token types a consumer of Tokenize or of BinaryExpr.Op and UnaryExpr.Op
// needs. Keywords not used as operators are reachable through Class.
const (
	ILLEGAL   = ast.ILLEGAL
	EOF       = ast.EOF
	IDENT     = ast.IDENT
	NUMERIC   = ast.NUMERIC
	STRING    = ast.STRING
	STAR      = ast.STAR
	COMMA     = ast.COMMA
	DOT       = ast.DOT
	LPAREN    = ast.LPAREN
	RPAREN    = ast.RPAREN
	SEMICOLON = ast.SEMICOLON
	EQ        = ast.EQ
	NEQ       = ast.NEQ
	LT        = ast.LT
	LTE       = ast.LTE
	GT        = ast.GT
	GTE       = ast.GTE
	PLUS      = ast.PLUS
	MINUS     = ast.MINUS
	SLASH     = ast.SLASH
	PERCENT   = ast.PERCENT
	CONCAT    = ast.CONCAT
	AND       = ast.AND
	OR        = ast.OR
	NOT       = ast.NOT
	SELECT    = ast.SELECT
	FROM      = ast.FROM
)

// Tokenize scans src into tokens, ending with EOF. It stops at the first
// lexical error.
func Tokenize(src string) ([]Token, error) {
	return ast.Tokenize(src).Slice()
}

// Parse parses one SELECT statement, optionally followed by a semicolon.
func Parse(src string) (Command, error) {
	return ast.Parse(src)
}

// ParseTokens parses a statement from tokens produced by Tokenize. A missing
// trailing EOF token is implied.
func ParseTokens(tokens []Token) (Command, error) {
	return ast.ParseTokens(tokens)
}

// Format renders cmd as canonical SQL. Parsing the result yields an equal tree.
func Format(cmd Command) string {
	return ast.Format(cmd)
}

// Walk calls fn for expr and every expression below it, parents first.
// Returning false from fn skips the node's children.
func Walk(expr Expression, fn func(Expression) bool) {
	ast.Walk(expr, fn)
}

// KindOf returns the ErrorKind of a *SyntaxError in err's chain, or zero.
func KindOf(err error) ErrorKind {
	return ast.KindOf(err)
}

// Verify asks an in-memory SQLite database to prepare cmd against a schema
// inferred from its own table and column references. A rejection is
// returned as a *DialectError.
func Verify(ctx context.Context, cmd Command) error {
	return engine.NewVerifier().Verify(ctx, cmd)
}
