package ast

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// eof represents a marker rune for the end of the input.
const (
	eof = rune(-1)
)

// Lexer represents a lexical scanner over a single SQL string.
type Lexer struct {
	src  string
	off  int
	line int
	pos  int

	// where the token currently being scanned begins
	start     int
	startLine int
	startPos  int
}

// NewLexer returns a new instance of Lexer.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		pos:  1,
	}
}

// Scan returns the next significant token. Whitespace and comments are
// skipped. Once the input is exhausted every call returns an EOF token.
func (l *Lexer) Scan() (Token, error) {
	l.skip()
	l.mark()

	for _, scan := range []func() (*Token, error){
		l.scanEOF,
		l.scanString,
		l.scanQuotedIdent,
		l.scanNumeric,
		l.scanSymbol,
		l.scanWord,
	} {
		tok, err := scan()
		if err != nil {
			return Token{}, err
		}
		if tok != nil {
			return *tok, nil
		}
	}
	return Token{}, l.scanIllegal()
}

// Tokens is a lazy, restartable token sequence over one input.
type Tokens struct {
	src string
}

// Tokenize returns the token sequence for src. Nothing is scanned until the
// sequence is iterated.
func Tokenize(src string) Tokens {
	return Tokens{src: src}
}

// All scans the input from the start on every call. The sequence ends after
// the EOF token, or after the first error.
func (ts Tokens) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l := NewLexer(ts.src)
		for {
			tok, err := l.Scan()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !yield(tok, nil) || tok.Type == EOF {
				return
			}
		}
	}
}

// Slice collects the whole sequence, EOF included.
func (ts Tokens) Slice() ([]Token, error) {
	var tokens []Token
	for tok, err := range ts.All() {
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (l *Lexer) mark() {
	l.start = l.off
	l.startLine = l.line
	l.startPos = l.pos
}

func (l *Lexer) newToken(typ TokenType, value string) *Token {
	return &Token{
		Type:   typ,
		Raw:    l.src[l.start:l.off],
		Value:  value,
		Offset: l.start,
		Line:   l.startLine,
		Pos:    l.startPos,
	}
}

func (l *Lexer) newError(kind ErrorKind, detail string) *SyntaxError {
	return &SyntaxError{
		Kind:   kind,
		Offset: l.start,
		Length: l.off - l.start,
		Line:   l.startLine,
		Pos:    l.startPos,
		Found:  l.src[l.start:l.off],
		Detail: detail,
	}
}

// skip consumes whitespace, line comments and block comments. A block
// comment left open runs to the end of the input, as in SQLite.
func (l *Lexer) skip() {
	for {
		switch ch := l.peek(); {
		case isWS(ch):
			l.read()
		case ch == '-' && l.peekAt(1) == '-':
			for ch := l.peek(); ch != '\n' && ch != eof; ch = l.peek() {
				l.read()
			}
		case ch == '/' && l.peekAt(1) == '*':
			l.read()
			l.read()
			for {
				ch := l.read()
				if ch == eof {
					return
				}
				if ch == '*' && l.peek() == '/' {
					l.read()
					break
				}
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanEOF() (*Token, error) {
	if l.peek() != eof {
		return nil, nil
	}
	return l.newToken(EOF, ""), nil
}

// scans a single quoted string literal; '' is an escaped quote
func (l *Lexer) scanString() (*Token, error) {
	if l.peek() != '\'' {
		return nil, nil
	}
	value, err := l.scanQuote('\'', '\'')
	if err != nil {
		return nil, err
	}
	return l.newToken(STRING, value), nil
}

// scans "ident", `ident` or [ident]
func (l *Lexer) scanQuotedIdent() (*Token, error) {
	var closing rune
	switch l.peek() {
	case '"':
		closing = '"'
	case '`':
		closing = '`'
	case '[':
		closing = ']'
	default:
		return nil, nil
	}
	value, err := l.scanQuote(l.peek(), closing)
	if err != nil {
		return nil, err
	}
	return l.newToken(IDENT, value), nil
}

// scanQuote returns the quoted text with doubled closing quotes collapsed.
// Bytes are copied from the input as is, valid UTF-8 or not.
func (l *Lexer) scanQuote(opening, closing rune) (string, error) {
	l.read()
	var b strings.Builder
	start := l.off
	for {
		ch := l.read()
		switch {
		case ch == eof:
			return "", l.newError(UnterminatedLiteral, "missing closing "+string(closing))
		case ch == closing && opening != '[' && l.peek() == closing:
			b.WriteString(l.src[start:l.off])
			l.read()
			start = l.off
		case ch == closing:
			b.WriteString(l.src[start : l.off-1])
			return b.String(), nil
		}
	}
}

// scans a number literal: digits with at most one decimal point
func (l *Lexer) scanNumeric() (*Token, error) {
	ch := l.peek()
	if !isDigit(ch) && !(ch == '.' && isDigit(l.peekAt(1))) {
		return nil, nil
	}

	decimal := false
	for {
		ch := l.peek()
		switch {
		case isDigit(ch):
			l.read()
		case ch == '.' && !decimal:
			decimal = true
			l.read()
		default:
			raw := l.src[l.start:l.off]
			return l.newToken(NUMERIC, raw), nil
		}
	}
}

func (l *Lexer) scanSymbol() (*Token, error) {
	for _, sym := range symbols {
		if !strings.HasPrefix(l.src[l.off:], sym.str) {
			continue
		}
		for range sym.str {
			l.read()
		}
		return l.newToken(sym.typ, sym.str), nil
	}
	return nil, nil
}

// scans a keyword or a bare identifier
func (l *Lexer) scanWord() (*Token, error) {
	if !isIdentStart(l.peek()) {
		return nil, nil
	}
	for isIdent(l.peek()) {
		l.read()
	}
	raw := l.src[l.start:l.off]
	upper := strings.ToUpper(raw)
	if typ, ok := keywordTypes[upper]; ok {
		return l.newToken(typ, upper), nil
	}
	return l.newToken(IDENT, raw), nil
}

func (l *Lexer) scanIllegal() error {
	l.read()
	return l.newError(UnexpectedCharacter, "")
}

// read consumes the next rune and advances line and position.
// Returns eof at the end of the input.
func (l *Lexer) read() rune {
	if l.off >= len(l.src) {
		return eof
	}
	ch, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if ch == '\n' {
		l.line++
		l.pos = 1
	} else {
		l.pos++
	}
	return ch
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n bytes past the current offset. Only used with
// small n after ASCII runes.
func (l *Lexer) peekAt(n int) rune {
	if l.off+n >= len(l.src) {
		return eof
	}
	ch, _ := utf8.DecodeRuneInString(l.src[l.off+n:])
	return ch
}

func isWS(ch rune) bool {
	return ch != eof && unicode.IsSpace(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch != utf8.RuneError && unicode.IsLetter(ch))
}

func isIdent(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isKeyword(word string) bool {
	_, ok := keywordTypes[strings.ToUpper(word)]
	return ok
}

type symbolEntry struct {
	typ TokenType
	str string
}

var (
	// Ordered longest-first so multi-char symbols match before single-char prefixes.
	symbols = []symbolEntry{
		{CONCAT, "||"},
		{NEQ, "!="},
		{NEQ, "<>"},
		{LTE, "<="},
		{GTE, ">="},
		{EQ, "=="},
		{STAR, "*"},
		{COMMA, ","},
		{DOT, "."},
		{LPAREN, "("},
		{RPAREN, ")"},
		{SEMICOLON, ";"},
		{EQ, "="},
		{LT, "<"},
		{GT, ">"},
		{PLUS, "+"},
		{MINUS, "-"},
		{SLASH, "/"},
		{PERCENT, "%"},
	}

	keywords = map[TokenType]string{
		SELECT:   "SELECT",
		DISTINCT: "DISTINCT",
		ALL:      "ALL",
		AS:       "AS",
		FROM:     "FROM",
		WHERE:    "WHERE",
		AND:      "AND",
		OR:       "OR",
		NOT:      "NOT",
		IN:       "IN",
		IS:       "IS",
		NULL:     "NULL",
		BETWEEN:  "BETWEEN",
		LIKE:     "LIKE",
		GROUP:    "GROUP",
		BY:       "BY",
		HAVING:   "HAVING",
		ORDER:    "ORDER",
		ASC:      "ASC",
		DESC:     "DESC",
		LIMIT:    "LIMIT",
		OFFSET:   "OFFSET",
		JOIN:     "JOIN",
		INNER:    "INNER",
		LEFT:     "LEFT",
		OUTER:    "OUTER",
		CROSS:    "CROSS",
		ON:       "ON",
		TRUE:     "TRUE",
		FALSE:    "FALSE",
	}
)
