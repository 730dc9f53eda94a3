package ast

import (
	"errors"
	"reflect"
	"testing"
)

func scanAll(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := Tokenize(input).Slice()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexer(t *testing.T) {
	input := "SELECT name FROM stdin WHERE age > 25"
	l := NewLexer(input)
	for {
		tok, err := l.Scan()
		if err != nil {
			t.Fatalf("scan error: %v", err)
		}
		if tok.Type == EOF {
			break
		}
		t.Logf("%-10s %q  offset=%d line=%d pos=%d", tok.Type, tok.Raw, tok.Offset, tok.Line, tok.Pos)
	}
}

func TestLexerTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "select star",
			input: "SELECT * FROM users",
			want:  []TokenType{SELECT, STAR, FROM, IDENT, EOF},
		},
		{
			name:  "keywords are case insensitive",
			input: "select Distinct a from t where x and y or not z",
			want:  []TokenType{SELECT, DISTINCT, IDENT, FROM, IDENT, WHERE, IDENT, AND, IDENT, OR, NOT, IDENT, EOF},
		},
		{
			name:  "multi-char symbols match before prefixes",
			input: "a >= 1 <= 2 <> 3 != 4 == 5 || 6",
			want:  []TokenType{IDENT, GTE, NUMERIC, LTE, NUMERIC, NEQ, NUMERIC, NEQ, NUMERIC, EQ, NUMERIC, CONCAT, NUMERIC, EOF},
		},
		{
			name:  "punctuation",
			input: "( ) , . ; * + - / % = < >",
			want:  []TokenType{LPAREN, RPAREN, COMMA, DOT, SEMICOLON, STAR, PLUS, MINUS, SLASH, PERCENT, EQ, LT, GT, EOF},
		},
		{
			name:  "comments are skipped",
			input: "SELECT -- trailing\n a /* inline */ FROM t /* open to the end",
			want:  []TokenType{SELECT, IDENT, FROM, IDENT, EOF},
		},
		{
			name:  "qualified column is three tokens",
			input: "t.col",
			want:  []TokenType{IDENT, DOT, IDENT, EOF},
		},
		{
			name:  "quoted identifiers",
			input: "\"select\" `from` [where]",
			want:  []TokenType{IDENT, IDENT, IDENT, EOF},
		},
		{
			name:  "empty input",
			input: "  \n\t ",
			want:  []TokenType{EOF},
		},
		{
			name:  "identifier with digits and dollar",
			input: "col_1$x _tmp",
			want:  []TokenType{IDENT, IDENT, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenTypes(scanAll(t, tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("want %v\ngot  %v", tt.want, got)
			}
		})
	}
}

func TestLexerSymbolOrder(t *testing.T) {
	// Test that >= is lexed as GTE, not as GT followed by EQ
	tokens := scanAll(t, "age >= 25")
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	if tokens[1].Type != GTE {
		t.Errorf("expected GTE, got %s (%q)", tokens[1].Type, tokens[1].Raw)
	}
}

func TestLexerNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"12", []string{"12"}},
		{"1.5", []string{"1.5"}},
		{".5", []string{".5"}},
		{"3.", []string{"3."}},
		{"1.2.3", []string{"1.2", ".3"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := scanAll(t, tt.input)
			var got []string
			for _, tok := range tokens {
				if tok.Type == EOF {
					break
				}
				if tok.Type != NUMERIC {
					t.Fatalf("expected NUMERIC, got %s (%q)", tok.Type, tok.Raw)
				}
				got = append(got, tok.Value)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLexerValues(t *testing.T) {
	tokens := scanAll(t, `select 'it''s' "a ""b""" [c d] Users`)
	want := []struct {
		typ   TokenType
		raw   string
		value string
	}{
		{SELECT, "select", "SELECT"},
		{STRING, `'it''s'`, "it's"},
		{IDENT, `"a ""b"""`, `a "b"`},
		{IDENT, "[c d]", "c d"},
		{IDENT, "Users", "Users"},
		{EOF, "", ""},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Type != w.typ || tok.Raw != w.raw || tok.Value != w.value {
			t.Errorf("token %d: want {%s %q %q}, got {%s %q %q}", i, w.typ, w.raw, w.value, tok.Type, tok.Raw, tok.Value)
		}
	}
}

func TestLexerQuotedBytesKept(t *testing.T) {
	tokens := scanAll(t, "SELECT 'a\xffb''\xfe' FROM [x\xc3y]")
	if got := tokens[1].Value; got != "a\xffb'\xfe" {
		t.Errorf("string value: want %q, got %q", "a\xffb'\xfe", got)
	}
	if got := tokens[3].Value; got != "x\xc3y" {
		t.Errorf("ident value: want %q, got %q", "x\xc3y", got)
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := scanAll(t, "SELECT a,\n  bé, c\nFROM t")
	want := []struct {
		raw    string
		offset int
		line   int
		pos    int
	}{
		{"SELECT", 0, 1, 1},
		{"a", 7, 1, 8},
		{",", 8, 1, 9},
		{"bé", 12, 2, 3},
		{",", 15, 2, 5},
		{"c", 17, 2, 7},
		{"FROM", 19, 3, 1},
		{"t", 24, 3, 6},
		{"", 25, 3, 7},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Raw != w.raw || tok.Offset != w.offset || tok.Line != w.line || tok.Pos != w.pos {
			t.Errorf("token %d: want %q@%d (%d:%d), got %q@%d (%d:%d)",
				i, w.raw, w.offset, w.line, w.pos, tok.Raw, tok.Offset, tok.Line, tok.Pos)
		}
		if tok.Len() != len(w.raw) {
			t.Errorf("token %d: want length %d, got %d", i, len(w.raw), tok.Len())
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   ErrorKind
		offset int
		line   int
		pos    int
	}{
		{
			name:   "unterminated string",
			input:  "SELECT 'abc",
			kind:   UnterminatedLiteral,
			offset: 7,
			line:   1,
			pos:    8,
		},
		{
			name:   "unterminated quoted identifier",
			input:  "SELECT \"abc FROM t",
			kind:   UnterminatedLiteral,
			offset: 7,
			line:   1,
			pos:    8,
		},
		{
			name:   "unexpected character",
			input:  "SELECT a\nFROM t WHERE a ? 1",
			kind:   UnexpectedCharacter,
			offset: 24,
			line:   2,
			pos:    16,
		},
		{
			name:   "lone bang",
			input:  "a ! b",
			kind:   UnexpectedCharacter,
			offset: 2,
			line:   1,
			pos:    3,
		},
		{
			name:   "lone pipe",
			input:  "a | b",
			kind:   UnexpectedCharacter,
			offset: 2,
			line:   1,
			pos:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input).Slice()
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if se.Kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, se.Kind)
			}
			if se.Offset != tt.offset || se.Line != tt.line || se.Pos != tt.pos {
				t.Errorf("expected offset %d (%d:%d), got %d (%d:%d)", tt.offset, tt.line, tt.pos, se.Offset, se.Line, se.Pos)
			}
		})
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("a")
	for i := 0; i < 3; i++ {
		tok, err := l.Scan()
		if err != nil {
			t.Fatalf("scan error: %v", err)
		}
		if i > 0 && tok.Type != EOF {
			t.Errorf("scan %d: expected EOF, got %s", i, tok.Type)
		}
	}
}

func TestTokenizeIsRestartable(t *testing.T) {
	input := "SELECT a, b FROM t WHERE a = 'x' -- done"
	seq := Tokenize(input)

	first, err := seq.Slice()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	second, err := seq.Slice()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-tokenizing produced a different sequence:\n%v\n%v", first, second)
	}
	again, _ := Tokenize(input).Slice()
	if !reflect.DeepEqual(first, again) {
		t.Errorf("tokenizing the same input twice produced different sequences")
	}
}

func TestTokenizeIsLazy(t *testing.T) {
	// the error is after the first token, so stopping early never sees it
	var seen []TokenType
	for tok, err := range Tokenize("SELECT ?").All() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen = append(seen, tok.Type)
		break
	}
	if len(seen) != 1 || seen[0] != SELECT {
		t.Errorf("expected [SELECT], got %v", seen)
	}
}

func TestTokenClass(t *testing.T) {
	tests := []struct {
		typ  TokenType
		want Class
	}{
		{SELECT, ClassKeyword},
		{FALSE, ClassKeyword},
		{IDENT, ClassIdentifier},
		{STRING, ClassLiteral},
		{NUMERIC, ClassLiteral},
		{STAR, ClassPunctuation},
		{CONCAT, ClassPunctuation},
		{EOF, ClassEndOfInput},
		{ILLEGAL, ClassIllegal},
	}
	for _, tt := range tests {
		if got := tt.typ.Class(); got != tt.want {
			t.Errorf("%s: want %s, got %s", tt.typ, tt.want, got)
		}
	}
}
