package ast

import "unicode/utf8"

// DefaultMaxDepth is the expression nesting limit used when Parser.MaxDepth is zero.
const DefaultMaxDepth = 200

type tokenSource interface {
	Scan() (Token, error)
}

// sliceSource replays pre-scanned tokens. Past the end it keeps returning an
// EOF token placed just after the last token.
type sliceSource struct {
	tokens []Token
	next   int
}

func (s *sliceSource) Scan() (Token, error) {
	if s.next < len(s.tokens) {
		t := s.tokens[s.next]
		s.next++
		return t, nil
	}
	end := Token{Type: EOF, Line: 1, Pos: 1}
	if n := len(s.tokens); n > 0 {
		last := s.tokens[n-1]
		end.Offset = last.End()
		end.Line = last.Line
		end.Pos = last.Pos + utf8.RuneCountInString(last.Raw)
	}
	return end, nil
}

// Parser is a recursive-descent parser for a single SELECT statement.
// A Parser is not safe for concurrent use; create one per input.
type Parser struct {
	// MaxDepth bounds how deeply expressions may nest, both as tree height
	// and as grouping parentheses. Zero means DefaultMaxDepth.
	MaxDepth int

	src       tokenSource
	scanned   []Token
	unscanned []Token

	// depth counts recursive descents, parens open grouping parentheses and
	// heights holds the tree height of every interior node built so far.
	depth   int
	parens  int
	heights map[Expression]int
}

// NewParser returns a parser that tokenizes src lazily as it parses.
func NewParser(src string) *Parser {
	return &Parser{src: NewLexer(src)}
}

// NewTokenParser returns a parser over already scanned tokens. A trailing
// EOF token is optional.
func NewTokenParser(tokens []Token) *Parser {
	return &Parser{src: &sliceSource{tokens: tokens}}
}

// Parse tokenizes and parses src.
func Parse(src string) (Command, error) {
	return NewParser(src).Parse()
}

// ParseTokens parses a token sequence produced by Tokenize.
func ParseTokens(tokens []Token) (Command, error) {
	return NewTokenParser(tokens).Parse()
}

// Parse parses exactly one statement, optionally terminated by a semicolon.
// On failure the returned Command is nil and the error is a *SyntaxError.
func (p *Parser) Parse() (Command, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case SELECT:
		stmt, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.parseEnd(); err != nil {
			return nil, err
		}
		return stmt, nil
	default:
		return nil, newTokenError(UnexpectedToken, t, SELECT)
	}
}

func (p *Parser) scan() (Token, error) {
	var t Token
	if len(p.unscanned) > 0 {
		t = p.unscanned[len(p.unscanned)-1]
		p.unscanned = p.unscanned[:len(p.unscanned)-1]
	} else {
		tok, err := p.src.Scan()
		if err != nil {
			return Token{}, err
		}
		t = tok
	}
	p.scanned = append(p.scanned, t)
	return t, nil
}

func (p *Parser) unscan() {
	if len(p.scanned) == 0 {
		return
	}
	t := p.scanned[len(p.scanned)-1]
	p.scanned = p.scanned[:len(p.scanned)-1]
	p.unscanned = append(p.unscanned, t)
}

func (p *Parser) peek() (Token, error) {
	t, err := p.scan()
	if err != nil {
		return Token{}, err
	}
	p.unscan()
	return t, nil
}

// expect scans the next token and fails unless it is one of types.
func (p *Parser) expect(types ...TokenType) (Token, error) {
	t, err := p.scan()
	if err != nil {
		return Token{}, err
	}
	if !tokenIn(t.Type, types...) {
		return Token{}, newTokenError(UnexpectedToken, t, types...)
	}
	return t, nil
}

// accept consumes the next token if it is of type typ.
func (p *Parser) accept(typ TokenType) (bool, error) {
	t, err := p.scan()
	if err != nil {
		return false, err
	}
	if t.Type != typ {
		p.unscan()
		return false, nil
	}
	return true, nil
}

func (p *Parser) parseSelect() (*SelectStatement, error) {
	stmt := &SelectStatement{}

	// SELECT
	if _, err := p.expect(SELECT); err != nil {
		return nil, err
	}

	// DISTINCT | ALL
	t, err := p.scan()
	if err != nil {
		return nil, err
	}
	switch t.Type {
	case DISTINCT:
		stmt.Distinct = true
	case ALL:
	default:
		p.unscan()
	}

	// item, item, ...
	projection, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	stmt.Projection = projection

	// FROM table
	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	source, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.Source = source

	joins, err := p.parseJoins()
	if err != nil {
		return nil, err
	}
	stmt.Joins = joins

	// WHERE
	if ok, err := p.accept(WHERE); err != nil {
		return nil, err
	} else if ok {
		where, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	// GROUP BY ... [HAVING ...]
	if ok, err := p.accept(GROUP); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expect(BY); err != nil {
			return nil, err
		}
		groupBy, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = groupBy

		if ok, err := p.accept(HAVING); err != nil {
			return nil, err
		} else if ok {
			having, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			stmt.Having = having
		}
	}

	// ORDER BY
	if ok, err := p.accept(ORDER); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expect(BY); err != nil {
			return nil, err
		}
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = orderBy
	}

	// LIMIT
	if ok, err := p.accept(LIMIT); err != nil {
		return nil, err
	} else if ok {
		if err := p.parseLimit(stmt); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

// parseEnd accepts EOF, or a semicolon followed by EOF.
func (p *Parser) parseEnd() error {
	t, err := p.scan()
	if err != nil {
		return err
	}
	if t.Type == SEMICOLON {
		t, err = p.scan()
		if err != nil {
			return err
		}
	}
	if t.Type != EOF {
		return newTokenError(UnexpectedToken, t)
	}
	return nil
}

func (p *Parser) parseProjection() ([]Expression, error) {
	var items []Expression

	for {
		item, err := p.parseProjectionItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if ok, err := p.accept(COMMA); err != nil {
			return nil, err
		} else if !ok {
			return items, nil
		}
	}
}

func (p *Parser) parseProjectionItem() (Expression, error) {
	t, err := p.scan()
	if err != nil {
		return nil, err
	}

	// * | table.* | expression [[AS] alias]
	switch t.Type {
	case STAR:
		return &Wildcard{}, nil
	case IDENT:
		wildcard, err := p.parseTableWildcard(t)
		if err != nil {
			return nil, err
		}
		if wildcard != nil {
			return wildcard, nil
		}
	}
	p.unscan()

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	alias, err := p.parseAlias()
	if err != nil {
		return nil, err
	}
	if alias != "" {
		return &AliasedExpr{Expr: expr, Alias: alias}, nil
	}
	return expr, nil
}

// parseTableWildcard recognizes "ident . *" after ident has been scanned.
// It leaves the token stream untouched when the pattern does not match.
func (p *Parser) parseTableWildcard(ident Token) (*Wildcard, error) {
	dot, err := p.scan()
	if err != nil {
		return nil, err
	}
	if dot.Type != DOT {
		p.unscan()
		return nil, nil
	}
	star, err := p.scan()
	if err != nil {
		return nil, err
	}
	if star.Type != STAR {
		p.unscan()
		p.unscan()
		return nil, nil
	}
	return &Wildcard{Table: ident.Value}, nil
}

// parseAlias parses an optional "[AS] ident".
func (p *Parser) parseAlias() (string, error) {
	t, err := p.scan()
	if err != nil {
		return "", err
	}
	switch t.Type {
	case AS:
		ident, err := p.expect(IDENT)
		if err != nil {
			return "", err
		}
		return ident.Value, nil
	case IDENT:
		return t.Value, nil
	default:
		p.unscan()
		return "", nil
	}
}

// parseTableRef parses "[schema.]name [[AS] alias]".
func (p *Parser) parseTableRef() (TableRef, error) {
	var ref TableRef

	name, err := p.expectName()
	if err != nil {
		return ref, err
	}
	ref.Name = name

	if ok, err := p.accept(DOT); err != nil {
		return ref, err
	} else if ok {
		name, err := p.expectName()
		if err != nil {
			return ref, err
		}
		ref.Schema = ref.Name
		ref.Name = name
	}

	alias, err := p.parseAlias()
	if err != nil {
		return ref, err
	}
	ref.Alias = alias
	return ref, nil
}

// expectName reads a table or schema name. Quoted names may not be empty.
func (p *Parser) expectName() (string, error) {
	t, err := p.expect(IDENT)
	if err != nil {
		return "", err
	}
	if t.Value == "" {
		se := newTokenError(UnexpectedToken, t, IDENT)
		se.Detail = "empty name"
		return "", se
	}
	return t.Value, nil
}

func (p *Parser) parseJoins() ([]Join, error) {
	var joins []Join

	for {
		t, err := p.scan()
		if err != nil {
			return nil, err
		}

		var join Join
		switch t.Type {
		case COMMA:
			join.Type = CrossJoin
		case JOIN:
			join.Type = InnerJoin
		case INNER:
			join.Type = InnerJoin
			if _, err := p.expect(JOIN); err != nil {
				return nil, err
			}
		case LEFT:
			join.Type = LeftJoin
			if _, err := p.accept(OUTER); err != nil {
				return nil, err
			}
			if _, err := p.expect(JOIN); err != nil {
				return nil, err
			}
		case CROSS:
			join.Type = CrossJoin
			if _, err := p.expect(JOIN); err != nil {
				return nil, err
			}
		default:
			p.unscan()
			return joins, nil
		}

		table, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		join.Table = table

		if ok, err := p.accept(ON); err != nil {
			return nil, err
		} else if ok {
			cond, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			join.Condition = cond
		}

		joins = append(joins, join)
	}
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	var exprs []Expression
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		if ok, err := p.accept(COMMA); err != nil {
			return nil, err
		} else if !ok {
			return exprs, nil
		}
	}
}

func (p *Parser) parseOrderBy() ([]OrderingTerm, error) {
	var terms []OrderingTerm
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		term := OrderingTerm{Expr: expr}

		t, err := p.scan()
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case DESC:
			term.Desc = true
		case ASC:
		default:
			p.unscan()
		}
		terms = append(terms, term)

		if ok, err := p.accept(COMMA); err != nil {
			return nil, err
		} else if !ok {
			return terms, nil
		}
	}
}

// parseLimit parses "n", "n OFFSET m" or "m, n" after LIMIT.
func (p *Parser) parseLimit(stmt *SelectStatement) error {
	first, err := p.parseExpression()
	if err != nil {
		return err
	}
	stmt.Limit = first

	t, err := p.scan()
	if err != nil {
		return err
	}
	switch t.Type {
	case OFFSET:
		offset, err := p.parseExpression()
		if err != nil {
			return err
		}
		stmt.Offset = offset
	case COMMA:
		limit, err := p.parseExpression()
		if err != nil {
			return err
		}
		stmt.Offset = first
		stmt.Limit = limit
	default:
		p.unscan()
	}
	return nil
}

func tokenIn(tok TokenType, in ...TokenType) bool {
	for _, t := range in {
		if tok == t {
			return true
		}
	}
	return false
}
