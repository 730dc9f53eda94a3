package ast

import (
	"strconv"
	"strings"
)

// parseExpression is the entry point for expression parsing using precedence climbing.
func (p *Parser) parseExpression() (Expression, error) {
	return p.parsePrecedence(0)
}

// parsePrecedence implements Pratt parsing / precedence climbing. Every
// nested sub-expression passes through here, so this is where recursion is
// bounded. A tree within MaxDepth recurses at most twice per level, even when
// fully parenthesized, so the bound below never rejects what nest accepts.
func (p *Parser) parsePrecedence(minPrec int) (Expression, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > 2*p.maxDepth()+1 {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}
		return nil, p.tooDeep(t)
	}

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}

		prec := infixPrecedence(t.Type)
		if prec < 0 || prec < minPrec {
			return left, nil
		}

		// Consume the operator
		if _, err := p.scan(); err != nil {
			return nil, err
		}

		switch t.Type {
		case AND, OR,
			EQ, NEQ, LT, LTE, GT, GTE,
			PLUS, MINUS,
			STAR, SLASH, PERCENT,
			CONCAT:
			right, err := p.parsePrecedence(prec + 1)
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: t.Type, Left: left, Right: right}

		case LIKE:
			right, err := p.parsePrecedence(prec + 1)
			if err != nil {
				return nil, err
			}
			left = &LikeExpr{Expr: left, Pattern: right}

		case IS:
			left, err = p.parseIsExpr(left)
			if err != nil {
				return nil, err
			}

		case NOT:
			left, err = p.parseNotPostfix(left)
			if err != nil {
				return nil, err
			}

		case IN:
			left, err = p.parseInExpr(left, false)
			if err != nil {
				return nil, err
			}

		case BETWEEN:
			left, err = p.parseBetweenExpr(left, false)
			if err != nil {
				return nil, err
			}

		default:
			p.unscan()
			return left, nil
		}

		if left, err = p.nest(left, t); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	t, err := p.scan()
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case NOT:
		operand, err := p.parsePrecedence(precedenceNOT)
		if err != nil {
			return nil, err
		}
		return p.nest(&UnaryExpr{Op: NOT, Operand: operand}, t)

	case MINUS, PLUS:
		operand, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return p.nest(&UnaryExpr{Op: t.Type, Operand: operand}, t)

	case LPAREN:
		p.parens++
		defer func() { p.parens-- }()
		if p.parens > p.maxDepth() {
			return nil, p.tooDeep(t)
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case IDENT:
		return p.parseIdentOrFunction(t)

	case NUMERIC:
		return &Literal{Kind: NumberLiteral, Value: t.Value}, nil

	case STRING:
		return &Literal{Kind: StringLiteral, Value: t.Value}, nil

	case TRUE, FALSE:
		return &Literal{Kind: BooleanLiteral, Value: t.Value}, nil

	case NULL:
		return &Literal{Kind: NullLiteral, Value: "NULL"}, nil

	default:
		return nil, newTokenError(ExpectedExpression, t)
	}
}

func (p *Parser) parseIdentOrFunction(ident Token) (Expression, error) {
	name := ident.Value

	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch t.Type {
	// Function call: ident(
	case LPAREN:
		if _, err := p.scan(); err != nil {
			return nil, err
		}
		fn, err := p.parseFunctionArgs(strings.ToUpper(name))
		if err != nil {
			return nil, err
		}
		return p.nest(fn, ident)

	// Qualified name: ident.ident
	case DOT:
		if _, err := p.scan(); err != nil {
			return nil, err
		}
		col, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		return &ColumnRef{Table: name, Column: col.Value}, nil
	}

	return &ColumnRef{Column: name}, nil
}

// parseFunctionArgs parses function arguments after the opening paren has been consumed.
func (p *Parser) parseFunctionArgs(name string) (Expression, error) {
	fn := &FunctionExpr{Name: name}

	t, err := p.scan()
	if err != nil {
		return nil, err
	}
	switch t.Type {
	case RPAREN:
		return fn, nil
	case STAR:
		// COUNT(*)
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		fn.Args = []Expression{&Wildcard{}}
		return fn, nil
	case DISTINCT:
		fn.Distinct = true
	default:
		p.unscan()
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)

		t, err := p.expect(COMMA, RPAREN)
		if err != nil {
			return nil, err
		}
		if t.Type == RPAREN {
			return fn, nil
		}
	}
}

func (p *Parser) parseIsExpr(left Expression) (Expression, error) {
	not, err := p.accept(NOT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(NULL); err != nil {
		return nil, err
	}
	return &IsNullExpr{Expr: left, Not: not}, nil
}

func (p *Parser) parseNotPostfix(left Expression) (Expression, error) {
	t, err := p.expect(IN, BETWEEN, LIKE)
	if err != nil {
		return nil, err
	}
	switch t.Type {
	case IN:
		return p.parseInExpr(left, true)
	case BETWEEN:
		return p.parseBetweenExpr(left, true)
	default:
		right, err := p.parsePrecedence(precedenceComparison + 1)
		if err != nil {
			return nil, err
		}
		return &LikeExpr{Expr: left, Pattern: right, Not: true}, nil
	}
}

func (p *Parser) parseInExpr(left Expression, not bool) (Expression, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var values []Expression
	for {
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		values = append(values, val)

		t, err := p.expect(COMMA, RPAREN)
		if err != nil {
			return nil, err
		}
		if t.Type == RPAREN {
			break
		}
	}
	return &InExpr{Expr: left, Values: values, Not: not}, nil
}

func (p *Parser) parseBetweenExpr(left Expression, not bool) (Expression, error) {
	low, err := p.parsePrecedence(precedenceComparison + 1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(AND); err != nil {
		return nil, err
	}
	high, err := p.parsePrecedence(precedenceComparison + 1)
	if err != nil {
		return nil, err
	}
	return &BetweenExpr{Expr: left, Low: low, High: high, Not: not}, nil
}

// nest records the height of a node just built from already measured
// children. Leaves are height one.
func (p *Parser) nest(e Expression, at Token) (Expression, error) {
	h := 0
	for _, c := range children(e) {
		h = max(h, p.height(c))
	}
	h++
	if h > p.maxDepth() {
		return nil, p.tooDeep(at)
	}
	if p.heights == nil {
		p.heights = make(map[Expression]int)
	}
	p.heights[e] = h
	return e, nil
}

func (p *Parser) height(e Expression) int {
	if h, ok := p.heights[e]; ok {
		return h
	}
	return 1
}

func (p *Parser) tooDeep(at Token) error {
	se := newTokenError(NestingTooDeep, at)
	se.Detail = "limit is " + strconv.Itoa(p.maxDepth())
	return se
}

func (p *Parser) maxDepth() int {
	if p.MaxDepth > 0 {
		return p.MaxDepth
	}
	return DefaultMaxDepth
}

// Precedence levels (higher = binds tighter)
const (
	precedenceOR         = 1
	precedenceAND        = 2
	precedenceNOT        = 3
	precedenceComparison = 4
	precedenceAddSub     = 5
	precedenceMulDiv     = 6
	precedenceConcat     = 7
	precedenceUnary      = 8
)

func infixPrecedence(t TokenType) int {
	switch t {
	case OR:
		return precedenceOR
	case AND:
		return precedenceAND
	case NOT:
		return precedenceComparison // for NOT IN, NOT BETWEEN, NOT LIKE
	case EQ, NEQ, LT, LTE, GT, GTE, LIKE, IS, IN, BETWEEN:
		return precedenceComparison
	case PLUS, MINUS:
		return precedenceAddSub
	case STAR, SLASH, PERCENT:
		return precedenceMulDiv
	case CONCAT:
		return precedenceConcat
	default:
		return -1 // not an infix operator
	}
}
