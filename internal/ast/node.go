package ast

// Command is one parsed statement. The only implementation is
// *SelectStatement; consumers switch on the concrete type.
type Command interface {
	commandNode()
	String() string
}

// SelectStatement represents a full SELECT query.
type SelectStatement struct {
	Distinct   bool
	Projection []Expression
	Source     TableRef
	Joins      []Join
	Where      Expression
	GroupBy    []Expression
	Having     Expression
	OrderBy    []OrderingTerm
	Limit      Expression
	Offset     Expression
}

func (*SelectStatement) commandNode() {}

func (s *SelectStatement) String() string { return Format(s) }

// TableRef is a table name with optional schema and alias.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// RefName is the name other clauses use to qualify this table's columns.
func (t TableRef) RefName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Join represents a JOIN.
type Join struct {
	Type      JoinType
	Table     TableRef
	Condition Expression // nil when there is no ON clause
}

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	CrossJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// OrderingTerm is a single ORDER BY expression.
type OrderingTerm struct {
	Expr Expression
	Desc bool
}

// Expression is a node in an expression tree.
type Expression interface {
	exprNode()
}

// BinaryExpr represents a binary operation (arithmetic, comparison, logical).
type BinaryExpr struct {
	Op    TokenType
	Left  Expression
	Right Expression
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary operation (NOT, unary minus and plus).
type UnaryExpr struct {
	Op      TokenType
	Operand Expression
}

func (*UnaryExpr) exprNode() {}

// FunctionExpr represents a function call like COUNT(x), SUM(DISTINCT x), UPPER(x).
type FunctionExpr struct {
	Name     string
	Distinct bool
	Args     []Expression
}

func (*FunctionExpr) exprNode() {}

// ColumnRef is a reference to a column, possibly qualified (table.column).
type ColumnRef struct {
	Table  string
	Column string
}

func (*ColumnRef) exprNode() {}

type LiteralKind int

const (
	NumberLiteral LiteralKind = iota + 1
	StringLiteral
	BooleanLiteral
	NullLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case NumberLiteral:
		return "number"
	case StringLiteral:
		return "string"
	case BooleanLiteral:
		return "boolean"
	case NullLiteral:
		return "null"
	default:
		return "unknown"
	}
}

// Literal is a literal value. Value holds the numeric text, the unquoted
// string, TRUE/FALSE, or NULL.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// Wildcard is * in a projection or function argument, or table.* in a projection.
type Wildcard struct {
	Table string
}

func (*Wildcard) exprNode() {}

// AliasedExpr is a projection item renamed with [AS] alias.
type AliasedExpr struct {
	Expr  Expression
	Alias string
}

func (*AliasedExpr) exprNode() {}

// IsNullExpr represents "expr IS [NOT] NULL".
type IsNullExpr struct {
	Expr Expression
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// BetweenExpr represents "expr [NOT] BETWEEN low AND high".
type BetweenExpr struct {
	Expr Expression
	Low  Expression
	High Expression
	Not  bool
}

func (*BetweenExpr) exprNode() {}

// InExpr represents "expr [NOT] IN (values...)".
type InExpr struct {
	Expr   Expression
	Values []Expression
	Not    bool
}

func (*InExpr) exprNode() {}

// LikeExpr represents "expr [NOT] LIKE pattern".
type LikeExpr struct {
	Expr    Expression
	Pattern Expression
	Not     bool
}

func (*LikeExpr) exprNode() {}

// Walk calls fn for expr and every expression below it, parents first.
// Returning false from fn skips the node's children.
func Walk(expr Expression, fn func(Expression) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	for _, c := range children(expr) {
		Walk(c, fn)
	}
}

// children lists the direct sub-expressions of expr in source order.
func children(expr Expression) []Expression {
	switch e := expr.(type) {
	case *BinaryExpr:
		return []Expression{e.Left, e.Right}
	case *UnaryExpr:
		return []Expression{e.Operand}
	case *FunctionExpr:
		return e.Args
	case *AliasedExpr:
		return []Expression{e.Expr}
	case *IsNullExpr:
		return []Expression{e.Expr}
	case *BetweenExpr:
		return []Expression{e.Expr, e.Low, e.High}
	case *InExpr:
		return append([]Expression{e.Expr}, e.Values...)
	case *LikeExpr:
		return []Expression{e.Expr, e.Pattern}
	}
	return nil
}

// Expressions returns every top-level expression of the statement in clause order.
func (s *SelectStatement) Expressions() []Expression {
	var exprs []Expression
	exprs = append(exprs, s.Projection...)
	for _, j := range s.Joins {
		if j.Condition != nil {
			exprs = append(exprs, j.Condition)
		}
	}
	if s.Where != nil {
		exprs = append(exprs, s.Where)
	}
	exprs = append(exprs, s.GroupBy...)
	if s.Having != nil {
		exprs = append(exprs, s.Having)
	}
	for _, o := range s.OrderBy {
		exprs = append(exprs, o.Expr)
	}
	if s.Limit != nil {
		exprs = append(exprs, s.Limit)
	}
	if s.Offset != nil {
		exprs = append(exprs, s.Offset)
	}
	return exprs
}
