package ast

import (
	"fmt"
	"strings"
)

// Format renders a command as canonical SQLite SQL on one line. Binary and
// unary expressions are fully parenthesized, so the output parses back into
// an identical tree.
func Format(cmd Command) string {
	f := &formatter{}
	f.writeCommand(cmd)
	return f.b.String()
}

// FormatQuoted is Format with every identifier double-quoted. Use it when the
// text is handed to an engine whose keyword set is larger than this parser's.
func FormatQuoted(cmd Command) string {
	f := &formatter{quoteAll: true}
	f.writeCommand(cmd)
	return f.b.String()
}

// FormatExpr renders a single expression the way Format does.
func FormatExpr(expr Expression) string {
	f := &formatter{}
	f.writeExpr(expr)
	return f.b.String()
}

type formatter struct {
	b        strings.Builder
	quoteAll bool
}

func (f *formatter) ident(name string) {
	if f.quoteAll {
		f.b.WriteString(quoteIdent(name))
		return
	}
	f.b.WriteString(QuoteIdent(name))
}

func (f *formatter) writeCommand(cmd Command) {
	switch c := cmd.(type) {
	case *SelectStatement:
		f.writeSelect(c)
	default:
		f.b.WriteString("?")
	}
}

func (f *formatter) writeSelect(sel *SelectStatement) {
	b := &f.b

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}

	f.writeList(sel.Projection)

	b.WriteString(" FROM ")
	f.writeTableRef(sel.Source)

	for _, j := range sel.Joins {
		b.WriteString(" ")
		b.WriteString(j.Type.String())
		b.WriteString(" ")
		f.writeTableRef(j.Table)
		if j.Condition != nil {
			b.WriteString(" ON ")
			f.writeExpr(j.Condition)
		}
	}

	if sel.Where != nil {
		b.WriteString(" WHERE ")
		f.writeExpr(sel.Where)
	}

	if len(sel.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		f.writeList(sel.GroupBy)
		if sel.Having != nil {
			b.WriteString(" HAVING ")
			f.writeExpr(sel.Having)
		}
	}

	if len(sel.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, term := range sel.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			f.writeExpr(term.Expr)
			if term.Desc {
				b.WriteString(" DESC")
			}
		}
	}

	if sel.Limit != nil {
		b.WriteString(" LIMIT ")
		f.writeExpr(sel.Limit)
		if sel.Offset != nil {
			b.WriteString(" OFFSET ")
			f.writeExpr(sel.Offset)
		}
	}
}

func (f *formatter) writeTableRef(t TableRef) {
	if t.Schema != "" {
		f.ident(t.Schema)
		f.b.WriteString(".")
	}
	f.ident(t.Name)
	if t.Alias != "" {
		f.b.WriteString(" AS ")
		f.ident(t.Alias)
	}
}

func (f *formatter) writeList(exprs []Expression) {
	for i, expr := range exprs {
		if i > 0 {
			f.b.WriteString(", ")
		}
		f.writeExpr(expr)
	}
}

func (f *formatter) writeExpr(expr Expression) {
	b := &f.b
	switch e := expr.(type) {
	case *BinaryExpr:
		b.WriteString("(")
		f.writeExpr(e.Left)
		b.WriteString(" ")
		b.WriteString(e.Op.String())
		b.WriteString(" ")
		f.writeExpr(e.Right)
		b.WriteString(")")

	case *UnaryExpr:
		b.WriteString("(")
		if e.Op == NOT {
			b.WriteString("NOT ")
		} else {
			b.WriteString(e.Op.String())
		}
		f.writeExpr(e.Operand)
		b.WriteString(")")

	case *ColumnRef:
		if e.Table != "" {
			f.ident(e.Table)
			b.WriteString(".")
		}
		f.ident(e.Column)

	case *Literal:
		switch e.Kind {
		case StringLiteral:
			b.WriteString(QuoteLiteral(e.Value))
		default:
			b.WriteString(e.Value)
		}

	case *Wildcard:
		if e.Table != "" {
			f.ident(e.Table)
			b.WriteString(".")
		}
		b.WriteString("*")

	case *AliasedExpr:
		f.writeExpr(e.Expr)
		b.WriteString(" AS ")
		f.ident(e.Alias)

	case *FunctionExpr:
		// function names are never force-quoted
		b.WriteString(QuoteIdent(e.Name))
		b.WriteString("(")
		if e.Distinct {
			b.WriteString("DISTINCT ")
		}
		f.writeList(e.Args)
		b.WriteString(")")

	case *IsNullExpr:
		b.WriteString("(")
		f.writeExpr(e.Expr)
		if e.Not {
			b.WriteString(" IS NOT NULL)")
		} else {
			b.WriteString(" IS NULL)")
		}

	case *InExpr:
		b.WriteString("(")
		f.writeExpr(e.Expr)
		b.WriteString(notKeyword(e.Not))
		b.WriteString(" IN (")
		f.writeList(e.Values)
		b.WriteString("))")

	case *BetweenExpr:
		b.WriteString("(")
		f.writeExpr(e.Expr)
		b.WriteString(notKeyword(e.Not))
		b.WriteString(" BETWEEN ")
		f.writeExpr(e.Low)
		b.WriteString(" AND ")
		f.writeExpr(e.High)
		b.WriteString(")")

	case *LikeExpr:
		b.WriteString("(")
		f.writeExpr(e.Expr)
		b.WriteString(notKeyword(e.Not))
		b.WriteString(" LIKE ")
		f.writeExpr(e.Pattern)
		b.WriteString(")")

	default:
		fmt.Fprintf(b, "?%T", expr)
	}
}

func notKeyword(yes bool) string {
	if yes {
		return " NOT"
	}
	return ""
}

// QuoteIdent returns name as written when it is a plain, non-keyword
// identifier, and double-quoted otherwise.
func QuoteIdent(name string) string {
	if isPlainIdent(name) && !isKeyword(name) {
		return name
	}
	return quoteIdent(name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral returns s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, ch := range name {
		switch {
		case ch == '_', 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z':
		case i > 0 && (isDigit(ch) || ch == '$'):
		default:
			return false
		}
	}
	return true
}
