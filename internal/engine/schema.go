package engine

import (
	"fmt"
	"strings"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
)

// placeholderColumn keeps CREATE TABLE valid for tables whose columns are
// never referenced by name.
const placeholderColumn = "_"

// ShadowTable is an empty table standing in for one the statement reads.
type ShadowTable struct {
	Schema  string
	Name    string
	Columns []string

	seen map[string]bool
}

func (t *ShadowTable) addColumn(name string) {
	key := strings.ToLower(name)
	if t.seen[key] {
		return
	}
	t.seen[key] = true
	t.Columns = append(t.Columns, name)
}

// ShadowSchema is the smallest schema under which a statement's table and
// column names resolve.
type ShadowSchema struct {
	// Attach lists the schemas that must be attached before the tables exist.
	Attach []string
	Tables []*ShadowTable
}

// AnalyzeSchema walks the statement and collects the tables it reads and
// the columns it references. Qualified columns belong to the table whose
// alias (or name) qualifies them; unqualified columns belong to the FROM
// table, unless they name a projection alias.
func AnalyzeSchema(sel *ast.SelectStatement) *ShadowSchema {
	schema := &ShadowSchema{}
	tables := make(map[string]*ShadowTable)       // schema.name → table
	aliasToTable := make(map[string]*ShadowTable) // alias (or name) → table
	attached := make(map[string]bool)

	addTable := func(ref ast.TableRef) *ShadowTable {
		if ref.Schema != "" && !builtinSchema(ref.Schema) && !attached[strings.ToLower(ref.Schema)] {
			attached[strings.ToLower(ref.Schema)] = true
			schema.Attach = append(schema.Attach, ref.Schema)
		}
		// main.t and t are the same table
		schemaKey := strings.ToLower(ref.Schema)
		if schemaKey == "main" {
			schemaKey = ""
		}
		key := schemaKey + "." + strings.ToLower(ref.Name)
		t, ok := tables[key]
		if !ok {
			t = &ShadowTable{Schema: ref.Schema, Name: ref.Name, seen: make(map[string]bool)}
			tables[key] = t
			schema.Tables = append(schema.Tables, t)
		}
		aliasToTable[strings.ToLower(ref.RefName())] = t
		return t
	}

	source := addTable(sel.Source)
	for _, j := range sel.Joins {
		addTable(j.Table)
	}

	aliases := make(map[string]bool)
	for _, item := range sel.Projection {
		if a, ok := item.(*ast.AliasedExpr); ok {
			aliases[strings.ToLower(a.Alias)] = true
		}
	}

	for _, expr := range sel.Expressions() {
		ast.Walk(expr, func(e ast.Expression) bool {
			ref, ok := e.(*ast.ColumnRef)
			if !ok {
				return true
			}
			if ref.Table == "" {
				if !aliases[strings.ToLower(ref.Column)] {
					source.addColumn(ref.Column)
				}
				return true
			}
			// an unknown qualifier is left for SQLite to report
			if t, ok := aliasToTable[strings.ToLower(ref.Table)]; ok {
				t.addColumn(ref.Column)
			}
			return true
		})
	}

	for _, t := range schema.Tables {
		if len(t.Columns) == 0 {
			t.addColumn(placeholderColumn)
		}
	}
	return schema
}

// DDL returns the statements that create the schema in an empty database.
func (s *ShadowSchema) DDL() []string {
	var stmts []string
	for _, name := range s.Attach {
		stmts = append(stmts, fmt.Sprintf("ATTACH DATABASE ':memory:' AS %s", quoteIdent(name)))
	}
	for _, t := range s.Tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = quoteIdent(c)
		}
		name := quoteIdent(t.Name)
		if t.Schema != "" {
			name = quoteIdent(t.Schema) + "." + name
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(cols, ", ")))
	}
	return stmts
}

func builtinSchema(name string) bool {
	switch strings.ToLower(name) {
	case "main", "temp":
		return true
	}
	return false
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
