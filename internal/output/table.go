package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
)

// TokenTable writes the token stream of every statement as a table, followed
// by the parse outcome.
type TokenTable struct {
	w io.Writer
}

func NewTokenTable(w io.Writer) *TokenTable {
	return &TokenTable{w: w}
}

func (tt *TokenTable) WriteResult(r Result) error {
	fmt.Fprintf(tt.w, "-- %s\n", r.Name)

	table := tablewriter.NewWriter(tt.w)
	table.SetHeader([]string{"#", "Token", "Class", "Raw", "Value", "Line", "Pos"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	n := 0
	var scanErr error
	for tok, err := range ast.Tokenize(r.SQL).All() {
		if err != nil {
			scanErr = err
			break
		}
		n++
		table.Append([]string{
			strconv.Itoa(n),
			tok.Type.String(),
			tok.Type.Class().String(),
			fmt.Sprintf("%q", tok.Raw),
			tok.Value,
			strconv.Itoa(tok.Line),
			strconv.Itoa(tok.Pos),
		})
	}
	if scanErr != nil {
		row := []string{"", "ILLEGAL", ast.ClassIllegal.String(), "", "", "", ""}
		if se, ok := syntaxError(scanErr); ok {
			row[3] = fmt.Sprintf("%q", se.Found)
			row[5] = strconv.Itoa(se.Line)
			row[6] = strconv.Itoa(se.Pos)
		}
		table.Append(row)
	}
	table.Render()

	var err error
	switch {
	case r.Err != nil:
		_, err = fmt.Fprintf(tt.w, "error: %v\n\n", r.Err)
	case r.DialectErr != nil:
		_, err = fmt.Fprintf(tt.w, "error: rejected by sqlite: %v\n\n", r.DialectErr)
	default:
		_, err = fmt.Fprintf(tt.w, "ok: %s\n\n", ast.Format(r.Command))
	}
	return err
}

func (tt *TokenTable) Flush() error {
	return nil
}

// WriteSummary renders the counts of a run as a table.
func WriteSummary(w io.Writer, s Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Statements", "OK", "Syntax errors", "Dialect errors", "Elapsed"})
	table.SetAutoFormatHeaders(false)
	table.Append([]string{
		strconv.Itoa(s.Total),
		strconv.Itoa(s.OK),
		strconv.Itoa(s.SyntaxErrors),
		strconv.Itoa(s.DialectErrors),
		s.Elapsed.Round(time.Microsecond).String(),
	})
	table.Render()
}
