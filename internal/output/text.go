package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/repr"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
)

// TextWriter writes human readable results: one status line per statement
// and, for syntax errors, the offending source line with a caret under the
// offending text.
type TextWriter struct {
	w io.Writer

	// ShowSQL prints the canonical form of statements that parsed.
	ShowSQL bool
	// ShowAST dumps the parsed command tree.
	ShowAST bool
	// OnlyFailures suppresses lines for statements that passed.
	OnlyFailures bool

	ok    *color.Color
	fail  *color.Color
	caret *color.Color
	faint *color.Color
}

// NewTextWriter returns a TextWriter. Colors are used unless noColor is set
// or the process has no color terminal.
func NewTextWriter(w io.Writer, noColor bool) *TextWriter {
	tw := &TextWriter{
		w:     w,
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed, color.Bold),
		caret: color.New(color.FgYellow, color.Bold),
		faint: color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{tw.ok, tw.fail, tw.caret, tw.faint} {
			c.DisableColor()
		}
	}
	return tw
}

func (tw *TextWriter) WriteResult(r Result) error {
	switch {
	case r.Err != nil:
		return tw.writeSyntaxError(r)
	case r.DialectErr != nil:
		tw.fail.Fprint(tw.w, "error")
		fmt.Fprintf(tw.w, " %s: rejected by sqlite: %v\n", r.Name, r.DialectErr)
		if r.Command != nil {
			tw.faint.Fprintf(tw.w, "  %s\n", ast.Format(r.Command))
		}
		return nil
	}

	if !tw.OnlyFailures {
		tw.ok.Fprint(tw.w, "ok")
		fmt.Fprintf(tw.w, "    %s\n", r.Name)
	}
	if tw.ShowSQL && r.Command != nil {
		fmt.Fprintf(tw.w, "  %s\n", ast.Format(r.Command))
	}
	if tw.ShowAST && r.Command != nil {
		fmt.Fprintln(tw.w, repr.String(r.Command, repr.Indent("  "), repr.OmitEmpty(true)))
	}
	return nil
}

func (tw *TextWriter) writeSyntaxError(r Result) error {
	se, ok := syntaxError(r.Err)
	if !ok {
		tw.fail.Fprint(tw.w, "error")
		_, err := fmt.Fprintf(tw.w, " %s: %v\n", r.Name, r.Err)
		return err
	}

	tw.fail.Fprint(tw.w, "error")
	fmt.Fprintf(tw.w, " %s:%d:%d: %s: %v\n", r.Name, se.Line, se.Pos, se.Kind, se)

	line, ok := sourceLine(r.SQL, se.Line)
	if !ok {
		return nil
	}
	fmt.Fprintf(tw.w, "  %s\n", expandTabs(line))
	fmt.Fprint(tw.w, "  ", caretIndent(line, se.Pos))
	tw.caret.Fprintln(tw.w, strings.Repeat("^", caretWidth(line, se)))
	return nil
}

func (tw *TextWriter) Flush() error {
	return nil
}

func syntaxError(err error) (*ast.SyntaxError, bool) {
	var se *ast.SyntaxError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// sourceLine returns the 1-indexed line of sql.
func sourceLine(sql string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := strings.Split(sql, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

func expandTabs(line string) string {
	return strings.ReplaceAll(line, "\t", "    ")
}

// caretIndent is the blank space under line before the rune at pos.
func caretIndent(line string, pos int) string {
	var b strings.Builder
	i := 1
	for _, ch := range line {
		if i >= pos {
			break
		}
		if ch == '\t' {
			b.WriteString("    ")
		} else {
			b.WriteByte(' ')
		}
		i++
	}
	return b.String()
}

// caretWidth is the number of runes of the error's text that fall on line.
func caretWidth(line string, se *ast.SyntaxError) int {
	start := se.Pos - 1
	runes := utf8.RuneCountInString(line)
	if start >= runes || se.Length == 0 {
		return 1
	}
	n := utf8.RuneCountInString(se.Found)
	if se.Found == "EOF" {
		n = 1
	}
	if n > runes-start {
		n = runes - start
	}
	if n < 1 {
		n = 1
	}
	return n
}
