package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
)

// Result is the outcome of checking one statement.
type Result struct {
	Name string
	SQL  string
	// Command is set when the statement parsed.
	Command ast.Command
	// Err is the parse error, usually an *ast.SyntaxError.
	Err error
	// DialectErr is set when the statement parsed but SQLite rejected it.
	DialectErr error
	Elapsed    time.Duration
}

// OK reports whether the statement parsed and, when verified, was accepted.
func (r Result) OK() bool {
	return r.Err == nil && r.DialectErr == nil
}

// Writer writes check results.
type Writer interface {
	WriteResult(r Result) error
	Flush() error
}

// Summary counts the results of a run.
type Summary struct {
	Total         int
	OK            int
	SyntaxErrors  int
	DialectErrors int
	Elapsed       time.Duration
}

// Add counts r.
func (s *Summary) Add(r Result) {
	s.Total++
	switch {
	case r.Err != nil:
		s.SyntaxErrors++
	case r.DialectErr != nil:
		s.DialectErrors++
	default:
		s.OK++
	}
}

// Failed is the number of statements that did not pass.
func (s Summary) Failed() int {
	return s.SyntaxErrors + s.DialectErrors
}

// Discard drops every result.
var Discard Writer = discard{}

type discard struct{}

func (discard) WriteResult(Result) error { return nil }
func (discard) Flush() error             { return nil }

// JSONWriter writes one JSON object per result to an io.Writer.
type JSONWriter struct {
	w io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

type jsonResult struct {
	Name      string        `json:"name"`
	OK        bool          `json:"ok"`
	Kind      ast.ErrorKind `json:"kind,omitempty"`
	Line      int           `json:"line,omitempty"`
	Pos       int           `json:"pos,omitempty"`
	Offset    *int          `json:"offset,omitempty"`
	Length    *int          `json:"length,omitempty"`
	Found     string        `json:"found,omitempty"`
	Message   string        `json:"message,omitempty"`
	Dialect   string        `json:"dialect_error,omitempty"`
	SQL       string        `json:"sql,omitempty"`
	ElapsedUS int64         `json:"elapsed_us"`
}

func (jw *JSONWriter) WriteResult(r Result) error {
	rec := jsonResult{
		Name:      r.Name,
		OK:        r.OK(),
		ElapsedUS: r.Elapsed.Microseconds(),
	}
	if r.Command != nil {
		rec.SQL = ast.Format(r.Command)
	}
	if r.Err != nil {
		rec.Message = r.Err.Error()
		if se, ok := syntaxError(r.Err); ok {
			rec.Kind = se.Kind
			rec.Line = se.Line
			rec.Pos = se.Pos
			rec.Offset = &se.Offset
			rec.Length = &se.Length
			rec.Found = se.Found
		}
	}
	if r.DialectErr != nil {
		rec.Dialect = r.DialectErr.Error()
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(jw.w, string(b))
	return err
}

func (jw *JSONWriter) Flush() error {
	return nil
}
