package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
	"github.com/kevin-cantwell/sqlcheck/internal/output"
	"github.com/kevin-cantwell/sqlcheck/internal/source"
)

// --- test helpers ---

// chanSource is a test source backed by a channel.
type chanSource struct {
	ch  chan source.Statement
	err error
}

func newChanSource(err error, stmts ...source.Statement) *chanSource {
	ch := make(chan source.Statement, len(stmts))
	for _, s := range stmts {
		ch <- s
	}
	close(ch)
	return &chanSource{ch: ch, err: err}
}

func (s *chanSource) Name() string { return "chan" }
func (s *chanSource) Statements(context.Context) (<-chan source.Statement, error) {
	return s.ch, nil
}
func (s *chanSource) Err() error   { return s.err }
func (s *chanSource) Close() error { return nil }

// recorder is an output.Writer that keeps every result.
type recorder struct {
	results []output.Result
	failAt  int
	flushed bool
}

func (r *recorder) WriteResult(res output.Result) error {
	if r.failAt > 0 && len(r.results)+1 == r.failAt {
		return errors.New("disk full")
	}
	r.results = append(r.results, res)
	return nil
}

func (r *recorder) Flush() error {
	r.flushed = true
	return nil
}

func (r *recorder) names() []string {
	names := make([]string, len(r.results))
	for i, res := range r.results {
		names[i] = res.Name
	}
	return names
}

func TestCheck(t *testing.T) {
	e := New()

	r := e.Check(context.Background(), source.Statement{Name: "q", SQL: "SELECT * FROM users"})
	assert.NoError(t, r.Err)
	assert.True(t, r.OK())
	sel := r.Command.(*ast.SelectStatement)
	assert.Equal(t, "users", sel.Source.Name)

	r = e.Check(context.Background(), source.Statement{Name: "q", SQL: "SELECT FROM users"})
	assert.Equal(t, ast.ExpectedExpression, ast.KindOf(r.Err))
	assert.Zero(t, r.Command)
}

func TestCheckMaxDepth(t *testing.T) {
	e := New(WithMaxDepth(2))
	r := e.Check(context.Background(), source.Statement{SQL: "SELECT a FROM t WHERE (((1)))"})
	assert.Equal(t, ast.NestingTooDeep, ast.KindOf(r.Err))
}

func TestCheckVerify(t *testing.T) {
	e := New(WithVerifier(NewVerifier()))

	r := e.Check(context.Background(), source.Statement{SQL: "SELECT a FROM t WHERE b = 1"})
	assert.True(t, r.OK(), "%v", r.DialectErr)

	r = e.Check(context.Background(), source.Statement{SQL: "SELECT nope(a) FROM t"})
	assert.NoError(t, r.Err)
	var de *DialectError
	assert.True(t, errors.As(r.DialectErr, &de))
}

func TestRunKeepsInputOrder(t *testing.T) {
	var stmts []source.Statement
	for i := 0; i < 200; i++ {
		sql := fmt.Sprintf("SELECT c%d FROM t WHERE c%d > %d", i, i, i)
		if i%7 == 0 {
			sql = "SELECT FROM t"
		}
		stmts = append(stmts, source.Statement{Name: fmt.Sprintf("s%03d", i), SQL: sql})
	}

	rec := &recorder{}
	e := New(WithConcurrency(8))
	summary, err := e.Run(context.Background(), newChanSource(nil, stmts...), rec)
	assert.NoError(t, err)

	want := make([]string, len(stmts))
	for i, s := range stmts {
		want[i] = s.Name
	}
	assert.Equal(t, want, rec.names())
	assert.True(t, rec.flushed)

	assert.Equal(t, 200, summary.Total)
	assert.Equal(t, 29, summary.SyntaxErrors)
	assert.Equal(t, 171, summary.OK)
	assert.Equal(t, 0, summary.DialectErrors)
	assert.Equal(t, 29, summary.Failed())
}

func TestRunQuerySource(t *testing.T) {
	rec := &recorder{}
	summary, err := New().Run(context.Background(), source.NewQuerySource("SELECT * FROM users"), rec)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.OK)
	assert.Equal(t, []string{"query"}, rec.names())
}

func TestRunWithVerifier(t *testing.T) {
	src := source.NewQuerySource(
		"SELECT a FROM t",
		"SELECT nope(a) FROM t",
		"SELECT a FROM",
	)
	rec := &recorder{}
	summary, err := New(WithVerifier(NewVerifier()), WithConcurrency(2)).Run(context.Background(), src, rec)
	assert.NoError(t, err)
	assert.Equal(t, output.Summary{Total: 3, OK: 1, SyntaxErrors: 1, DialectErrors: 1, Elapsed: summary.Elapsed}, summary)
	assert.True(t, strings.Contains(rec.results[1].DialectErr.Error(), "no such function"))
}

func TestRunSourceError(t *testing.T) {
	src := newChanSource(errors.New("connection reset"), source.Statement{Name: "a", SQL: "SELECT * FROM t"})
	rec := &recorder{}
	summary, err := New().Run(context.Background(), src, rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, summary.Total)
}

func TestRunWriterError(t *testing.T) {
	queries := make([]string, 50)
	for i := range queries {
		queries[i] = "SELECT a FROM t"
	}
	rec := &recorder{failAt: 3}
	_, err := New(WithConcurrency(4)).Run(context.Background(), source.NewQuerySource(queries...), rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, len(rec.results))
	assert.False(t, rec.flushed)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, source.NewQuerySource("SELECT a FROM t"), &recorder{})
	assert.IsError(t, err, context.Canceled)
}
