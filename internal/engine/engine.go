package engine

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
	"github.com/kevin-cantwell/sqlcheck/internal/logging"
	"github.com/kevin-cantwell/sqlcheck/internal/output"
	"github.com/kevin-cantwell/sqlcheck/internal/source"
)

// Summary counts the outcome of a Run.
type Summary = output.Summary

// Engine checks statements from a source and reports them in input order.
type Engine struct {
	concurrency int
	maxDepth    int
	verifier    *Verifier
	log         *slog.Logger
}

type Option func(*Engine)

// WithConcurrency bounds how many statements are checked at once.
// Values below one mean runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMaxDepth sets the parser's expression nesting limit.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithVerifier cross-checks every parsed statement against SQLite.
func WithVerifier(v *Verifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// New creates a new Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		concurrency: runtime.GOMAXPROCS(0),
		log:         logging.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check parses one statement and, with a verifier, cross-checks it.
func (e *Engine) Check(ctx context.Context, stmt source.Statement) output.Result {
	start := time.Now()
	r := output.Result{Name: stmt.Name, SQL: stmt.SQL}

	p := ast.NewParser(stmt.SQL)
	p.MaxDepth = e.maxDepth
	r.Command, r.Err = p.Parse()

	if r.Err == nil && e.verifier != nil {
		if err := e.verifier.Verify(ctx, r.Command); err != nil {
			var de *DialectError
			if !errors.As(err, &de) {
				err = errors.Wrap(err, "verify")
			}
			r.DialectErr = err
		}
	}
	r.Elapsed = time.Since(start)

	log := e.log.With("input", stmt.Name, "elapsed", r.Elapsed)
	switch {
	case r.Err != nil:
		log.Debug("syntax error", "kind", ast.KindOf(r.Err), "error", r.Err)
	case r.DialectErr != nil:
		log.Debug("rejected by sqlite", "error", r.DialectErr)
	default:
		log.Debug("ok")
	}
	return r
}

// Run checks every statement of src, writing results to out in the order the
// source produced them. The returned error is about the run itself (a failing
// source, writer or context); statements that fail to check are counted in
// the Summary.
func (e *Engine) Run(ctx context.Context, src source.Source, out output.Writer) (Summary, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stmts, err := src.Statements(ctx)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "reading %s", src.Name())
	}
	e.log.Info("run started", "source", src.Name(), "concurrency", e.concurrency, "verify", e.verifier != nil)

	// One slot per statement, queued in input order. Workers fill slots in
	// any order; the writer drains them in sequence.
	pending := make(chan chan output.Result, e.concurrency)

	var summary Summary
	written := make(chan error, 1)
	go func() {
		var err error
		for slot := range pending {
			r := <-slot
			if err != nil {
				continue
			}
			summary.Add(r)
			if werr := out.WriteResult(r); werr != nil {
				err = errors.Wrap(werr, "writing result")
				cancel()
			}
		}
		written <- err
	}()

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for stmt := range stmts {
		slot := make(chan output.Result, 1)
		pending <- slot
		g.Go(func() error {
			slot <- e.Check(ctx, stmt)
			return nil
		})
	}
	g.Wait()
	close(pending)

	writeErr := <-written
	summary.Elapsed = time.Since(start)

	e.log.Info("run finished",
		"source", src.Name(),
		"total", summary.Total,
		"failed", summary.Failed(),
		"elapsed", summary.Elapsed)

	switch {
	case writeErr != nil:
		return summary, writeErr
	case src.Err() != nil:
		return summary, errors.Wrapf(src.Err(), "reading %s", src.Name())
	}
	if err := out.Flush(); err != nil {
		return summary, errors.Wrap(err, "flushing output")
	}
	return summary, nil
}
