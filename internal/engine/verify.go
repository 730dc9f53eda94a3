package engine

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
	"github.com/kevin-cantwell/sqlcheck/internal/logging"
)

// DialectError is a statement this parser accepts but SQLite rejects.
type DialectError struct {
	// SQL is the text SQLite was asked to prepare.
	SQL string
	Err error
}

func (e *DialectError) Error() string {
	return e.Err.Error()
}

func (e *DialectError) Unwrap() error {
	return e.Err
}

// Verifier cross-checks parsed statements against SQLite itself. Each call to
// Verify uses a private in-memory database, so a Verifier is safe for
// concurrent use.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify builds a shadow schema for cmd and asks SQLite to EXPLAIN it.
// A rejection is returned as *DialectError; any other error means the check
// itself could not run.
func (v *Verifier) Verify(ctx context.Context, cmd ast.Command) error {
	sel, ok := cmd.(*ast.SelectStatement)
	if !ok {
		return errors.Errorf("cannot verify %T", cmd)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return errors.Wrap(err, "open sqlite")
	}
	defer db.Close()
	// ATTACH and the shadow tables only exist on the connection that made them
	db.SetMaxOpenConns(1)

	log := logging.WithComponent("verifier")
	for _, ddl := range AnalyzeSchema(sel).DDL() {
		log.Debug("shadow schema", "ddl", ddl)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// e.g. a table name SQLite reserves for itself
			return &DialectError{SQL: ddl, Err: err}
		}
	}

	query := ast.FormatQuoted(sel)
	rows, err := db.QueryContext(ctx, "EXPLAIN "+query)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &DialectError{SQL: query, Err: err}
	}
	// the statement compiled; the program listing itself is not needed
	return rows.Close()
}
