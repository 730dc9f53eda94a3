package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/kevin-cantwell/sqlcheck/internal/logging"
)

// SQLiteSource reads one statement per row from a text column of a table in
// a SQLite database file. NULL values are skipped. The database is opened
// lazily on the first call to Statements and only ever queried.
type SQLiteSource struct {
	stream
	path   string
	table  string
	column string
	db     *sql.DB
}

// NewSQLiteSource creates a source over table.column in the database at
// path. The table and column default to DefaultTable and DefaultColumn.
func NewSQLiteSource(path, table, column string) (*SQLiteSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "opening sqlite source")
	}
	if table == "" {
		table = DefaultTable
	}
	if column == "" {
		column = DefaultColumn
	}
	return &SQLiteSource{
		path:   path,
		table:  table,
		column: column,
	}, nil
}

func (s *SQLiteSource) Name() string {
	return fmt.Sprintf("%s:%s.%s", s.path, s.table, s.column)
}

// DBPath returns the filesystem path to the SQLite database file.
func (s *SQLiteSource) DBPath() string { return s.path }

// TableName returns the table name within the SQLite database.
func (s *SQLiteSource) TableName() string { return s.table }

func (s *SQLiteSource) Statements(ctx context.Context) (<-chan Statement, error) {
	if s.db != nil {
		return nil, errors.New("statements already read")
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA query_only = 1"); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "opening %s", s.path)
	}
	s.db = db
	return s.start(ctx, s.read)
}

func (s *SQLiteSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSource) read(ctx context.Context, emit func(Statement) bool) error {
	log := logging.WithInput("source", s.Name())

	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdent(s.column), quoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrapf(err, "querying %s", s.Name())
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return errors.Wrapf(err, "reading row %d of %s", n, s.Name())
		}
		if !text.Valid {
			log.Debug("skipping NULL statement", "row", n)
			continue
		}
		stmt := Statement{
			Name: fmt.Sprintf("%s#%d", s.Name(), n),
			SQL:  text.String,
		}
		if !emit(stmt) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", s.Name())
	}
	log.Debug("read rows", "rows", n)
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
