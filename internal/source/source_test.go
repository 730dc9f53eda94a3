package source

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	_ "modernc.org/sqlite"
)

func collect(t *testing.T, src Source) []Statement {
	t.Helper()
	ch, err := src.Statements(context.Background())
	assert.NoError(t, err)
	var stmts []Statement
	for stmt := range ch {
		stmts = append(stmts, stmt)
	}
	assert.NoError(t, src.Err())
	assert.NoError(t, src.Close())
	return stmts
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri  string
		want Config
	}{
		{"-", Config{URI: "-", Scheme: "stdin"}},
		{"stdin", Config{URI: "stdin", Scheme: "stdin"}},
		{"file://queries/", Config{URI: "file://queries/", Scheme: "file", Path: "queries/"}},
		{"q.sql", Config{URI: "q.sql", Scheme: "file", Path: "q.sql"}},
		{"sqlite://corpus.db", Config{URI: "sqlite://corpus.db", Scheme: "sqlite", Path: "corpus.db", Table: DefaultTable, Column: DefaultColumn}},
		{"sqlite:///tmp/c.db?table=log&column=text", Config{URI: "sqlite:///tmp/c.db?table=log&column=text", Scheme: "sqlite", Path: "/tmp/c.db", Table: "log", Column: "text"}},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			cfg, err := ParseURI(tt.uri)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}

	for _, bad := range []string{"mysql://host/db", "file://", "sqlite://?table=x"} {
		_, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuerySource(t *testing.T) {
	stmts := collect(t, NewQuerySource("SELECT * FROM users"))
	assert.Equal(t, []Statement{{Name: "query", SQL: "SELECT * FROM users"}}, stmts)

	stmts = collect(t, NewQuerySource("SELECT a FROM t", "SELECT b FROM u"))
	assert.Equal(t, []Statement{
		{Name: "query#1", SQL: "SELECT a FROM t"},
		{Name: "query#2", SQL: "SELECT b FROM u"},
	}, stmts)
}

func TestStatementsOnlyOnce(t *testing.T) {
	src := NewQuerySource("SELECT a FROM t")
	_ = collect(t, src)
	_, err := src.Statements(context.Background())
	assert.Error(t, err)
}

func TestStdinSource(t *testing.T) {
	sql := "SELECT a\nFROM t;\n"
	stmts := collect(t, NewStdinSource(strings.NewReader(sql)))
	assert.Equal(t, []Statement{{Name: "stdin", SQL: sql}}, stmts)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.sql": "SELECT b FROM t",
		"a.sql": "SELECT a FROM t",
		"c.sql": "SELECT FROM t",
	}
	for name, sql := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o600))
	}
	assert.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))

	t.Run("directory", func(t *testing.T) {
		src, err := NewFileSource(dir)
		assert.NoError(t, err)
		stmts := collect(t, src)
		assert.Equal(t, []Statement{
			{Name: filepath.Join(dir, "a.sql"), SQL: "SELECT a FROM t"},
			{Name: filepath.Join(dir, "b.sql"), SQL: "SELECT b FROM t"},
			{Name: filepath.Join(dir, "c.sql"), SQL: "SELECT FROM t"},
		}, stmts)
	})

	t.Run("single file", func(t *testing.T) {
		path := filepath.Join(dir, "b.sql")
		src, err := NewFileSource(path)
		assert.NoError(t, err)
		assert.Equal(t, []Statement{{Name: path, SQL: "SELECT b FROM t"}}, collect(t, src))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(dir, "nope.sql"))
		assert.Error(t, err)
	})
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	db, err := sql.Open("sqlite", path)
	assert.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE log (id INTEGER PRIMARY KEY, text TEXT)`)
	assert.NoError(t, err)
	_, err = db.Exec(`INSERT INTO log (text) VALUES ('SELECT * FROM users'), (NULL), ('SELECT a FROM')`)
	assert.NoError(t, err)
	assert.NoError(t, db.Close())

	cfg, err := ParseURI("sqlite://" + path + "?table=log&column=text")
	assert.NoError(t, err)
	src, err := NewSource(cfg, nil)
	assert.NoError(t, err)

	stmts := collect(t, src)
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "SELECT * FROM users", stmts[0].SQL)
	assert.Equal(t, "SELECT a FROM", stmts[1].SQL)
	assert.True(t, strings.HasSuffix(stmts[1].Name, "log.text#3"), stmts[1].Name)

	t.Run("missing table", func(t *testing.T) {
		src, err := NewSQLiteSource(path, "nope", "")
		assert.NoError(t, err)
		ch, err := src.Statements(context.Background())
		assert.NoError(t, err)
		for range ch {
		}
		assert.Error(t, src.Err())
		assert.NoError(t, src.Close())
	})

	t.Run("missing database", func(t *testing.T) {
		_, err := NewSQLiteSource(filepath.Join(t.TempDir(), "nope.db"), "", "")
		assert.Error(t, err)
	})
}

func TestSourceCancel(t *testing.T) {
	queries := make([]string, 1000)
	for i := range queries {
		queries[i] = "SELECT a FROM t"
	}
	src := NewQuerySource(queries...)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Statements(ctx)
	assert.NoError(t, err)
	<-ch
	cancel()
	for range ch {
	}
	assert.IsError(t, src.Err(), context.Canceled)
}
