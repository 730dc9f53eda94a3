package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/kevin-cantwell/sqlcheck/internal/ast"
	"github.com/kevin-cantwell/sqlcheck/internal/engine"
	"github.com/kevin-cantwell/sqlcheck/internal/output"
	"github.com/kevin-cantwell/sqlcheck/internal/source"
)

const (
	prompt         = "sqlcheck> "
	continuePrompt = "     ...> "
)

// lineReader is the part of *readline.Instance the REPL needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(string)
	Close() error
}

func runREPL(ctx context.Context, cfg *config, eng *engine.Engine, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
	})
	if err != nil {
		return errors.Wrap(err, "starting repl")
	}
	defer rl.Close()

	fmt.Fprintln(stdout, `Welcome to sqlcheck. End statements with ";". \q quits.`)
	return repl(ctx, rl, cfg, eng, stdout)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sqlcheck.history")
	}
	return filepath.Join(dir, "sqlcheck.history")
}

// repl reads statements until one is terminated, then checks it. Lines
// starting with \t or \p show tokens or the tree of the rest of the line.
func repl(ctx context.Context, rl lineReader, cfg *config, eng *engine.Engine, stdout io.Writer) error {
	text := output.NewTextWriter(stdout, cfg.noColor)
	text.ShowSQL = cfg.showSQL
	text.ShowAST = cfg.showAST

	var buf strings.Builder
	n := 0
	for ctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 && buf.Len() == 0 {
				return nil
			}
			buf.Reset()
			rl.SetPrompt(prompt)
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading line")
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			switch {
			case trimmed == "":
				continue
			case trimmed == "quit" || trimmed == "exit" || trimmed == `\q`:
				return nil
			case strings.HasPrefix(trimmed, `\t`):
				n++
				r := eng.Check(ctx, replStatement(n, trimmed[len(`\t`):]))
				if err := output.NewTokenTable(stdout).WriteResult(r); err != nil {
					return err
				}
				continue
			case strings.HasPrefix(trimmed, `\p`):
				n++
				tw := output.NewTextWriter(stdout, cfg.noColor)
				tw.ShowAST = true
				if err := tw.WriteResult(eng.Check(ctx, replStatement(n, trimmed[len(`\p`):]))); err != nil {
					return err
				}
				continue
			}
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		if !terminated(buf.String()) {
			rl.SetPrompt(continuePrompt)
			continue
		}

		n++
		if err := text.WriteResult(eng.Check(ctx, replStatement(n, buf.String()))); err != nil {
			return err
		}
		buf.Reset()
		rl.SetPrompt(prompt)
	}
	return nil
}

func replStatement(n int, sql string) source.Statement {
	return source.Statement{Name: fmt.Sprintf("repl#%d", n), SQL: strings.TrimSpace(sql)}
}

// terminated reports whether sql ends with a semicolon outside any quote or
// comment. Input with an unclosed quote keeps reading; other lexer errors
// are left for the parser to report.
func terminated(sql string) bool {
	last := ast.ILLEGAL
	for tok, err := range ast.Tokenize(sql).All() {
		if err != nil {
			if ast.KindOf(err) == ast.UnterminatedLiteral {
				return false
			}
			return strings.HasSuffix(strings.TrimSpace(sql), ";")
		}
		if tok.Type != ast.EOF {
			last = tok.Type
		}
	}
	return last == ast.SEMICOLON
}
