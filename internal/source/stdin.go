package source

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/kevin-cantwell/sqlcheck/internal/logging"
)

// maxStatementSize bounds how much of a single input is read into memory.
const maxStatementSize = 16 << 20

// StdinSource reads the whole of stdin as one statement.
type StdinSource struct {
	stream
	r io.Reader
}

func NewStdinSource(r io.Reader) *StdinSource {
	return &StdinSource{r: r}
}

func (s *StdinSource) Name() string { return "stdin" }

func (s *StdinSource) Statements(ctx context.Context) (<-chan Statement, error) {
	return s.start(ctx, func(ctx context.Context, emit func(Statement) bool) error {
		sql, err := readAll(s.r)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
		logging.WithComponent("source").Debug("read stdin", "bytes", len(sql))
		emit(Statement{Name: "stdin", SQL: sql})
		return nil
	})
}

func (s *StdinSource) Close() error { return nil }

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStatementSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxStatementSize {
		return "", errors.Errorf("statement larger than %d bytes", maxStatementSize)
	}
	return string(data), nil
}
