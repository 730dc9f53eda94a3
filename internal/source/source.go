package source

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Statement is one SQL text to check, labelled with where it came from.
type Statement struct {
	Name string
	SQL  string
}

// Source yields SQL statements.
type Source interface {
	// Name describes the source in logs and reports.
	Name() string
	// Statements starts reading and returns a channel that is closed once the
	// source is exhausted, fails, or ctx is done. It may only be called once.
	Statements(ctx context.Context) (<-chan Statement, error)
	// Err reports why reading stopped early. Only meaningful after the
	// channel has been closed.
	Err() error
	// Close releases resources held by the source.
	Close() error
}

// Config describes a source from a positional CLI argument.
type Config struct {
	URI    string
	Scheme string
	Path   string
	// Table and Column select the statements of a sqlite:// source.
	Table  string
	Column string
}

const (
	DefaultTable  = "queries"
	DefaultColumn = "sql"
)

// ParseURI parses a source URI like "-", "stdin", "file://dir",
// "sqlite://corpus.db?table=t&column=c" or a bare path.
func ParseURI(uri string) (*Config, error) {
	switch {
	case uri == "" || uri == "-" || uri == "stdin":
		return &Config{URI: uri, Scheme: "stdin"}, nil

	case strings.HasPrefix(uri, "file://"):
		path := strings.TrimPrefix(uri, "file://")
		if path == "" {
			return nil, errors.Errorf("missing path in %q", uri)
		}
		return &Config{URI: uri, Scheme: "file", Path: path}, nil

	case strings.HasPrefix(uri, "sqlite://"):
		rest := strings.TrimPrefix(uri, "sqlite://")
		path, query, _ := strings.Cut(rest, "?")
		if path == "" {
			return nil, errors.Errorf("missing database path in %q", uri)
		}
		params, err := url.ParseQuery(query)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q", uri)
		}
		cfg := &Config{
			URI:    uri,
			Scheme: "sqlite",
			Path:   path,
			Table:  params.Get("table"),
			Column: params.Get("column"),
		}
		if cfg.Table == "" {
			cfg.Table = DefaultTable
		}
		if cfg.Column == "" {
			cfg.Column = DefaultColumn
		}
		return cfg, nil

	case strings.Contains(uri, "://"):
		scheme, _, _ := strings.Cut(uri, "://")
		return nil, errors.Errorf("unsupported source scheme: %s", scheme)
	}

	// Default: treat as file path
	return &Config{URI: uri, Scheme: "file", Path: uri}, nil
}

// NewSource creates a source from a config. stdin is read by "stdin" sources.
func NewSource(cfg *Config, stdin io.Reader) (Source, error) {
	switch cfg.Scheme {
	case "stdin":
		return NewStdinSource(stdin), nil
	case "file":
		return NewFileSource(cfg.Path)
	case "sqlite":
		return NewSQLiteSource(cfg.Path, cfg.Table, cfg.Column)
	default:
		return nil, errors.Errorf("unsupported source scheme: %s", cfg.Scheme)
	}
}

// stream runs a producer once on its own goroutine and records its error.
type stream struct {
	once sync.Once
	ch   chan Statement

	mu  sync.Mutex
	err error
}

// start launches produce on first call; later calls fail.
func (s *stream) start(ctx context.Context, produce func(ctx context.Context, emit func(Statement) bool) error) (<-chan Statement, error) {
	started := false
	s.once.Do(func() {
		started = true
		s.ch = make(chan Statement, 64)
		go func() {
			defer close(s.ch)
			emit := func(stmt Statement) bool {
				select {
				case s.ch <- stmt:
					return true
				case <-ctx.Done():
					return false
				}
			}
			err := produce(ctx, emit)
			if err == nil {
				err = ctx.Err()
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}()
	})
	if !started {
		return nil, errors.New("statements already read")
	}
	return s.ch, nil
}

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// QuerySource yields literal statements, such as the -q flag.
type QuerySource struct {
	stream
	queries []string
}

func NewQuerySource(queries ...string) *QuerySource {
	return &QuerySource{queries: queries}
}

func (s *QuerySource) Name() string { return "query" }

func (s *QuerySource) Statements(ctx context.Context) (<-chan Statement, error) {
	return s.start(ctx, func(ctx context.Context, emit func(Statement) bool) error {
		for i, q := range s.queries {
			name := "query"
			if len(s.queries) > 1 {
				name = "query#" + strconv.Itoa(i+1)
			}
			if !emit(Statement{Name: name, SQL: q}) {
				return nil
			}
		}
		return nil
	})
}

func (s *QuerySource) Close() error { return nil }
