package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/kevin-cantwell/sqlcheck/internal/logging"
)

// FileSource reads statements from a file, or from every regular file of a
// directory in name order. Each file holds exactly one statement.
type FileSource struct {
	stream
	path string
	dir  bool
}

func NewFileSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file source")
	}
	return &FileSource{path: path, dir: info.IsDir()}, nil
}

func (s *FileSource) Name() string { return s.path }

func (s *FileSource) Statements(ctx context.Context) (<-chan Statement, error) {
	return s.start(ctx, s.read)
}

func (s *FileSource) Close() error { return nil }

func (s *FileSource) read(ctx context.Context, emit func(Statement) bool) error {
	log := logging.WithInput("source", s.path)

	paths := []string{s.path}
	if s.dir {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			return errors.Wrapf(err, "listing %s", s.path)
		}
		// ReadDir returns entries sorted by name
		paths = paths[:0]
		for _, e := range entries {
			if !e.Type().IsRegular() {
				log.Debug("skipping non-regular entry", "name", e.Name())
				continue
			}
			paths = append(paths, filepath.Join(s.path, e.Name()))
		}
		log.Debug("listed directory", "files", len(paths))
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening %s", path)
		}
		sql, err := readAll(f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if !emit(Statement{Name: path, SQL: sql}) {
			return nil
		}
	}
	return nil
}
