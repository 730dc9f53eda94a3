// Package logging provides the process-wide structured logger for sqlcheck.
//
// Reports go to stdout; logs go to stderr (or a file), so the two never mix.
// Call Init once at startup. GetLogger falls back to a WARN-level text
// logger on stderr when Init was never called.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	isInited bool
)

// LogLevel represents logging verbosity.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (LogLevel, error) {
	switch lvl := LogLevel(strings.ToUpper(strings.TrimSpace(s))); lvl {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return lvl, nil
	case "WARNING":
		return LevelWarn, nil
	default:
		return "", errors.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel
	// Format is "json" or "text".
	Format string
	// OutputPath is a log file to append to. Empty means Writer, or stderr.
	OutputPath string
	Writer     io.Writer
}

// Init installs the global logger. Calling it again replaces the previous
// logger and closes its log file.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var file *os.File
	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return errors.Wrap(err, "creating log directory")
		}
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "opening log file %s", config.OutputPath)
		}
		file = f
		writer = f
	}

	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "", "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		if file != nil {
			file.Close()
		}
		return errors.Errorf("unknown log format %q", config.Format)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	logger = slog.New(handler)
	isInited = true
	return nil
}

// InitDefault installs a WARN-level text logger on stderr unless a logger
// is already installed.
func InitDefault() {
	installDefault()
}

// installDefault is InitDefault returning the logger it found or installed.
func installDefault() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		isInited = true
	}
	return logger
}

// Close closes any open log file. Init may be called again afterwards.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !isInited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	isInited = false
	return err
}

// GetLogger returns the current logger, installing the default one on first use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if isInited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()
	return installDefault()
}

// WithComponent returns a logger tagged with a subsystem name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithInput returns a logger tagged with the statement or source being checked.
func WithInput(component, input string) *slog.Logger {
	return GetLogger().With("component", component, "input", input)
}

// WithError returns a logger carrying err as a structured field.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
