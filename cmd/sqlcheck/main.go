// Command sqlcheck parses SQLite SELECT statements and reports whether they
// are well formed. It exits 0 when every statement passes, 1 when any fails
// and 2 on usage errors.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/kevin-cantwell/sqlcheck/internal/engine"
	"github.com/kevin-cantwell/sqlcheck/internal/logging"
	"github.com/kevin-cantwell/sqlcheck/internal/output"
	"github.com/kevin-cantwell/sqlcheck/internal/source"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// defaultQuery is checked when there is no input at all.
const defaultQuery = "SELECT * FROM users"

type queryFlags []string

func (q *queryFlags) String() string { return strings.Join(*q, "; ") }

func (q *queryFlags) Set(s string) error {
	*q = append(*q, s)
	return nil
}

type config struct {
	queries   queryFlags
	inputs    []string
	format    string
	tokens    bool
	showAST   bool
	showSQL   bool
	verify    bool
	jobs      int
	maxDepth  int
	quiet     bool
	summary   bool
	noColor   bool
	logLevel  string
	logFormat string
	logFile   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}

	fs := flag.NewFlagSet("sqlcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sqlcheck [flags] [input ...]\n\n")
		fmt.Fprintf(fs.Output(), "Inputs are '-' or 'stdin', a file or directory path (optionally file://),\n")
		fmt.Fprintf(fs.Output(), "or sqlite://db?table=T&column=C. With no input, a terminal starts a REPL.\n\n")
		fs.PrintDefaults()
	}

	fs.Var(&cfg.queries, "q", "SQL statement to check (repeatable).")
	fs.StringVar(&cfg.format, "format", "text", "Report format: text or json.")
	fs.BoolVar(&cfg.tokens, "tokens", false, "Print the token stream of each statement.")
	fs.BoolVar(&cfg.showAST, "ast", false, "Print the parsed tree of each statement.")
	fs.BoolVar(&cfg.showSQL, "sql", false, "Print the canonical form of each statement.")
	fs.BoolVar(&cfg.verify, "verify", false, "Cross-check parsed statements against SQLite.")
	fs.IntVar(&cfg.jobs, "j", 0, "Statements checked in parallel (default GOMAXPROCS).")
	fs.IntVar(&cfg.maxDepth, "max-depth", 0, "Expression nesting limit (default 200).")
	fs.BoolVar(&cfg.quiet, "quiet", false, "Print nothing; report through the exit code only.")
	fs.BoolVar(&cfg.summary, "summary", false, "Print a summary table after the reports.")
	fs.BoolVar(&cfg.noColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn or error (env SQLCHECK_LOG_LEVEL).")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "Log format: text or json.")
	fs.StringVar(&cfg.logFile, "log-file", "", "Append logs to this file instead of stderr.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.inputs = fs.Args()

	switch cfg.format {
	case "text", "json":
	default:
		return nil, errors.Errorf("unknown format %q", cfg.format)
	}
	if cfg.jobs < 0 {
		return nil, errors.Errorf("-j must not be negative")
	}
	if cfg.logLevel == "" {
		cfg.logLevel = os.Getenv("SQLCHECK_LOG_LEVEL")
	}
	if cfg.logLevel == "" {
		cfg.logLevel = string(logging.LevelWarn)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "sqlcheck:", err)
		return exitUsage
	}

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, "sqlcheck:", err)
		return exitUsage
	}
	if err := logging.Init(logging.Config{
		Level:      level,
		Format:     cfg.logFormat,
		OutputPath: cfg.logFile,
		Writer:     stderr,
	}); err != nil {
		fmt.Fprintln(stderr, "sqlcheck:", err)
		return exitUsage
	}
	defer logging.Close()
	log := logging.WithComponent("cli")

	if cfg.noColor {
		color.NoColor = true
	}

	opts := []engine.Option{
		engine.WithConcurrency(cfg.jobs),
		engine.WithMaxDepth(cfg.maxDepth),
	}
	if cfg.verify {
		opts = append(opts, engine.WithVerifier(engine.NewVerifier()))
	}
	eng := engine.New(opts...)

	if len(cfg.queries) == 0 && len(cfg.inputs) == 0 && isTerminal(stdin) {
		log.Debug("starting repl")
		if err := runREPL(ctx, cfg, eng, stdout); err != nil {
			printError(stderr, level, err)
			return exitFail
		}
		return exitOK
	}

	sources, err := openSources(cfg, stdin)
	if err != nil {
		printError(stderr, level, err)
		return exitUsage
	}

	out := newWriter(cfg, stdout)
	var total output.Summary
	failed := false
	for _, src := range sources {
		summary, err := eng.Run(ctx, src, out)
		src.Close()
		total.Total += summary.Total
		total.OK += summary.OK
		total.SyntaxErrors += summary.SyntaxErrors
		total.DialectErrors += summary.DialectErrors
		total.Elapsed += summary.Elapsed
		if err != nil {
			logging.WithError(err).Debug("run failed", "source", src.Name())
			printError(stderr, level, err)
			failed = true
			break
		}
	}

	if cfg.summary && !cfg.quiet {
		output.WriteSummary(stdout, total)
	}
	log.Info("done", "statements", total.Total, "failed", total.Failed())

	if failed || total.Failed() > 0 {
		return exitFail
	}
	return exitOK
}

// openSources builds the sources named on the command line. With none, stdin
// is read, and an empty stdin checks defaultQuery.
func openSources(cfg *config, stdin io.Reader) ([]source.Source, error) {
	var sources []source.Source
	if len(cfg.queries) > 0 {
		sources = append(sources, source.NewQuerySource(cfg.queries...))
	}
	for _, uri := range cfg.inputs {
		sc, err := source.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		src, err := source.NewSource(sc, stdin)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) > 0 {
		return sources, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.Wrap(err, "reading stdin")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []source.Source{source.NewQuerySource(defaultQuery)}, nil
	}
	return []source.Source{source.NewStdinSource(bytes.NewReader(data))}, nil
}

func newWriter(cfg *config, stdout io.Writer) output.Writer {
	switch {
	case cfg.quiet:
		return output.Discard
	case cfg.tokens:
		return output.NewTokenTable(stdout)
	case cfg.format == "json":
		return output.NewJSONWriter(stdout)
	}
	tw := output.NewTextWriter(stdout, cfg.noColor)
	tw.ShowAST = cfg.showAST
	tw.ShowSQL = cfg.showSQL
	return tw
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printError(w io.Writer, level logging.LogLevel, err error) {
	errorColor := color.New(color.FgRed, color.Bold)
	if level == logging.LevelDebug {
		errorColor.Fprintf(w, "Error: %+v\n", err)
		return
	}
	errorColor.Fprintf(w, "Error: %v\n", err)
}
