// Package main provides the elfdeps command. It scans one directory for ELF objects
// and prints, for every shared library they declare, the files that need it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/xyproto/env/v2"

	"github.com/isseis/elfdeps/internal/bootstrap"
	"github.com/isseis/elfdeps/internal/logging"
	"github.com/isseis/elfdeps/internal/report"
	"github.com/isseis/elfdeps/internal/safefileio"
	"github.com/isseis/elfdeps/internal/scanner"
	"github.com/isseis/elfdeps/internal/terminal"
)

const defaultDir = "/"

var (
	errTooManyArgs         = errors.New("at most one directory may be given")
	errInvalidJobs         = errors.New("-jobs must be at least 1")
	errInvalidMaxSize      = errors.New("-max-size must be positive")
	errConflictingTerminal = errors.New("-interactive and -quiet are mutually exclusive")
	errConflictingColor    = errors.New("-color and -no-color are mutually exclusive")
)

type config struct {
	dir      string
	format   report.Format
	jobs     int
	dedupe   bool
	noFollow bool
	maxSize  int64
	logLevel slog.Level
	logDir   string
	terminal terminal.Options
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	runID := logging.GenerateRunID()
	logs, err := bootstrap.SetupLogger(bootstrap.LoggerConfig{
		Level:             cfg.logLevel,
		LogDir:            cfg.logDir,
		RunID:             runID,
		ConsoleWriter:     stderr,
		InteractiveWriter: stderr,
		Terminal:          cfg.terminal,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: failed to set up logging: %v\n", err)
		return 1
	}
	defer func() {
		if err := logs.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()
	logger := logs.Logger
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := safefileio.NewReader(safefileio.ReadOptions{MaxSize: cfg.maxSize, NoFollow: cfg.noFollow})
	logger.Debug("Scanning directory",
		"directory", cfg.dir,
		"jobs", cfg.jobs,
		"dedupe", cfg.dedupe,
		"no_follow", cfg.noFollow,
		"max_size", reader.MaxSize(),
	)
	s := scanner.New(scanner.Options{
		Jobs:   cfg.jobs,
		Dedupe: cfg.dedupe,
		Reader: reader,
		RunID:  runID,
	})
	res, err := s.Scan(ctx, cfg.dir)
	if err != nil {
		logger.Error("Scan failed", "directory", cfg.dir, "error", err)
		return 1
	}

	logDiagnostics(logger, res.Diagnostics)

	opts := report.Options{Color: cfg.format == report.FormatText && logs.Capabilities.SupportsColor()}
	if err := report.Write(stdout, cfg.format, res, opts); err != nil {
		logger.Error("Failed to write report", "format", string(cfg.format), "error", err)
		return 1
	}

	logger.Info("Scan finished",
		"directory", res.Directory,
		"libraries", len(res.Report.Entries),
		"candidates", res.Stats.Candidates,
		"parsed", res.Stats.Parsed,
		"skipped", res.Stats.Skipped,
		"entry_failures", res.Stats.EntryFailures,
		"dedupe_hits", res.Stats.DedupeHits,
	)
	return 0
}

// logDiagnostics reports per-file findings. Non-ELF files and static binaries are
// expected in most directories and only show up at debug level.
func logDiagnostics(logger *slog.Logger, diags []scanner.Diagnostic) {
	for _, d := range diags {
		level := slog.LevelWarn
		msg := "File skipped"
		switch d.Kind {
		case scanner.KindNotObjectFormat:
			level = slog.LevelDebug
		case scanner.KindStatic:
			level, msg = slog.LevelDebug, "Statically linked"
		case scanner.KindEntryFailure:
			msg = "Unresolved dynamic entry"
		}
		logger.Log(context.Background(), level, msg,
			slog.String("file", d.File),
			slog.String("kind", d.Kind.String()),
			slog.Any("error", d.Err),
		)
	}
}

func parseArgs(args []string, stderr io.Writer) (*config, *flag.FlagSet, error) {
	options := struct {
		dir         string
		format      string
		jobs        int
		dedupe      bool
		noFollow    bool
		maxSize     int64
		logLevel    string
		logDir      string
		interactive bool
		quiet       bool
		color       bool
		noColor     bool
	}{}

	formats := make([]string, len(report.Formats))
	for i, f := range report.Formats {
		formats[i] = string(f)
	}

	fs := flag.NewFlagSet("elfdeps", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&options.dir, "dir", "", "Directory to scan (overrides the positional argument and ELFDEPS_DIR)")
	fs.StringVar(&options.format, "format", env.Str("ELFDEPS_FORMAT", string(report.FormatText)), "Report format: "+strings.Join(formats, ", "))
	fs.IntVar(&options.jobs, "jobs", env.Int("ELFDEPS_JOBS", 1), "Number of files parsed concurrently")
	fs.BoolVar(&options.dedupe, "dedupe", false, "Parse byte-identical files only once")
	fs.BoolVar(&options.noFollow, "no-follow", false, "Skip files reached through a symbolic link")
	fs.Int64Var(&options.maxSize, "max-size", safefileio.DefaultMaxFileSize, "Largest file to read, in bytes")
	fs.StringVar(&options.logLevel, "log-level", env.Str("ELFDEPS_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	fs.StringVar(&options.logDir, "log-dir", env.Str("ELFDEPS_LOG_DIR"), "Directory for a per-run JSON log file")
	fs.BoolVar(&options.interactive, "interactive", false, "Force interactive log output")
	fs.BoolVar(&options.quiet, "quiet", false, "Force plain, non-interactive log output")
	fs.BoolVar(&options.color, "color", false, "Force colored output")
	fs.BoolVar(&options.noColor, "no-color", false, "Disable colored output")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	if fs.NArg() > 1 {
		return nil, fs, fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(fs.Args(), " "))
	}
	dir := options.dir
	if dir == "" && fs.NArg() == 1 {
		dir = fs.Arg(0)
	}
	if dir == "" {
		dir = env.Str("ELFDEPS_DIR", defaultDir)
	}

	format, err := report.ParseFormat(options.format)
	if err != nil {
		return nil, fs, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(options.logLevel)); err != nil {
		return nil, fs, fmt.Errorf("invalid -log-level: %w", err)
	}

	switch {
	case options.jobs < 1:
		return nil, fs, errInvalidJobs
	case options.maxSize <= 0:
		return nil, fs, errInvalidMaxSize
	case options.interactive && options.quiet:
		return nil, fs, errConflictingTerminal
	case options.color && options.noColor:
		return nil, fs, errConflictingColor
	}

	return &config{
		dir:      dir,
		format:   format,
		jobs:     options.jobs,
		dedupe:   options.dedupe,
		noFollow: options.noFollow,
		maxSize:  options.maxSize,
		logLevel: level,
		logDir:   options.logDir,
		terminal: terminal.Options{
			ForceInteractive:    options.interactive,
			ForceNonInteractive: options.quiet,
			ForceColor:          options.color,
			DisableColor:        options.noColor,
		},
	}, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] [dir]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
