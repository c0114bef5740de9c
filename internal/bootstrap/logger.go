// Package bootstrap assembles the process-wide logger from the terminal, logging
// and safefileio packages.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/isseis/elfdeps/internal/logging"
	"github.com/isseis/elfdeps/internal/safefileio"
	"github.com/isseis/elfdeps/internal/terminal"
)

const (
	logFilePerm   = 0o600
	schemaVersion = 1

	// UnknownHostFallback is used in log file names when the hostname cannot be read.
	UnknownHostFallback = "unknown-host"
)

// ErrInvalidLogDir is returned when LogDir does not name an existing directory.
var ErrInvalidLogDir = errors.New("invalid log directory")

// osHostname is replaced in tests.
var osHostname = os.Hostname

// LoggerConfig holds everything SetupLogger needs.
type LoggerConfig struct {
	Level slog.Level
	// LogDir, when set, receives one JSON log file per run.
	LogDir string
	RunID  string

	// ConsoleWriter receives key=value lines when the session is not interactive.
	// Defaults to os.Stderr.
	ConsoleWriter io.Writer
	// InteractiveWriter receives the short colored lines. Defaults to os.Stderr.
	InteractiveWriter io.Writer

	Terminal terminal.Options

	// Capabilities overrides terminal detection; tests use it.
	Capabilities terminal.Capabilities
	// Now defaults to time.Now and names the log file.
	Now func() time.Time
}

// Logging is the result of SetupLogger.
type Logging struct {
	Logger       *slog.Logger
	Capabilities terminal.Capabilities
	// LogPath is empty when no log file was opened.
	LogPath string

	logFile *os.File
}

// Close closes the JSON log file, if any.
func (l *Logging) Close() error {
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// SetupLogger builds the handler chain: an interactive handler for terminals, a text
// handler for everything else, and an optional JSON file handler tagged with run
// metadata. The caller decides whether to install the logger with slog.SetDefault.
func SetupLogger(config LoggerConfig) (*Logging, error) {
	caps := config.Capabilities
	if caps == nil {
		caps = terminal.NewCapabilities(config.Terminal)
	}
	interactiveWriter := config.InteractiveWriter
	if interactiveWriter == nil {
		interactiveWriter = os.Stderr
	}
	consoleWriter := config.ConsoleWriter
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}

	var handlers []slog.Handler

	if caps.IsInteractive() {
		h, err := logging.NewInteractiveHandler(logging.InteractiveHandlerOptions{
			Level:        config.Level,
			Writer:       interactiveWriter,
			Capabilities: caps,
			Formatter:    logging.NewDefaultMessageFormatter(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create interactive handler: %w", err)
		}
		handlers = append(handlers, h)
	}

	text, err := logging.NewConditionalTextHandler(logging.ConditionalTextHandlerOptions{
		Capabilities:       caps,
		Writer:             consoleWriter,
		TextHandlerOptions: &slog.HandlerOptions{Level: config.Level},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conditional text handler: %w", err)
	}
	handlers = append(handlers, text)

	result := &Logging{Capabilities: caps}

	if config.LogDir != "" {
		host := hostname()
		f, path, err := openLogFile(config, host)
		if err != nil {
			return nil, err
		}
		result.logFile, result.LogPath = f, path

		jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: config.Level})
		handlers = append(handlers, jsonHandler.WithAttrs([]slog.Attr{
			slog.String("hostname", host),
			slog.Int("pid", os.Getpid()),
			slog.Int("schema_version", schemaVersion),
			slog.String("run_id", config.RunID),
		}))
	}

	result.Logger = slog.New(logging.NewMultiHandler(handlers...))
	result.Logger.Debug("Logger initialized",
		"log_level", config.Level.String(),
		"log_file", result.LogPath,
		"interactive_mode", caps.IsInteractive(),
		"color_support", caps.SupportsColor(),
	)
	return result, nil
}

func openLogFile(config LoggerConfig, hostname string) (*os.File, string, error) {
	info, err := os.Stat(config.LogDir)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidLogDir, err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s is not a directory", ErrInvalidLogDir, config.LogDir)
	}

	now := time.Now
	if config.Now != nil {
		now = config.Now
	}
	name := fmt.Sprintf("%s_%s_%s.json", hostname, now().UTC().Format("20060102T150405Z"), config.RunID)
	path := filepath.Join(config.LogDir, name)

	f, err := safefileio.SafeCreateFile(path, logFilePerm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	return f, path, nil
}

func hostname() string {
	h, err := osHostname()
	if err != nil || h == "" {
		return UnknownHostFallback
	}
	return h
}
