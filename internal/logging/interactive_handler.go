package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/isseis/elfdeps/internal/terminal"
)

var (
	ErrInteractiveHandlerWriterRequired       = errors.New("InteractiveHandler: Writer is required")
	ErrInteractiveHandlerCapabilitiesRequired = errors.New("InteractiveHandler: Capabilities is required")
	ErrInteractiveHandlerFormatterRequired    = errors.New("InteractiveHandler: Formatter is required")
)

// InteractiveHandler writes one short, optionally colored line per record. It is
// enabled only while the session is interactive.
type InteractiveHandler struct {
	capabilities terminal.Capabilities
	formatter    MessageFormatter
	writer       io.Writer
	mu           *sync.Mutex
	level        slog.Leveler
	attrs        []slog.Attr
	groups       []string
}

// InteractiveHandlerOptions configures an InteractiveHandler.
type InteractiveHandlerOptions struct {
	// Level defaults to slog.LevelInfo.
	Level        slog.Leveler
	Writer       io.Writer
	Capabilities terminal.Capabilities
	Formatter    MessageFormatter
}

// NewInteractiveHandler validates opts and builds the handler.
func NewInteractiveHandler(opts InteractiveHandlerOptions) (*InteractiveHandler, error) {
	if opts.Writer == nil {
		return nil, ErrInteractiveHandlerWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrInteractiveHandlerCapabilitiesRequired
	}
	if opts.Formatter == nil {
		return nil, ErrInteractiveHandlerFormatterRequired
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &InteractiveHandler{
		capabilities: opts.Capabilities,
		formatter:    opts.Formatter,
		writer:       opts.Writer,
		mu:           &sync.Mutex{},
		level:        level,
	}, nil
}

func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.capabilities.IsInteractive() && level >= h.level.Level()
}

func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.capabilities.IsInteractive() {
		return nil
	}

	record := r.Clone()
	record.AddAttrs(h.prefixed()...)
	line := h.formatter.FormatRecordWithColor(record, h.capabilities.SupportsColor())

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line+"\n")
	return err
}

// prefixed returns the accumulated attributes with the group path prepended to each key.
func (h *InteractiveHandler) prefixed() []slog.Attr {
	if len(h.groups) == 0 {
		return h.attrs
	}
	prefix := strings.Join(h.groups, ".") + "."
	out := make([]slog.Attr, len(h.attrs))
	for i, a := range h.attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}
