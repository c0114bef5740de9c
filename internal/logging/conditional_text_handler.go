package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/isseis/elfdeps/internal/terminal"
)

var (
	ErrConditionalTextHandlerCapabilitiesRequired = errors.New("ConditionalTextHandler: Capabilities is required")
	ErrConditionalTextHandlerWriterRequired       = errors.New("ConditionalTextHandler: Writer is required")
)

// ConditionalTextHandler is a slog.TextHandler that stays silent while the session is
// interactive, so that pipes and CI logs get key=value lines and terminals do not.
type ConditionalTextHandler struct {
	capabilities terminal.Capabilities
	textHandler  slog.Handler
}

// ConditionalTextHandlerOptions configures a ConditionalTextHandler.
type ConditionalTextHandlerOptions struct {
	Capabilities       terminal.Capabilities
	TextHandlerOptions *slog.HandlerOptions
	Writer             io.Writer
}

// NewConditionalTextHandler validates opts and builds the handler.
func NewConditionalTextHandler(opts ConditionalTextHandlerOptions) (*ConditionalTextHandler, error) {
	if opts.Capabilities == nil {
		return nil, ErrConditionalTextHandlerCapabilitiesRequired
	}
	if opts.Writer == nil {
		return nil, ErrConditionalTextHandlerWriterRequired
	}
	return &ConditionalTextHandler{
		capabilities: opts.Capabilities,
		textHandler:  slog.NewTextHandler(opts.Writer, opts.TextHandlerOptions),
	}, nil
}

func (h *ConditionalTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.capabilities.IsInteractive() {
		return false
	}
	return h.textHandler.Enabled(ctx, level)
}

func (h *ConditionalTextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.capabilities.IsInteractive() {
		return nil
	}
	return h.textHandler.Handle(ctx, r)
}

func (h *ConditionalTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConditionalTextHandler{capabilities: h.capabilities, textHandler: h.textHandler.WithAttrs(attrs)}
}

func (h *ConditionalTextHandler) WithGroup(name string) slog.Handler {
	return &ConditionalTextHandler{capabilities: h.capabilities, textHandler: h.textHandler.WithGroup(name)}
}
