package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type fakeCapabilities struct {
	interactive bool
	color       bool
}

func (c fakeCapabilities) IsInteractive() bool { return c.interactive }
func (c fakeCapabilities) SupportsColor() bool { return c.color }

// recordingHandler keeps every record it is given.
type recordingHandler struct {
	mu      sync.Mutex
	enabled bool
	err     error
	records []slog.Record
	attrs   []slog.Attr
	groups  []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return h.enabled }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{enabled: h.enabled, err: h.err, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...), groups: h.groups}
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return &recordingHandler{enabled: h.enabled, err: h.err, attrs: h.attrs, groups: append(append([]string(nil), h.groups...), name)}
}

var errWrite = errors.New("write failed")

func newRecord(level slog.Level, msg string, attrs ...slog.Attr) slog.Record {
	r := slog.NewRecord(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), level, msg, 0)
	r.AddAttrs(attrs...)
	return r
}
