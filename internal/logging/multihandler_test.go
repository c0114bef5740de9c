package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiHandler_Enabled(t *testing.T) {
	off := &recordingHandler{}
	on := &recordingHandler{enabled: true}

	assert.False(t, NewMultiHandler(off).Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, NewMultiHandler(off, on).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_HandleFansOutToEnabledHandlers(t *testing.T) {
	a := &recordingHandler{enabled: true}
	b := &recordingHandler{enabled: true}
	off := &recordingHandler{}

	h := NewMultiHandler(a, nil, off, b)
	require.Len(t, h.Handlers(), 3)

	require.NoError(t, h.Handle(context.Background(), newRecord(slog.LevelInfo, "scan finished")))
	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)
	assert.Empty(t, off.records)
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	errOther := errors.New("other")
	h := NewMultiHandler(
		&recordingHandler{enabled: true, err: errWrite},
		&recordingHandler{enabled: true},
		&recordingHandler{enabled: true, err: errOther},
	)

	err := h.Handle(context.Background(), newRecord(slog.LevelWarn, "skipped"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errWrite)
	assert.ErrorIs(t, err, errOther)
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	inner := &recordingHandler{enabled: true}
	h := NewMultiHandler(inner)

	withAttrs, ok := h.WithAttrs([]slog.Attr{slog.String("run_id", "01J")}).(*MultiHandler)
	require.True(t, ok)
	got := withAttrs.Handlers()[0].(*recordingHandler)
	assert.Equal(t, "run_id", got.attrs[0].Key)
	assert.Empty(t, inner.attrs)

	withGroup, ok := h.WithGroup("scan").(*MultiHandler)
	require.True(t, ok)
	assert.Equal(t, []string{"scan"}, withGroup.Handlers()[0].(*recordingHandler).groups)
}
