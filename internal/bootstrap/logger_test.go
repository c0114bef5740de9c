package bootstrap

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapabilities struct {
	interactive bool
	color       bool
}

func (c fakeCapabilities) IsInteractive() bool { return c.interactive }
func (c fakeCapabilities) SupportsColor() bool { return c.color }

var fixedNow = func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

func TestSetupLogger_NonInteractiveWritesText(t *testing.T) {
	var console, interactive bytes.Buffer
	l, err := SetupLogger(LoggerConfig{
		Level:             slog.LevelInfo,
		ConsoleWriter:     &console,
		InteractiveWriter: &interactive,
		Capabilities:      fakeCapabilities{},
	})
	require.NoError(t, err)
	defer l.Close()

	l.Logger.Warn("file skipped", "file", "/bin/x")
	assert.Contains(t, console.String(), `level=WARN msg="file skipped" file=/bin/x`)
	assert.Empty(t, interactive.String())
	assert.Empty(t, l.LogPath)
}

func TestSetupLogger_InteractiveWritesShortLines(t *testing.T) {
	var console, interactive bytes.Buffer
	l, err := SetupLogger(LoggerConfig{
		Level:             slog.LevelInfo,
		ConsoleWriter:     &console,
		InteractiveWriter: &interactive,
		Capabilities:      fakeCapabilities{interactive: true},
	})
	require.NoError(t, err)
	defer l.Close()

	l.Logger.Warn("file skipped", "file", "/bin/x")
	l.Logger.Debug("hidden")
	assert.Equal(t, "[WARN ] file skipped file=/bin/x\n", interactive.String())
	assert.Empty(t, console.String())
}

func TestSetupLogger_LogFile(t *testing.T) {
	orig := osHostname
	osHostname = func() (string, error) { return "build01", nil }
	t.Cleanup(func() { osHostname = orig })

	dir := t.TempDir()
	var console bytes.Buffer
	l, err := SetupLogger(LoggerConfig{
		Level:         slog.LevelDebug,
		LogDir:        dir,
		RunID:         "01HZX",
		ConsoleWriter: &console,
		Capabilities:  fakeCapabilities{},
		Now:           fixedNow,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "build01_20240304T050607Z_01HZX.json"), l.LogPath)
	l.Logger.Info("scan finished", "parsed", 3)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.LogPath)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2, "initialization line and scan line")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &rec))
	assert.Equal(t, "scan finished", rec["msg"])
	assert.Equal(t, "build01", rec["hostname"])
	assert.Equal(t, "01HZX", rec["run_id"])
	assert.EqualValues(t, 1, rec["schema_version"])
	assert.EqualValues(t, 3, rec["parsed"])

	info, err := os.Stat(l.LogPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(logFilePerm), info.Mode().Perm())
}

func TestSetupLogger_InvalidLogDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	for _, dir := range []string{file, filepath.Join(t.TempDir(), "missing")} {
		_, err := SetupLogger(LoggerConfig{LogDir: dir, RunID: "x", Capabilities: fakeCapabilities{}, ConsoleWriter: &bytes.Buffer{}})
		assert.ErrorIs(t, err, ErrInvalidLogDir, dir)
	}
}

func TestHostnameFallback(t *testing.T) {
	orig := osHostname
	osHostname = func() (string, error) { return "", errors.New("no uts") }
	t.Cleanup(func() { osHostname = orig })

	assert.Equal(t, UnknownHostFallback, hostname())
}
