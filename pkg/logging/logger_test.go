package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel checks the accepted spellings and the unknown-string
// error.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown log level")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestLevel_String checks the canonical names.
func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

// TestNew_ZeroConfigLevelIsInfo checks the zero-value Config logs Info
// and above but not Debug.
func TestNew_ZeroConfigLevelIsInfo(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Close())

	lines := logLines(t, dir)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

// logLines reads the single log file under dir and decodes each line.
func logLines(t *testing.T, dir string) []map[string]interface{} {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line %q", line)
		lines = append(lines, rec)
	}
	return lines
}

// TestNew_FileLogging checks the file stream: JSON records, the service
// attribute, key-value args and the service-dated file name.
func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir, Service: "solve"})
	require.NoError(t, err)

	logger.Info("search started", "driver", "bfws", "expanded", 10)
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "solve_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	lines := logLines(t, dir)
	require.Len(t, lines, 1)
	assert.Equal(t, "search started", lines[0]["msg"])
	assert.Equal(t, "solve", lines[0]["service"])
	assert.Equal(t, "bfws", lines[0]["driver"])
	assert.Equal(t, float64(10), lines[0]["expanded"])
}

// TestNew_LevelFiltersRecords checks entries below the configured level
// never reach the file.
func TestNew_LevelFiltersRecords(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir, Level: LevelWarn})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("memory climbing")
	logger.Error("breach")
	require.NoError(t, logger.Close())

	lines := logLines(t, dir)
	require.Len(t, lines, 2)
	assert.Equal(t, "memory climbing", lines[0]["msg"])
	assert.Equal(t, "breach", lines[1]["msg"])
}

// TestLogger_WithAddsAttrs checks a child logger carries its attributes
// on every record.
func TestLogger_WithAddsAttrs(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir})
	require.NoError(t, err)

	child := logger.With("run_id", "r-42")
	child.Info("problem loaded")
	require.NoError(t, logger.Close())

	lines := logLines(t, dir)
	require.Len(t, lines, 1)
	assert.Equal(t, "r-42", lines[0]["run_id"])
}

// TestNew_DefaultFileName checks the service name defaults when unset.
func TestNew_DefaultFileName(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir})
	require.NoError(t, err)
	logger.Info("x")
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "gostrips_*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// TestNew_BadLogDir checks an unusable directory fails construction.
func TestNew_BadLogDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := New(Config{Quiet: true, LogDir: filepath.Join(blocker, "logs")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create log directory")
}

// TestDiscard_DropsEverything checks the discard logger is safe to use
// and to close.
func TestDiscard_DropsEverything(t *testing.T) {
	l := Discard()
	l.Debug("a")
	l.Info("b", "k", "v")
	l.Warn("c")
	l.Error("d")
	assert.NoError(t, l.Close())
	assert.NotNil(t, l.Slog())
}

// TestLogger_CloseIdempotent checks a second Close is a no-op.
func TestLogger_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Quiet: true, LogDir: dir})
	require.NoError(t, err)
	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

// TestMultiHandler_FanOut checks one record reaches every enabled
// handler and only those.
func TestMultiHandler_FanOut(t *testing.T) {
	var all, errsOnly bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	log := slog.New(h)

	log.Info("routine")
	log.Error("broken")

	assert.Contains(t, all.String(), "routine")
	assert.Contains(t, all.String(), "broken")
	assert.NotContains(t, errsOnly.String(), "routine")
	assert.Contains(t, errsOnly.String(), "broken")
}

// TestMultiHandler_WithAttrs checks attributes propagate to every
// wrapped handler.
func TestMultiHandler_WithAttrs(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}
	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "bench")}))

	log.Info("sweep done")

	assert.Contains(t, a.String(), `"service":"bench"`)
	assert.Contains(t, b.String(), `"service":"bench"`)
}

// TestExpandPath checks tilde expansion leaves absolute paths alone.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".gostrips/logs"), expandPath("~/.gostrips/logs"))
	assert.Equal(t, "/var/log/gostrips", expandPath("/var/log/gostrips"))
	assert.Equal(t, "relative/logs", expandPath("relative/logs"))
}
