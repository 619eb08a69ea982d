package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fontindex/pkg/fontindex/logging"
)

// These tests mutate global logging state and must not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, logging.ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	err := logging.Init(logging.Config{Level: "nope", Path: filepath.Join(t.TempDir(), "x.log")})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestLoggerCreatedBeforeInitWritesAfterInit(t *testing.T) {
	early := logging.Get("index")
	early.Info("dropped before init")

	logPath := filepath.Join(t.TempDir(), "fontindex.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: logPath}))
	t.Cleanup(func() { _ = logging.Close() })

	early.Info("rebuild finished", "entries", 3)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "dropped before init")
	assert.Contains(t, content, "rebuild finished")
	assert.Contains(t, content, "entries=3")
	assert.Contains(t, content, "index")
}

func TestComponentLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fontindex.log")
	require.NoError(t, logging.Init(logging.Config{
		Level:      "info",
		Path:       logPath,
		Components: map[string]string{"scanner": "debug", "lock": "error"},
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("scanner").Debug("scanner debug visible")
	logging.Get("lock").Warn("lock warn hidden")
	logging.Get("index").Debug("index debug hidden")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "scanner debug visible")
	assert.NotContains(t, content, "lock warn hidden")
	assert.NotContains(t, content, "index debug hidden")
}

func TestWith(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fontindex.log")
	require.NoError(t, logging.Init(logging.Config{Level: "info", Path: logPath}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("index").With("store", "system").Info("loaded")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "store=system"))
}

func TestRotationBySize(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "rotate.log")

	w, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{MaxSize: 256, MaxBackups: 2})
	require.NoError(t, err)

	for range 40 {
		_, err := w.Write([]byte(strings.Repeat("x", 50) + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var logs int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "rotate") && strings.HasSuffix(e.Name(), ".log") {
			logs++
		}
	}
	assert.GreaterOrEqual(t, logs, 2, "expected rotation to produce backups")
	assert.LessOrEqual(t, logs, 3, "expected MaxBackups to cap rotated files")
}

func TestWriteAfterClose(t *testing.T) {
	w, err := logging.NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), logging.RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
