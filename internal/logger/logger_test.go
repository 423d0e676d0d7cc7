package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "warn"})

	l.Info("hidden")
	l.Warn("shown", "habit_id", "h1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "habit_id=h1")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: "info", Format: "json"})

	l.Info("toggled", "streak", 7)
	assert.Contains(t, buf.String(), `"streak":7`)
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "streak.log")
	require.NoError(t, Init(Config{Level: "info", OutputPath: path}))
	t.Cleanup(func() { Logger = nil })

	Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestHelpers_NilLoggerIsSafe(t *testing.T) {
	Logger = nil
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})
}
