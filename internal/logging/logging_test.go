package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(""))
	assert.Equal(t, slog.LevelWarn, ParseLevel("verbose"))
}

func TestInit_JSONFromEnv(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("HEXWARD_JSON_LOG", "true")
	t.Setenv("HEXWARD_LOG_LEVEL", "info")

	var buf bytes.Buffer
	log := Init(Options{Writer: &buf})
	log.Info("hello", "k", 1)
	log.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "hexward", rec["service"])
}

func TestInit_EnvOverridesOptions(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("HEXWARD_JSON_LOG", "0")
	t.Setenv("HEXWARD_LOG_LEVEL", "error")

	var buf bytes.Buffer
	log := Init(Options{JSON: true, Level: "debug", Writer: &buf})
	log.Warn("dropped")
	assert.Empty(t, buf.String())
	log.Error("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}
