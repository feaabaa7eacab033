package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		require.Equal(t, want, ParseLevel(raw), raw)
	}
}

func TestNewWithWriterTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "api", "info", false)
	log.Debug("hidden")
	log.Info("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "visible")
	require.Contains(t, out, "service=api")
}

func TestDebugFlagForcesDebugLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	var buf bytes.Buffer
	NewWithWriter(&buf, "", "error", true).Debug("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestDebugEnvIsIgnored(t *testing.T) {
	t.Setenv("DEBUG", "true")
	var buf bytes.Buffer
	NewWithWriter(&buf, "", "info", false).Debug("hidden")
	require.Empty(t, buf.String())
}
