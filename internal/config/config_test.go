package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LINESOCK_SOCKET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "", cfg.Socket)
	require.Equal(t, "none", cfg.StripMode)
	require.Equal(t, 0, cfg.MaxLineLength)
	require.Equal(t, 50*time.Millisecond, cfg.PollInterval)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LINESOCK_SOCKET", "/tmp/app.sock")
	t.Setenv("LINESOCK_STRIP_MODE", "csi")
	t.Setenv("LINESOCK_MAX_LINE_LENGTH", "65536")
	t.Setenv("LINESOCK_POLL_INTERVAL", "200ms")
	t.Setenv("LINESOCK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/app.sock", cfg.Socket)
	require.Equal(t, "csi", cfg.StripMode)
	require.Equal(t, 65536, cfg.MaxLineLength)
	require.Equal(t, 200*time.Millisecond, cfg.PollInterval)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LINESOCK_POLL_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("LINESOCK_POLL_INTERVAL", "0s")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("LINESOCK_POLL_INTERVAL", "10ms")
	t.Setenv("LINESOCK_MAX_LINE_LENGTH", "-5")
	_, err = Load()
	require.Error(t, err)
}

func TestSlogLevel_Invalid(t *testing.T) {
	cfg := &Config{LogLevel: "chatty"}
	_, err := cfg.SlogLevel()
	require.Error(t, err)
}
