package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "api", "info", "json")

	log.Debug("hidden")
	log.Info("sync finished", slog.Int("synced", 4))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "api", rec["service"])
	require.Equal(t, "sync finished", rec["msg"])
	require.EqualValues(t, 4, rec["synced"])
}

func TestBuildText(t *testing.T) {
	var buf bytes.Buffer
	build(&buf, "worker", "", "").Info("started")

	require.Contains(t, buf.String(), "service=worker")
	require.Contains(t, buf.String(), "msg=started")
}
