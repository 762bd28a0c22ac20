package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/aegis-nse/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewSetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := NewWithWriter(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"}, &bytes.Buffer{})
			require.NotNil(t, l)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), tt.input)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "production", LogLevel: "debug", LogFormat: "json"}, &buf)

	l.WithFields(map[string]interface{}{"horizon": "daily", "rows": 12}).Info("trained")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "trained", entry["message"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "daily", entry["horizon"])
	assert.Equal(t, float64(12), entry["rows"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}, &buf)

	l.WithError(errors.New("boom")).WithField("fold", 3).Warn("fold skipped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "fold skipped", entry["message"])
	assert.Equal(t, float64(3), entry["fold"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}, &buf)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.NotZero(t, buf.Len())
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Info("nothing") })
}

func TestMultiWriterFile(t *testing.T) {
	var console, file bytes.Buffer
	l := newMulti(&config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}, &console, &file)

	l.WithField("horizon", "weekly").Info("predicted")

	assert.Contains(t, console.String(), "predicted")
	entry := decodeLine(t, &file)
	assert.Equal(t, "weekly", entry["horizon"])
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	f, err := openLogFile(dir, day)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, filepath.Join(dir, "aegis-nse_20240301.log"), f.Name())
}
