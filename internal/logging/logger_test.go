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

func TestHandlerRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	h, err := newHandler(&buf, "json", slog.LevelInfo)
	require.NoError(t, err)

	slog.New(h).Error("step failed", "error", "overflow", "step", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "overflow", line["err"])
	assert.NotContains(t, line, "error")
	assert.EqualValues(t, 7, line["step"])
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	h, err := newHandler(&buf, "text", slog.LevelWarn)
	require.NoError(t, err)

	log := slog.New(h)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestUnknownFormat(t *testing.T) {
	_, err := newHandler(&bytes.Buffer{}, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topple.log")
	log, closer, err := New(Options{Level: "info", Format: "text", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("checkpoint written", "step", 12)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "checkpoint written"))
	assert.Contains(t, string(data), "step=12")
}

func TestNewNop(t *testing.T) {
	assert.NotNil(t, NewNop())
	NewNop().Error("ignored", "error", "x")
}
