package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
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

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	Component(logger, "server").Info("dropped")
	Component(logger, "server").Warn("kept", "path", "a/b")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "server", record["component"])
	assert.Equal(t, "a/b", record["path"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "text", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "n=1")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestSanitizeForLog(t *testing.T) {
	assert.Equal(t, "a/bfake entry", SanitizeForLog("a/b\nfake entry"))
	assert.Equal(t, "plain", SanitizeForLog("plain"))

	long := SanitizeForLog(strings.Repeat("x", 2*maxValueLen))
	assert.True(t, strings.HasSuffix(long, "...[TRUNCATED]"))
	assert.Len(t, long, maxValueLen+len("...[TRUNCATED]"))
}
