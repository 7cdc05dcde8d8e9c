package contract

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"lowest quality", 1.0, PoorValue},
		{"just before fair", 1.99, PoorValue},
		{"exactly fair", 2.0, FairValue},
		{"exactly good", 3.0, GoodValue},
		{"just before excellent", 3.99, GoodValue},
		{"exactly excellent", 4.0, ExcellentValue},
		{"highest quality", 5.0, ExcellentValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, q := range []float64{1, 2, 3, 4} {
		assert.Contains(t, GetColorLabel(q), GetPlainLabel(q))
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcd...", TruncateText("abcdefghij", 7))
	assert.Equal(t, "abcdefghij", TruncateText("abcdefghij", 3))
	assert.Equal(t, "héll...", TruncateText("héllo wörld", 7))
}

func TestDefaultPaths(t *testing.T) {
	paths := []string{GetReviewDBFilePath(), GetCacheDBFilePath(), GetModelDBFilePath(), GetModelDirPath()}
	seen := map[string]bool{}
	for _, p := range paths {
		assert.NotEmpty(t, p)
		assert.False(t, seen[p], "duplicate default path %s", p)
		seen[p] = true
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.LevelInfo, schema.JSONLog, &buf)
	logger.Debug("hidden")
	logger.Info("training finished", "loss", 0.5)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"training finished"`)
	assert.Contains(t, out, `"app":"revscore"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	buf.Reset()
	NewLogger(slog.LevelDebug, schema.TextLog, &buf).Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
