package outwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 3.14159, "3.14"},
		{"precision 1", 1, 3.14159, "3.1"},
		{"precision 4", 4, 3.14159, "3.1416"},
		{"negative value", 2, -42.567, "-42.57"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, createFormatter(tt.precision)(tt.value))
		})
	}
}

func TestFormatOptional(t *testing.T) {
	fmtFloat := createFormatter(2)
	v := 4.0
	assert.Equal(t, "4.00", formatOptional(&v, fmtFloat))
	assert.Equal(t, "", formatOptional(nil, fmtFloat))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}

func TestShortChecksum(t *testing.T) {
	assert.Equal(t, "abc", shortChecksum("abc"))
	assert.Equal(t, "0123456789ab", shortChecksum("0123456789abcdef"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	assert.Error(t, writeJSON(&buf, make(chan int)), "unsupported types fail to encode")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "x,y"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())

	boom := errors.New("boom")
	err = writeCSVWithHeader(&buf, []string{"a"}, func(*csv.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWriteWithFileInvalidPath(t *testing.T) {
	err := writeWithFile(filepath.Join(t.TempDir(), "missing", "out.txt"), func(io.Writer) error { return nil }, "Wrote")
	assert.Error(t, err)
}

func TestGetMaxTableTextWidth(t *testing.T) {
	cfg := testConfig(t, "", "unused")
	cfg.Width = 200
	assert.Equal(t, 70, getMaxTableTextWidth(cfg, 60), "wide terminals are capped")
	cfg.Width = 90
	assert.Equal(t, 15, getMaxTableTextWidth(cfg, 60), "narrow terminals keep a minimum")
	cfg.Width = 120
	assert.Equal(t, 40, getMaxTableTextWidth(cfg, 60))
}
