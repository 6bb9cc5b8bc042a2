package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := Level()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug": DEBUG,
		"INFO":  INFO,
		" warn": WARN,
		"error": ERROR,
		"none":  NONE,
		"bogus": INFO,
		"":      INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	buf := capture(t)
	SetLevel(INFO)

	New(DEBUG).Printf("hidden")
	New(INFO).Printf("Imported %d reviews", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] Imported 3 reviews")

	SetLevel(NONE)
	buf.Reset()
	New(ERROR).Println("silenced")
	assert.Empty(t, buf.String())
}

func TestInitWritesLogFile(t *testing.T) {
	prev := Level()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})

	path := filepath.Join(t.TempDir(), "logs", "reviewgen.log")
	require.NoError(t, Init(path, "debug"))
	assert.Equal(t, DEBUG, Level())

	Debug("written to %s", "file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] written to file")
}
