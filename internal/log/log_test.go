package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(nopWriter{})
		SetLevel(LevelInfo)
	})
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLevelsFilter(t *testing.T) {
	buf := capture(t, LevelWarn)
	Debug("hidden")
	Info("hidden too")
	Warn("shown", "year", 2026)
	Error("failed", errors.New("boom"), "path", "/tmp/x y")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown year=2026")
	assert.Contains(t, out, `[ERROR] failed err=boom path="/tmp/x y"`)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestOddKVDropsTrailingKey(t *testing.T) {
	buf := capture(t, LevelDebug)
	Info("msg", "a", 1, "dangling")
	assert.Contains(t, buf.String(), "msg a=1\n")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" Warn "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
