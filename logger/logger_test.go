package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLoggerWithWriter("editor", &buf)

	l.Warn("unknown key", "key", "colour")

	out := buf.String()
	assert.Contains(t, out, "editor")
	assert.Contains(t, out, "unknown key")
	assert.Contains(t, out, "colour")
}

func TestDefaultLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLoggerWithWriter("editor", &buf)

	LoggerEnabled = false
	defer func() { LoggerEnabled = true }()

	l.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Debug("a")
		l.Info("b", "k", 1)
		l.Warn("c")
		l.Error("d")
	})
}
