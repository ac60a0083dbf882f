package logger

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

var LoggerEnabled = true

type DefaultLogger struct {
	name string
	log  *charmlog.Logger
}

func NewDefaultLogger(name string) *DefaultLogger {
	return NewDefaultLoggerWithWriter(name, os.Stderr)
}

// NewDefaultLoggerWithWriter is NewDefaultLogger with an explicit output, mostly for tests.
func NewDefaultLoggerWithWriter(name string, w io.Writer) *DefaultLogger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: name,
		Level:  charmlog.DebugLevel,
	})
	return &DefaultLogger{name: name, log: l}
}

func (d *DefaultLogger) Debug(msg string, keyvals ...any) {
	if LoggerEnabled {
		d.log.Debug(msg, keyvals...)
	}
}

func (d *DefaultLogger) Info(msg string, keyvals ...any) {
	if LoggerEnabled {
		d.log.Info(msg, keyvals...)
	}
}

func (d *DefaultLogger) Warn(msg string, keyvals ...any) {
	if LoggerEnabled {
		d.log.Warn(msg, keyvals...)
	}
}

func (d *DefaultLogger) Error(msg string, keyvals ...any) {
	if LoggerEnabled {
		d.log.Error(msg, keyvals...)
	}
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}
