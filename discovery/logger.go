package discovery

import (
	"github.com/labstack/gommon/log"
)

// Logger is the logging surface used across the engine packages. Both
// echo.Logger and *log.Logger from gommon satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewLogger returns a gommon logger with the given prefix at INFO level.
func NewLogger(prefix string) Logger {
	l := log.New(prefix)
	l.SetLevel(log.INFO)
	return l
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }
