package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Leveled logging functions backed by the pterm default logger (stderr).

func LogTrace(format string, args ...interface{}) {
	pterm.DefaultLogger.Trace(fmt.Sprintf(format, args...))
}

func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

func LogSuccess(format string, args ...interface{}) {
	pterm.Success.Println(fmt.Sprintf(format, args...))
}

func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

// EnableTrace additionally shows trace messages (pion internals).
func EnableTrace() {
	pterm.DefaultLogger.Level = pterm.LogLevelTrace
}

// Logger prefixes every line with a fixed scope such as "[p2/audio]".
type Logger struct {
	prefix string
}

// Scoped returns a Logger whose lines start with "[scope] ".
func Scoped(format string, args ...interface{}) Logger {
	return Logger{prefix: "[" + fmt.Sprintf(format, args...) + "] "}
}

func (l Logger) Tracef(format string, args ...interface{}) { LogTrace(l.prefix+format, args...) }
func (l Logger) Debugf(format string, args ...interface{}) { LogDebug(l.prefix+format, args...) }
func (l Logger) Infof(format string, args ...interface{})  { LogInfo(l.prefix+format, args...) }
func (l Logger) Warnf(format string, args ...interface{})  { LogWarning(l.prefix+format, args...) }
func (l Logger) Errorf(format string, args ...interface{}) { LogError(l.prefix+format, args...) }
