package engine

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/1ureka/peercall/internal/util"
)

// loggerFactory routes pion's internal logs to the process logger. pion is
// verbose, so its debug output is demoted to trace and info to debug.
type loggerFactory struct{}

func (loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return pionLogger{prefix: "[pion/" + scope + "] "}
}

type pionLogger struct {
	prefix string
}

func (l pionLogger) Trace(msg string)                          { util.LogTrace("%s%s", l.prefix, msg) }
func (l pionLogger) Tracef(format string, args ...interface{}) { l.Trace(fmt.Sprintf(format, args...)) }
func (l pionLogger) Debug(msg string)                          { util.LogTrace("%s%s", l.prefix, msg) }
func (l pionLogger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l pionLogger) Info(msg string)                           { util.LogDebug("%s%s", l.prefix, msg) }
func (l pionLogger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l pionLogger) Warn(msg string)                           { util.LogWarning("%s%s", l.prefix, msg) }
func (l pionLogger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l pionLogger) Error(msg string)                          { util.LogError("%s%s", l.prefix, msg) }
func (l pionLogger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
