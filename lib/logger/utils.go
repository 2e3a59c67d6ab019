package logger

import (
	"fmt"
	"runtime"
)

var levelNames = map[int]string{
	LogLevelTrace: "[TRACE]",
	LogLevelDebug: "[DEBUG]",
	LogLevelInfo:  "[INFO]",
	LogLevelWarn:  "[WARN]",
	LogLevelError: "[ERROR]",
}

func logPrint(level int, format string, value ...any) {
	if logLevel <= level {
		log.Printf(levelNames[level]+" "+format, value...)
	}
}

// logErrPrefix locates the caller which is level frames above the logger call
// site, so that error logs point at the real origin.
func logErrPrefix(level int) string {
	_, file, line, ok := runtime.Caller(level + 2)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d ", file, line)
}
