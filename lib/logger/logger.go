package logger

import (
	"fmt"
	"io"
	baselog "log"
	"os"

	"judge_engine/common/config"
)

const (
	LogLevelTrace = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var (
	logLevel = LogLevelInfo
	log      = baselog.New(os.Stdout, "", baselog.Ldate|baselog.Ltime)
	logErr   = baselog.New(os.Stderr, "", baselog.Ldate|baselog.Ltime)
)

func GetLevel() int {
	return logLevel
}

func Trace(format string, values ...any) {
	logPrint(LogLevelTrace, format, values...)
}

func Debug(format string, values ...any) {
	logPrint(LogLevelDebug, format, values...)
}

func Info(format string, values ...any) {
	logPrint(LogLevelInfo, format, values...)
}

func Warn(format string, values ...any) {
	logPrint(LogLevelWarn, format, values...)
}

// Error logs the message and returns it as an error, so that call sites can
// log and propagate in one statement.
func Error(format string, values ...any) error {
	logPrint(LogLevelError, format, values...)
	logErr.Printf(logErrPrefix(0)+format, values...)
	return fmt.Errorf(format, values...)
}

func Panic(format string, values ...any) {
	logPrint(LogLevelError, format, values...)
	logErr.Printf(logErrPrefix(0)+format, values...)
	panic(fmt.Errorf(format, values...))
}

type logWriter struct {
	level  int
	prefix string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	logPrint(w.level, "%s %s", w.prefix, string(p))
	return len(p), nil
}

// CreateWriter wraps the logger into an io.Writer, e.g. for gin output.
func CreateWriter(level int, prefix string) io.Writer {
	return &logWriter{
		level:  level,
		prefix: prefix,
	}
}

// PanicLevel will output to log the code line which is reachable by level call depth. May be applied in some library code
func PanicLevel(level int, format string, values ...any) {
	logPrint(LogLevelError, format, values...)
	logErr.Printf(logErrPrefix(level)+format, values...)
	panic(fmt.Errorf(format, values...))
}

func openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		panic(err)
	}
	return f
}

func InitLogger(config *config.Config) {
	logLevel = LogLevelInfo
	if config.LogLevel != nil {
		logLevel = *config.LogLevel
	}

	logFile := os.Stdout
	logErrFile := os.Stderr
	if config.LogPath != nil {
		logFile = openLogFile(*config.LogPath + ".log")
		logErrFile = openLogFile(*config.LogPath + ".err")
	}

	flags := baselog.Ldate | baselog.Ltime
	log = baselog.New(logFile, "", flags)
	logErr = baselog.New(logErrFile, "", flags)

	Info("Logger is successfully initialized")
}
