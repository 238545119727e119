package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// Logger writes leveled messages, discarding those below its minimum level
type Logger struct {
	level int
	out   *log.Logger
}

// CreateLogger produces a Logger writing to stderr which discards messages below minLevel
func CreateLogger(minLevel int) *Logger {
	return CreateLoggerWithWriter(minLevel, os.Stderr)
}

// CreateLoggerWithWriter produces a Logger writing to w which discards messages below minLevel
func CreateLoggerWithWriter(minLevel int, w io.Writer) *Logger {
	return &Logger{level: minLevel, out: log.New(w, "", log.LstdFlags)}
}

// Level returns the minimum level this Logger emits. A nil Logger emits nothing,
// and reports a level above FatalLevel.
func (l *Logger) Level() int {
	if l == nil {
		return FatalLevel + 1
	}
	return l.level
}

// Logf emits a message at the given level
func (l *Logger) Logf(level int, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.out.Printf("[%s] %s", LogLevelToString(level), fmt.Sprintf(format, args...))
}

// Debugf emits a message at DebugLevel
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Logf(DebugLevel, format, args...)
}

// Infof emits a message at InfoLevel
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Logf(InfoLevel, format, args...)
}

// Warnf emits a message at WarnLevel
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logf(WarnLevel, format, args...)
}

// Errorf emits a message at ErrorLevel
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logf(ErrorLevel, format, args...)
}
