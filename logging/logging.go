package logging

import (
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

// Logger writes leveled log messages for a single component
type Logger struct {
	component string
	level     int
	l         *log.Logger
}

// New produces a Logger for the given component, discarding messages below level
func New(component string, level int) *Logger {
	return &Logger{
		component: component,
		level:     level,
		l:         log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Logf writes a message at the given level
func (lg *Logger) Logf(level int, format string, args ...interface{}) {
	if level < lg.level {
		return
	}
	lg.l.Printf("["+LogLevelToString(level)+"] "+lg.component+": "+format, args...)
}

// Debugf writes a message at DebugLevel
func (lg *Logger) Debugf(format string, args ...interface{}) {
	lg.Logf(DebugLevel, format, args...)
}

// Infof writes a message at InfoLevel
func (lg *Logger) Infof(format string, args ...interface{}) {
	lg.Logf(InfoLevel, format, args...)
}

// Warnf writes a message at WarnLevel
func (lg *Logger) Warnf(format string, args ...interface{}) {
	lg.Logf(WarnLevel, format, args...)
}

// Errorf writes a message at ErrorLevel
func (lg *Logger) Errorf(format string, args ...interface{}) {
	lg.Logf(ErrorLevel, format, args...)
}
