// Package clog is the proxy's leveled, color-coded logger. It
// implements jsonrpc.Logger so the bridge and upstream clients can log
// through the same sink used everywhere else in the process, and
// optionally rotates its output to a file via lumberjack.
package clog

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the logging verbosity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// Logger is a leveled logger that writes colored output to an
// *log.Logger. It implements jsonrpc.Logger via Errorf.
type Logger struct {
	level Level
	std   *log.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the minimum level that is emitted.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level = level }
}

// New creates a Logger writing to w (os.Stderr if w is nil).
func New(w io.Writer, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := &Logger{level: LevelInfo, std: log.New(w, "", log.LstdFlags)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRotating creates a Logger that writes to both os.Stderr and a
// lumberjack-rotated file at path.
func NewRotating(path string, opts ...Option) *Logger {
	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}
	return New(io.MultiWriter(os.Stderr, fileWriter), opts...)
}

// Debugf logs a debug-level message in cyan.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level <= LevelDebug {
		l.std.Printf(colorCyan+"DEBUG: "+format+colorReset, args...)
	}
}

// Infof logs an info-level message in blue.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level <= LevelInfo {
		l.std.Printf(colorBlue+format+colorReset, args...)
	}
}

// Warnf logs a warning-level message in yellow.
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.level <= LevelWarning {
		l.std.Printf(colorYellow+"WARNING: "+format+colorReset, args...)
	}
}

// Errorf implements jsonrpc.Logger: it always logs, in red, regardless
// of the configured level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf(colorRed+"ERROR: "+format+colorReset, args...)
}
