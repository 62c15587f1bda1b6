// SPDX-License-Identifier: MIT
package log

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false // Default to Info on parse error
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// --- Global Logger State ---

// level is shared by every logger derived from the root, so SetLevel takes
// effect everywhere at once.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// output is the destination shared by every logger. SetOutput swaps it
// atomically, so loggers handed out by Named follow the redirect.
type output struct {
	w atomic.Pointer[zapcore.WriteSyncer]
}

func (o *output) Write(p []byte) (int, error) { return (*o.w.Load()).Write(p) }
func (o *output) Sync() error                 { return (*o.w.Load()).Sync() }

func (o *output) set(w zapcore.WriteSyncer) {
	w = zapcore.Lock(w)
	o.w.Store(&w)
}

var out = newOutput(os.Stderr)

func newOutput(w zapcore.WriteSyncer) *output {
	o := &output{}
	o.set(w)
	return o
}

// root is the structured logger; sugar backs the printf-style helpers.
var (
	root  = newLogger(out)
	sugar = root.Sugar()
)

func newLogger(w zapcore.WriteSyncer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), w, level)
	return zap.New(core)
}

// SetOutput redirects all logging to w, including loggers already returned
// by Named. Safe to call concurrently with logging.
func SetOutput(w zapcore.WriteSyncer) {
	out.set(w)
}

// SetLevel sets the global logging level atomically.
func SetLevel(l LogLevel) {
	level.SetLevel(l.zapLevel())
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	switch level.Level() {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.WarnLevel:
		return LevelWarn
	case zapcore.ErrorLevel:
		return LevelError
	case zapcore.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Named returns a structured logger for one component. Use it off the audio
// callbacks only.
func Named(name string) *zap.Logger {
	return root.Named(name)
}

// Sync flushes buffered entries. Defer it from main.
func Sync() error {
	return root.Sync()
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) { sugar.Debugf(format, v...) }

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) { sugar.Infof(format, v...) }

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) { sugar.Warnf(format, v...) }

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) { sugar.Errorf(format, v...) }

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...any) { sugar.Fatalf(format, v...) }

// --- Functions without formatting (convenience) ---

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) { sugar.Debug(v...) }

// Info logs an info message if the level is appropriate.
func Info(v ...any) { sugar.Info(v...) }

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) { sugar.Warn(v...) }

// Error logs an error message if the level is appropriate.
func Error(v ...any) { sugar.Error(v...) }

// Fatal logs a fatal message and exits the application.
func Fatal(v ...any) { sugar.Fatal(v...) }
