// Package logger provides leveled, printf-style logging for the chinosrs
// pipeline, backed by zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
}

// SetVerbose lowers the minimum level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Replace swaps the underlying logger. Intended for tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	sugar.Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}
