// Package logging provides the process-wide structured logger.
//
// All packages log through the package-level helpers (Infof, Debugf, Warnf,
// Errorf) so the backing logger can be swapped or silenced in one place.
// The default logger writes production-formatted JSON at info level; Init
// reconfigures it from the configured level string.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger = newLogger(zapcore.InfoLevel)
)

func newLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.NewProductionConfig never produces an unbuildable config
		// unless the output paths are broken; fall back to a no-op logger.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init reconfigures the global logger with the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func Init(level string) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	mu.Lock()
	logger = newLogger(parsed)
	mu.Unlock()
}

// Replace swaps in the given logger and returns a function restoring the
// previous one. Tests use it with a zaptest observer to assert on output.
func Replace(l *zap.SugaredLogger) func() {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, args ...interface{}) { get().Debugf(format, args...) }

func Infof(format string, args ...interface{}) { get().Infof(format, args...) }

func Warnf(format string, args ...interface{}) { get().Warnf(format, args...) }

func Errorf(format string, args ...interface{}) { get().Errorf(format, args...) }
