package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// New builds a logger for level (debug, info, warn, error).
// Development mode uses the console encoder, otherwise JSON.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// SetLogger replaces the process-wide logger returned by L
func SetLogger(logger *zap.Logger) {
	global.Store(logger)
}

// L returns the process-wide logger, a no-op logger until SetLogger is called
func L() *zap.Logger {
	if logger := global.Load(); logger != nil {
		return logger
	}
	return zap.NewNop()
}
