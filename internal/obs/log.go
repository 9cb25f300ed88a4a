package obs

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.SugaredLogger
)

// Logger returns the shared structured logger used across the service.
// The level is driven by LOG_LEVEL ("debug" enables debug output).
func Logger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		logger = newLogger(os.Getenv("LOG_LEVEL"))
	})
	return logger
}

// ReplaceLogger swaps the shared logger. Intended for tests that need to
// capture log output.
func ReplaceLogger(l *zap.SugaredLogger) *zap.SugaredLogger {
	loggerOnce.Do(func() {})
	prev := logger
	logger = l
	return prev
}

func newLogger(level string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, _ := cfg.Build()
	return l.Sugar()
}
