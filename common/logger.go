package common

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logOnce sync.Once
	logger  *zap.SugaredLogger
)

// Log returns the package-wide structured logger, lazily initialized at
// Info level so components can log without requiring callers to set one
// up first. Call InitLogger before that to pick a different level.
func Log() *zap.SugaredLogger {
	InitLogger(zapcore.InfoLevel)
	return logger
}

// InitLogger installs the package-wide logger at the given level. It is
// safe to call once, before any component logs; subsequent calls are a
// no-op to keep Log's lazy default from racing with a later override.
func InitLogger(level zapcore.Level) {
	logOnce.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		built, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		logger = built.Sugar()
	})
}
