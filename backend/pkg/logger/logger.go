package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.Logger

// Init builds the global logger. Production gets JSON at info level,
// everything else gets colored console output at debug level.
func Init(env string) error {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	global = logger
	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	if global != nil {
		_ = global.Sync()
	}
}

// Get returns the global logger, building a development fallback if Init
// was never called (handy in tests)
func Get() *zap.Logger {
	if global == nil {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return global
}

// Named returns the global logger scoped to a subsystem name
func Named(name string) *zap.Logger {
	return Get().Named(name)
}
