// Package logger holds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared logger. It is nil until Init is called; use L when the
// caller may run before Init (tests, library code).
var Log *zap.Logger

// Init builds Log. A non-empty logFile switches to the production JSON
// encoder and tees output to the file and stdout.
func Init(level string, logFile string) error {
	var config zap.Config

	if logFile != "" {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{logFile, "stdout"}
	} else {
		config = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	built, err := config.Build()
	if err != nil {
		return err
	}
	Log = built.With(zap.String("service", "video-library"))

	return nil
}

// L returns Log, or a no-op logger when Init has not run.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}
