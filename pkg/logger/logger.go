// Package logger builds the process-wide zap logger.
package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for "production"/"prod" and a
// human-readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "production", "prod":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	default:
		return zap.NewDevelopment()
	}
}

// StdLog adapts l for libraries that want a *log.Logger (GORM's SQL logger).
func StdLog(l *zap.Logger) *log.Logger {
	return zap.NewStdLog(l.WithOptions(zap.AddCallerSkip(1)).Named("sql"))
}
