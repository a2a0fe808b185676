package gorm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// LogWriter routes GORM's log lines to zap
type LogWriter struct {
	logger *zap.Logger
}

// Printf implements logger.Writer
func (w *LogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "ERROR"), strings.Contains(msg, "error"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}

// NewLogger creates a GORM logger writing through zap. level is the configured
// database.log_level.
func NewLogger(log *zap.Logger, level string, slowThreshold time.Duration) logger.Interface {
	logLevel := logger.Silent
	switch level {
	case "debug", "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	return logger.New(
		&LogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{&RecipeModel{}, &CommentModel{}}
}
