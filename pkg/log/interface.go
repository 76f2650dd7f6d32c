// Package log provides structured logging for the library's model operations.
//
// It defines a minimal, slog-compatible Logger interface so that callers can
// plug in their own backend, plus a zerolog-backed production implementation
// and standard attribute keys for machine learning context (operation names,
// data shapes, training metrics). Fit, predict, and transform paths log
// through this interface only; nothing in the library writes to a concrete
// backend directly.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "SoftmaxClassifier",
//	)
//	logger.Info("training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's
// log/slog. Fields are alternating key-value pairs, as in slog. With returns
// a derived logger whose fields are attached to every subsequent record.
type Logger interface {
	// Debug, Info, Warn, and Error log a message at the corresponding
	// level. For Error, implementations may attach stack trace information
	// extracted from error-valued fields.
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	//
	// Example:
	//
	//	contextLogger := logger.With(
	//	    log.ModelNameKey, "LinearRegression",
	//	)
	//	contextLogger.Info("starting training") // includes model.name
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive field construction for records that would be
	// dropped:
	//
	//	if logger.Enabled(ctx, log.LevelDebug) {
	//	    logger.Debug("loss trace", "history", expensiveDump())
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // detailed diagnostic information
	LevelInfo  Level = 0  // general operational information
	LevelWarn  Level = 4  // warning conditions
	LevelError Level = 8  // error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It exists for dependency
// injection: production code uses the zerolog provider, tests use
// TestLoggerProvider.
type LoggerProvider interface {
	// GetLogger returns the default logger instance, and GetLoggerWithName
	// one tagged with a component name.
	GetLogger() Logger
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers from this provider.
	SetLevel(level Level)
}
