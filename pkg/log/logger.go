package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs a JSON slog handler as the process default, wrapped so
// that errors logged via ErrAttr carry their stack traces. Records go to
// stdout with source locations and pipeline-friendly field names.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource:   true,
		Level:       ToLogLevel(loglevel),
		ReplaceAttr: renameForLogPipelines,
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// renameForLogPipelines maps slog's default keys onto the field names log
// aggregation pipelines expect.
func renameForLogPipelines(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.LevelKey:
		attr.Key = "severity"
	case slog.MessageKey:
		attr.Key = "message"
	case slog.SourceKey:
		attr.Key = "logging.googleapis.com/sourceLocation"
	}
	return attr
}

// ToLogLevel converts a level name to the slog level. Panics on an unknown
// name to surface configuration mistakes immediately.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps an error as a slog attribute under the shared error key.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
