package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	doddleerrors "github.com/reynoldsm88/doddle-model/pkg/errors"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface. Error values
// passed as fields gain a stacktrace attribute; values implementing
// zerolog.LogObjectMarshaler are logged as structured objects.
type zerologLogger struct {
	logger zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.logger.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.logger.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.logger.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.logger.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fieldKey(fields[i]), fields[i+1])
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	current := z.logger.GetLevel()
	if current == zerolog.Disabled {
		return false
	}
	return toZerologLevel(level) >= current
}

func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fieldKey(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
			if st := extractStacktrace(v); st != "" {
				ev = ev.Str(StacktraceAttrKey, st)
			}
		case zerolog.LogObjectMarshaler:
			ev = ev.Object(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func fieldKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider is the production LoggerProvider, writing JSON records via
// zerolog.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing to stderr at the given level.
func NewZerologProvider(level Level) *ZerologProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w at the given
// level. Tests use this to capture output.
func NewZerologProviderWithWriter(w io.Writer, level Level) *ZerologProvider {
	base := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologProvider{base: base}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.base}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.base.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(LevelInfo)
)

// SetProvider replaces the package-level provider used by GetLogger.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// GetLogger returns a logger from the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLogger()
}

// GetLoggerWithName returns a component-tagged logger from the current
// provider.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider.GetLoggerWithName(name)
}

// RouteWarnings sends library warnings raised through errors.Warn to the
// current logger instead of the standard library log package. Warning types
// implementing zerolog.LogObjectMarshaler keep their structured fields.
func RouteWarnings() {
	doddleerrors.SetZerologWarnFunc(func(warning error) {
		logger := GetLogger()
		if zl, ok := logger.(*zerologLogger); ok {
			ev := zl.logger.Warn()
			if m, ok := warning.(zerolog.LogObjectMarshaler); ok {
				ev = ev.EmbedObject(m)
			}
			ev.Msg(warning.Error())
			return
		}
		logger.Warn(warning.Error())
	})
}
