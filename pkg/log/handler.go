package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler is a slog handler that extracts cockroachdb/errors stack
// traces from logged errors into a dedicated attribute.
type ErrFmtHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler. Records logged through the
// returned handler gain a stacktrace attribute whenever an error attribute
// carries one.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{next: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.next.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	if trace := recordStacktrace(r); trace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, trace))
	}
	return eh.next.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{next: eh.next.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{next: eh.next.WithGroup(g)}
}

// recordStacktrace finds the first error attribute on the record and pulls
// its stack trace, stopping the scan as soon as one is seen.
func recordStacktrace(r slog.Record) string {
	var trace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			trace = extractStacktrace(err)
		}
		return false
	})
	return trace
}

func extractStacktrace(err error) string {
	details := errors.GetSafeDetails(err).SafeDetails
	if len(details) == 0 {
		return ""
	}
	return details[0]
}
