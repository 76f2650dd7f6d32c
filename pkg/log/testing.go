// Testing utilities for structured logging. TestLogger captures records in
// memory so tests can assert on messages and fields without touching a real
// backend.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// TestLogger is a Logger implementation for tests. All records are captured
// in an internal buffer as JSON lines for later inspection.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	fields map[string]any
}

// NewTestLogger creates a TestLogger with the given minimum level and
// returns it together with the buffer holding the captured output.
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	logger.Info("fit done", "samples", 100)
//	if !logger.ContainsMessage("fit done") { ... }
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{
		buffer: buf,
		level:  level,
		fields: make(map[string]any),
	}, buf
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.emit(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.emit(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.emit(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) { t.emit(LevelError, msg, fields) }

// With implements Logger.With. The derived logger shares the buffer, so
// assertions on the parent see records from every descendant.
func (t *TestLogger) With(fields ...any) Logger {
	merged := maps.Clone(t.fields)
	addPairs(merged, fields)
	return &TestLogger{buffer: t.buffer, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(ctx context.Context, level Level) bool {
	return t.level <= level
}

// emit appends one JSON line for the record if the level passes the filter.
func (t *TestLogger) emit(level Level, msg string, fields []any) {
	if t.level > level {
		return
	}

	entry := map[string]any{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	addPairs(entry, fields)

	line, _ := json.Marshal(entry)
	t.buffer.Write(append(line, '\n'))
}

// addPairs folds alternating key/value pairs into dst. Error values become
// their message strings and a trailing key without a value is dropped.
func addPairs(dst map[string]any, pairs []any) {
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprintf("%v", pairs[i])
		if err, ok := pairs[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = pairs[i+1]
	}
}

// GetBuffer returns the internal buffer for direct access to captured logs.
func (t *TestLogger) GetBuffer() *bytes.Buffer {
	return t.buffer
}

// GetLogEntries parses the captured output into structured log entries.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(t.buffer.Bytes()))

	var entries []map[string]any
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured record contains the message.
func (t *TestLogger) ContainsMessage(message string) bool {
	return strings.Contains(t.buffer.String(), message)
}

// ContainsField reports whether any captured record has the field with the
// given value.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if got, ok := entry[key]; ok && got == value {
			return true
		}
	}
	return false
}

// Clear clears all captured log content.
func (t *TestLogger) Clear() {
	t.buffer.Reset()
}

// TestLoggerProvider implements LoggerProvider for tests.
type TestLoggerProvider struct {
	logger *TestLogger
	buffer *bytes.Buffer
}

// NewTestLoggerProvider creates a test provider and returns the buffer
// holding its captured logs.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger, buffer: buffer}, buffer
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}

// GetBuffer returns the buffer for accessing captured logs.
func (p *TestLoggerProvider) GetBuffer() *bytes.Buffer {
	return p.buffer
}
