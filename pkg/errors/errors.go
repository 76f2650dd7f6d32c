// Package errors provides the structured errors and warnings raised across
// the library. Error types carry the context a caller needs to react
// programmatically (parameter names, expected/actual dimensions), wrap with
// stack traces via cockroachdb/errors, and marshal themselves into zerolog
// events for structured logging.
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warnMu      sync.Mutex
	warnHandler = func(w error) {
		log.Printf("doddle-warning: %v\n", w)
	}
	// zerolog sink, set lazily to avoid an import cycle with pkg/log.
	warnSink func(warning error)
)

// SetWarningHandler replaces the library-wide warning handler.
// Use it to silence or redirect non-fatal conditions such as
// ConvergenceWarning:
//
//	errors.SetWarningHandler(func(w error) {})
func SetWarningHandler(handler func(w error)) {
	warnMu.Lock()
	warnHandler = handler
	warnMu.Unlock()
}

// SetZerologWarnFunc routes warnings through a zerolog-backed sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warnMu.Lock()
	warnSink = warnFunc
	warnMu.Unlock()
}

// Warn emits a non-fatal warning. The zerolog sink wins when configured;
// otherwise the plain handler runs. The handler is invoked outside the
// lock, so it may itself install a new handler.
func Warn(w error) {
	warnMu.Lock()
	sink, handler := warnSink, warnHandler
	warnMu.Unlock()

	switch {
	case sink != nil:
		sink(w)
	case handler != nil:
		handler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ConvergenceWarning signals that an optimizer stopped at its iteration cap
// before reaching the requested tolerance. The fitted model is still usable.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	base := fmt.Sprintf("%s failed to converge after %d iterations", w.Algorithm, w.Iterations)
	if w.Message != "" {
		return base + ": " + w.Message
	}
	return base + ". Consider increasing max iterations or adjusting parameters."
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message)
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning signals that a metric is ill-defined for the given
// inputs, e.g. precision when no positive predictions exist.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // value returned under this condition
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "UndefinedMetricWarning").
		Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result)
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict or Transform is called on an
// estimator that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("doddle: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NotFittedError").
		Str("model_name", e.ModelName).
		Str("method", e.Method)
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError is returned when input data does not match the expected
// shape along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func axisLabel(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("doddle: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisLabel(e.Axis), e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisLabel(e.Axis))
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError is returned when a hyperparameter fails validation at
// construction time, e.g. a negative regularization strength.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("doddle: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValidationError").
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value any) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError is returned when an argument value is invalid for an operation,
// e.g. a class label outside the range observed during fit.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("doddle: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValueError").
		Str("operation", e.Op).
		Str("message", e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError wraps a lower-level failure that occurred inside a model
// operation, such as an optimizer error during fit.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("doddle: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("doddle: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError is returned when a computation produced NaN or
// Inf where a finite value is required.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	// Show at most five offending values.
	const maxShown = 5
	shown := e.Values
	truncated := len(shown) > maxShown
	if truncated {
		shown = shown[:maxShown]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, v := range shown {
		parts = append(parts, fmt.Sprintf("%.6g", v))
	}
	if truncated {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("doddle: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "))
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NumericalInstabilityError").
		Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a
// stack trace attached.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...any) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when a dataset with zero rows is passed to Fit.
	ErrEmptyData = New("empty data")
)
