// Panic recovery utilities. The dense-matrix layer panics on misuse (for
// example a shape mismatch in a multiply), and these helpers convert such
// panics into structured errors with the stack trace preserved.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is the error form of a recovered panic.
type PanicError struct {
	// Operation identifies where the panic was recovered.
	Operation string

	// PanicValue is the value originally passed to panic().
	PanicValue any

	// StackTrace is the goroutine stack captured at recovery time.
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns nil; a panic value carries no error chain of its own.
func (e *PanicError) Unwrap() error {
	return nil
}

// String renders the error together with the captured stack trace.
func (e *PanicError) String() string {
	return e.Error() + "\nStack trace:\n" + e.StackTrace
}

// NewPanicError builds a PanicError for the given operation, capturing the
// current stack.
func NewPanicError(operation string, value any) *PanicError {
	return &PanicError{
		Operation:  operation,
		PanicValue: value,
		StackTrace: string(debug.Stack()),
	}
}

// Recover converts a recovered panic into an error. Call it with defer and a
// pointer to the function's error return:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "Model.Fit")
//	    // ...
//	}
//
// If the function is already returning an error when a panic unwinds, the
// panic information wraps the original error.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn and converts a panic inside it into an error.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
