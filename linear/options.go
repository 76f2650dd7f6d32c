package linear

import (
	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// Defaults shared by the iterative fitters.
const (
	defaultMaxIterations = 100
	defaultTol           = 1e-5
)

// SoftmaxOption configures a SoftmaxClassifier.
type SoftmaxOption func(*SoftmaxClassifier)

// WithSoftmaxMaxIterations caps the number of optimizer iterations.
func WithSoftmaxMaxIterations(n int) SoftmaxOption {
	return func(clf *SoftmaxClassifier) {
		clf.maxIterations = n
	}
}

// WithSoftmaxTol sets the gradient-norm tolerance that stops the optimizer.
func WithSoftmaxTol(tol float64) SoftmaxOption {
	return func(clf *SoftmaxClassifier) {
		clf.tol = tol
	}
}

// RegressionOption configures a LinearRegression.
type RegressionOption func(*LinearRegression)

// WithLinearMaxIterations caps the number of optimizer iterations.
func WithLinearMaxIterations(n int) RegressionOption {
	return func(lr *LinearRegression) {
		lr.maxIterations = n
	}
}

// WithLinearTol sets the gradient-norm tolerance that stops the optimizer.
func WithLinearTol(tol float64) RegressionOption {
	return func(lr *LinearRegression) {
		lr.tol = tol
	}
}

// LogisticOption configures a LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithLogisticMaxIterations caps the number of optimizer iterations.
func WithLogisticMaxIterations(n int) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.maxIterations = n
	}
}

// WithLogisticTol sets the gradient-norm tolerance that stops the optimizer.
func WithLogisticTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// PoissonOption configures a PoissonRegression.
type PoissonOption func(*PoissonRegression)

// WithPoissonMaxIterations caps the number of optimizer iterations.
func WithPoissonMaxIterations(n int) PoissonOption {
	return func(pr *PoissonRegression) {
		pr.maxIterations = n
	}
}

// WithPoissonTol sets the gradient-norm tolerance that stops the optimizer.
func WithPoissonTol(tol float64) PoissonOption {
	return func(pr *PoissonRegression) {
		pr.tol = tol
	}
}

// validateHyperparams checks the common hyperparameters after construction
// options have been applied.
func validateHyperparams(lambda float64, maxIterations int, tol float64) error {
	if lambda < 0 {
		return errors.NewValidationError("lambda", "must be non-negative", lambda)
	}
	if maxIterations <= 0 {
		return errors.NewValidationError("maxIterations", "must be positive", maxIterations)
	}
	if tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", tol)
	}
	return nil
}
