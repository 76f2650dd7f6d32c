// Package model defines the capability interfaces shared by all estimators
// and transformers, plus fitted-state management and model persistence
// helpers.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator learns model parameters from training data.
type Estimator interface {
	// Fit trains the model on the given design matrix and targets.
	Fit(X, y mat.Matrix) error
}

// Predictor produces outputs for new inputs.
type Predictor interface {
	// Predict returns predictions for each row of X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer evaluates predictions against ground truth.
type Scorer interface {
	// Score returns the default evaluation score of the prediction:
	// accuracy for classifiers, R^2 for regressors.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor is the full surface of a regression model.
type Regressor interface {
	Estimator
	Predictor
	Scorer
}

// Classifier is the full surface of a classification model.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class. Each row of
	// the returned matrix is a distribution over the classes reported by
	// Classes, in the same column order.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting, sorted
	// ascending.
	Classes() []int
}

// Transformer is a fit-then-apply feature transformation.
type Transformer interface {
	// Fit learns the parameters the transformation needs.
	Fit(X mat.Matrix) error

	// Transform applies the transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits the transformer and transforms X in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter exposes hyperparameters for inspection.
type ParameterGetter interface {
	GetParams() map[string]any
}

// Persistable models round-trip through a file on disk.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
