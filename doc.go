// Package doddle provides in-memory machine learning for Go: regularized
// linear models, preprocessing transformers, evaluation metrics, and model
// selection utilities built on gonum.
//
// The API follows the estimator convention: construct a model with its
// hyperparameters, Fit it on a dense matrix of features and a column of
// targets, then Predict on new data. Constructors validate their parameters
// and return an error instead of deferring failures to Fit.
//
// # Features
//
// - Ridge-regularized linear, logistic, softmax, and Poisson models
// - L-BFGS optimization with per-iteration training-loss history
// - One-hot encoding, standard scaling, and binarization transformers
// - Classification and regression metrics
// - K-fold cross-validation and train/test splitting
// - Structured error types and zerolog-backed logging
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/reynoldsm88/doddle-model/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
//	    y := mat.NewDense(6, 1, []float64{1, 2.5, 4, 5.5, 7, 8.5})
//
//	    model, err := linear.NewLinearRegression(0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    preds, err := model.Predict(mat.NewDense(2, 1, []float64{6, 7}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(preds))
//	}
//
// # Packages
//
//   - linear: linear models (LinearRegression, LogisticRegression,
//     SoftmaxClassifier, PoissonRegression)
//   - preprocessing: feature transformers (OneHotEncoder, StandardScaler,
//     Binarizer)
//   - metrics: evaluation metrics for classification and regression
//   - modelselection: train/test splitting and k-fold cross-validation
//   - core/model: estimator interfaces, fitted-state management, persistence
//   - core/parallel: chunked parallel execution helpers
//   - pkg/errors: structured errors, warnings, and numerical guards
//   - pkg/log: logging facade with a zerolog backend
//
// # Concurrency
//
// Fitted models are safe for concurrent prediction. Fitting mutates the
// receiver and must not run concurrently with other calls on the same
// instance; independent instances train independently.
package doddle
