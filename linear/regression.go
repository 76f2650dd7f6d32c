package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// LinearRegression is ridge-regularized least squares fitted with L-BFGS.
// The intercept is always fitted and excluded from the penalty. A fitted
// model is safe for concurrent Predict calls.
type LinearRegression struct {
	state *model.StateManager

	// Hyperparameters.
	lambda        float64
	maxIterations int
	tol           float64

	// Fitted attributes. The intercept sits at weights[0].
	weights     []float64
	lossHistory []float64
	iterations  int
}

var _ model.Regressor = (*LinearRegression)(nil)

// NewLinearRegression creates a LinearRegression with ridge strength lambda.
// lambda must be non-negative; zero gives ordinary least squares.
func NewLinearRegression(lambda float64, opts ...RegressionOption) (*LinearRegression, error) {
	lr := &LinearRegression{
		state:         model.NewStateManager(),
		lambda:        lambda,
		maxIterations: defaultMaxIterations,
		tol:           defaultTol,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if err := validateHyperparams(lr.lambda, lr.maxIterations, lr.tol); err != nil {
		return nil, err
	}
	return lr, nil
}

// Fit learns the weights from X and the single target column y.
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	const op = "LinearRegression.Fit"
	defer errors.Recover(&err, op)

	if err := validateFitInputs(op, X, y); err != nil {
		return err
	}

	start := time.Now()
	n, nFeatures := X.Dims()

	obj := &leastSquaresObjective{
		xb:     withIntercept(X),
		y:      targetVector(y),
		lambda: lr.lambda,
	}

	result, err := minimize(op, obj, make([]float64, obj.dim()), lr.maxIterations, lr.tol)
	if err != nil {
		return err
	}

	lr.weights = result.weights
	lr.lossHistory = result.lossHistory
	lr.iterations = result.iterations

	lr.state.SetDimensions(nFeatures, n)
	lr.state.SetFitted()

	logFitted(log.GetLogger(), "LinearRegression", result, start,
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.RegularizationKey, lr.lambda,
	)

	return nil
}

// Predict returns the predicted target for each row of X as an (n, 1)
// matrix.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	n, c := X.Dims()
	nFeatures, _ := lr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", nFeatures, c, 1)
	}

	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := lr.weights[0]
		for j := 0; j < c; j++ {
			v += X.At(i, j) * lr.weights[j+1]
		}
		pred.Set(i, 0, v)
	}

	return pred, nil
}

// Score returns the coefficient of determination R^2 of the prediction.
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	n, _ := y.Dims()
	if pn, _ := pred.Dims(); pn != n {
		return 0, errors.NewDimensionError("LinearRegression.Score", pn, n, 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrue := y.At(i, 0)
		yPred := pred.At(i, 0)

		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPred) * (yTrue - yPred)
	}

	if tss == 0 {
		return 0, errors.NewValueError("LinearRegression.Score", "total sum of squares is zero")
	}

	return 1 - rss/tss, nil
}

// GetWeights returns the fitted feature weights, intercept excluded.
func (lr *LinearRegression) GetWeights() []float64 {
	if len(lr.weights) == 0 {
		return nil
	}
	out := make([]float64, len(lr.weights)-1)
	copy(out, lr.weights[1:])
	return out
}

// GetIntercept returns the fitted intercept.
func (lr *LinearRegression) GetIntercept() float64 {
	if len(lr.weights) == 0 {
		return 0
	}
	return lr.weights[0]
}

// LossHistory returns the training loss recorded at each optimizer iteration
// of the last Fit.
func (lr *LinearRegression) LossHistory() []float64 {
	out := make([]float64, len(lr.lossHistory))
	copy(out, lr.lossHistory)
	return out
}

// Iterations returns the number of optimizer iterations the last Fit ran.
func (lr *LinearRegression) Iterations() int {
	return lr.iterations
}

// IsFitted returns whether the model has been fitted.
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]any {
	return map[string]any{
		"lambda":         lr.lambda,
		"max_iterations": lr.maxIterations,
		"tol":            lr.tol,
	}
}

// Snapshot returns the serializable state of the model.
func (lr *LinearRegression) Snapshot() *model.ModelSnapshot {
	nFeatures, _ := lr.state.GetDimensions()
	return &model.ModelSnapshot{
		ModelType: "LinearRegression",
		Version:   model.SnapshotVersion,
		Weights:   append([]float64(nil), lr.weights...),
		NFeatures: nFeatures,
		Lambda:    lr.lambda,
		IsFitted:  lr.state.IsFitted(),
	}
}

// Save writes the fitted model to path as JSON.
func (lr *LinearRegression) Save(path string) error {
	if !lr.state.IsFitted() {
		return errors.NewNotFittedError("LinearRegression", "Save")
	}
	return model.SaveModel(lr.Snapshot(), path)
}

// Load restores a model previously written with Save.
func (lr *LinearRegression) Load(path string) error {
	var snap model.ModelSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	return lr.restore(&snap)
}

func (lr *LinearRegression) restore(snap *model.ModelSnapshot) error {
	const op = "LinearRegression.Load"

	if err := snap.Validate(); err != nil {
		return errors.NewModelError(op, "invalid snapshot", err)
	}
	if snap.ModelType != "LinearRegression" {
		return errors.NewValueError(op, fmt.Sprintf("snapshot holds a %s, not a LinearRegression", snap.ModelType))
	}
	if want := snap.NFeatures + 1; len(snap.Weights) != want {
		return errors.NewDimensionError(op, want, len(snap.Weights), 1)
	}

	lr.lambda = snap.Lambda
	lr.weights = append([]float64(nil), snap.Weights...)
	lr.lossHistory = nil
	lr.iterations = 0
	lr.state.SetDimensions(snap.NFeatures, 0)
	if snap.IsFitted {
		lr.state.SetFitted()
	}

	return nil
}
