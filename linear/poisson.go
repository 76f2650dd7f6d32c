package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// PoissonRegression models non-negative count targets with a log link,
// fitted with L-BFGS on the ridge-penalized Poisson negative log-likelihood.
// Predictions are the expected counts exp(w.x), so they are non-negative
// but not integer. The intercept is excluded from the penalty.
//
// A fitted model is safe for concurrent Predict calls.
type PoissonRegression struct {
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

var _ model.Regressor = (*PoissonRegression)(nil)

// NewPoissonRegression creates a PoissonRegression with ridge strength
// lambda. lambda must be non-negative; zero disables regularization.
func NewPoissonRegression(lambda float64, opts ...PoissonOption) (*PoissonRegression, error) {
	pr := &PoissonRegression{
		state:         model.NewStateManager(),
		lambda:        lambda,
		maxIterations: defaultMaxIterations,
		tol:           defaultTol,
	}
	for _, opt := range opts {
		opt(pr)
	}
	if err := validateHyperparams(pr.lambda, pr.maxIterations, pr.tol); err != nil {
		return nil, err
	}
	return pr, nil
}

// Fit learns the weights from X and the single target column y. Every
// target must be a non-negative integer count.
func (pr *PoissonRegression) Fit(X, y mat.Matrix) (err error) {
	const op = "PoissonRegression.Fit"
	defer errors.Recover(&err, op)

	if err := validateFitInputs(op, X, y); err != nil {
		return err
	}

	start := time.Now()
	n, nFeatures := X.Dims()

	counts, err := countTargets(op, y)
	if err != nil {
		return err
	}

	obj := &poissonObjective{
		xb:     withIntercept(X),
		y:      counts,
		lambda: pr.lambda,
	}

	result, err := minimize(op, obj, make([]float64, obj.dim()), pr.maxIterations, pr.tol)
	if err != nil {
		return err
	}

	pr.weights = result.weights
	pr.lossHistory = result.lossHistory
	pr.iterations = result.iterations

	pr.state.SetDimensions(nFeatures, n)
	pr.state.SetFitted()

	logFitted(log.GetLogger(), "PoissonRegression", result, start,
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.RegularizationKey, pr.lambda,
	)

	return nil
}

// Predict returns the expected count for each row of X as an (n, 1) matrix.
func (pr *PoissonRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !pr.state.IsFitted() {
		return nil, errors.NewNotFittedError("PoissonRegression", "Predict")
	}

	n, c := X.Dims()
	nFeatures, _ := pr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("PoissonRegression.Predict", nFeatures, c, 1)
	}

	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		z := pr.weights[0]
		for j := 0; j < c; j++ {
			z += X.At(i, j) * pr.weights[j+1]
		}
		pred.Set(i, 0, errors.StabilizeExp(z))
	}

	return pred, nil
}

// Score returns the coefficient of determination R^2 of the predicted
// counts.
func (pr *PoissonRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := pr.Predict(X)
	if err != nil {
		return 0, err
	}

	n, _ := y.Dims()
	if pn, _ := pred.Dims(); pn != n {
		return 0, errors.NewDimensionError("PoissonRegression.Score", pn, n, 0)
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
		return 0, errors.NewValueError("PoissonRegression.Score", "total sum of squares is zero")
	}

	return 1 - rss/tss, nil
}

// GetWeights returns the fitted feature weights, intercept excluded.
func (pr *PoissonRegression) GetWeights() []float64 {
	if len(pr.weights) == 0 {
		return nil
	}
	out := make([]float64, len(pr.weights)-1)
	copy(out, pr.weights[1:])
	return out
}

// GetIntercept returns the fitted intercept.
func (pr *PoissonRegression) GetIntercept() float64 {
	if len(pr.weights) == 0 {
		return 0
	}
	return pr.weights[0]
}

// LossHistory returns the training loss recorded at each optimizer iteration
// of the last Fit.
func (pr *PoissonRegression) LossHistory() []float64 {
	out := make([]float64, len(pr.lossHistory))
	copy(out, pr.lossHistory)
	return out
}

// Iterations returns the number of optimizer iterations the last Fit ran.
func (pr *PoissonRegression) Iterations() int {
	return pr.iterations
}

// IsFitted returns whether the model has been fitted.
func (pr *PoissonRegression) IsFitted() bool {
	return pr.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (pr *PoissonRegression) GetParams() map[string]any {
	return map[string]any{
		"lambda":         pr.lambda,
		"max_iterations": pr.maxIterations,
		"tol":            pr.tol,
	}
}

// Snapshot returns the serializable state of the model.
func (pr *PoissonRegression) Snapshot() *model.ModelSnapshot {
	nFeatures, _ := pr.state.GetDimensions()
	return &model.ModelSnapshot{
		ModelType: "PoissonRegression",
		Version:   model.SnapshotVersion,
		Weights:   append([]float64(nil), pr.weights...),
		NFeatures: nFeatures,
		Lambda:    pr.lambda,
		IsFitted:  pr.state.IsFitted(),
	}
}

// Save writes the fitted model to path as JSON.
func (pr *PoissonRegression) Save(path string) error {
	if !pr.state.IsFitted() {
		return errors.NewNotFittedError("PoissonRegression", "Save")
	}
	return model.SaveModel(pr.Snapshot(), path)
}

// Load restores a model previously written with Save.
func (pr *PoissonRegression) Load(path string) error {
	var snap model.ModelSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	return pr.restore(&snap)
}

func (pr *PoissonRegression) restore(snap *model.ModelSnapshot) error {
	const op = "PoissonRegression.Load"

	if err := snap.Validate(); err != nil {
		return errors.NewModelError(op, "invalid snapshot", err)
	}
	if snap.ModelType != "PoissonRegression" {
		return errors.NewValueError(op, fmt.Sprintf("snapshot holds a %s, not a PoissonRegression", snap.ModelType))
	}
	if want := snap.NFeatures + 1; len(snap.Weights) != want {
		return errors.NewDimensionError(op, want, len(snap.Weights), 1)
	}

	pr.lambda = snap.Lambda
	pr.weights = append([]float64(nil), snap.Weights...)
	pr.lossHistory = nil
	pr.iterations = 0
	pr.state.SetDimensions(snap.NFeatures, 0)
	if snap.IsFitted {
		pr.state.SetFitted()
	}

	return nil
}
