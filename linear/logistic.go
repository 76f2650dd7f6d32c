package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// LogisticRegression is a binary classifier with ridge regularization,
// fitted with L-BFGS. Exactly two distinct labels must appear in the
// training targets; the larger one is the positive class whose probability
// the sigmoid models. The intercept is excluded from the penalty.
//
// A fitted model is safe for concurrent Predict and PredictProba calls.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters.
	lambda        float64
	maxIterations int
	tol           float64

	// Fitted attributes. The intercept sits at weights[0].
	weights     []float64
	classes     []int // exactly two labels, sorted ascending
	lossHistory []float64
	iterations  int
}

var _ model.Classifier = (*LogisticRegression)(nil)

// NewLogisticRegression creates a LogisticRegression with ridge strength
// lambda. lambda must be non-negative; zero disables regularization.
func NewLogisticRegression(lambda float64, opts ...LogisticOption) (*LogisticRegression, error) {
	lr := &LogisticRegression{
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

// Fit learns the weights from X and the integer class labels in the single
// column of y. Exactly two distinct labels are required.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	const op = "LogisticRegression.Fit"
	defer errors.Recover(&err, op)

	if err := validateFitInputs(op, X, y); err != nil {
		return err
	}

	start := time.Now()
	n, nFeatures := X.Dims()

	classes, codes, err := extractClassLabels(op, y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return errors.NewValueError(op, fmt.Sprintf("expects exactly 2 classes, got %d", len(classes)))
	}

	targets := make([]float64, n)
	for i, code := range codes {
		targets[i] = float64(code)
	}

	obj := &logisticObjective{
		xb:     withIntercept(X),
		y:      targets,
		lambda: lr.lambda,
	}

	result, err := minimize(op, obj, make([]float64, obj.dim()), lr.maxIterations, lr.tol)
	if err != nil {
		return err
	}

	lr.weights = result.weights
	lr.classes = classes
	lr.lossHistory = result.lossHistory
	lr.iterations = result.iterations

	lr.state.SetDimensions(nFeatures, n)
	lr.state.SetFitted()

	logFitted(log.GetLogger(), "LogisticRegression", result, start,
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.RegularizationKey, lr.lambda,
	)

	return nil
}

// positiveProba returns the predicted positive-class probability per row.
func (lr *LogisticRegression) positiveProba(X mat.Matrix) []float64 {
	n, c := X.Dims()

	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		z := lr.weights[0]
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.weights[j+1]
		}
		probs[i] = sigmoid(z)
	}
	return probs
}

// PredictProba returns an (n, 2) matrix of class probabilities. Columns
// follow Classes() order, so column 1 holds the positive-class probability.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	n, c := X.Dims()
	nFeatures, _ := lr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", nFeatures, c, 1)
	}

	probs := mat.NewDense(n, 2, nil)
	for i, p := range lr.positiveProba(X) {
		probs.Set(i, 0, 1-p)
		probs.Set(i, 1, p)
	}

	return probs, nil
}

// Predict returns the class label for each row of X as an (n, 1) matrix. A
// positive-class probability above 0.5 picks the higher label.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "Predict")
	}

	n, c := X.Dims()
	nFeatures, _ := lr.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", nFeatures, c, 1)
	}

	pred := mat.NewDense(n, 1, nil)
	for i, p := range lr.positiveProba(X) {
		if p > 0.5 {
			pred.Set(i, 0, float64(lr.classes[1]))
		} else {
			pred.Set(i, 0, float64(lr.classes[0]))
		}
	}

	return pred, nil
}

// Score returns the mean accuracy of Predict on X against the labels in y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	const op = "LogisticRegression.Score"

	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if pn, _ := pred.Dims(); pn != n {
		return 0, errors.NewDimensionError(op, pn, n, 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// Classes returns the two class labels seen during Fit, sorted ascending.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes))
	copy(out, lr.classes)
	return out
}

// LossHistory returns the training loss recorded at each optimizer iteration
// of the last Fit.
func (lr *LogisticRegression) LossHistory() []float64 {
	out := make([]float64, len(lr.lossHistory))
	copy(out, lr.lossHistory)
	return out
}

// Iterations returns the number of optimizer iterations the last Fit ran.
func (lr *LogisticRegression) Iterations() int {
	return lr.iterations
}

// IsFitted returns whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]any {
	return map[string]any{
		"lambda":         lr.lambda,
		"max_iterations": lr.maxIterations,
		"tol":            lr.tol,
	}
}

// Snapshot returns the serializable state of the model.
func (lr *LogisticRegression) Snapshot() *model.ModelSnapshot {
	nFeatures, _ := lr.state.GetDimensions()
	return &model.ModelSnapshot{
		ModelType: "LogisticRegression",
		Version:   model.SnapshotVersion,
		Weights:   append([]float64(nil), lr.weights...),
		NFeatures: nFeatures,
		Classes:   lr.Classes(),
		Lambda:    lr.lambda,
		IsFitted:  lr.state.IsFitted(),
	}
}

// Save writes the fitted model to path as JSON.
func (lr *LogisticRegression) Save(path string) error {
	if !lr.state.IsFitted() {
		return errors.NewNotFittedError("LogisticRegression", "Save")
	}
	return model.SaveModel(lr.Snapshot(), path)
}

// Load restores a model previously written with Save.
func (lr *LogisticRegression) Load(path string) error {
	var snap model.ModelSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	return lr.restore(&snap)
}

func (lr *LogisticRegression) restore(snap *model.ModelSnapshot) error {
	const op = "LogisticRegression.Load"

	if err := snap.Validate(); err != nil {
		return errors.NewModelError(op, "invalid snapshot", err)
	}
	if snap.ModelType != "LogisticRegression" {
		return errors.NewValueError(op, fmt.Sprintf("snapshot holds a %s, not a LogisticRegression", snap.ModelType))
	}
	if len(snap.Classes) != 2 {
		return errors.NewValueError(op, fmt.Sprintf("snapshot must carry exactly 2 classes, got %d", len(snap.Classes)))
	}
	if want := snap.NFeatures + 1; len(snap.Weights) != want {
		return errors.NewDimensionError(op, want, len(snap.Weights), 1)
	}

	lr.lambda = snap.Lambda
	lr.weights = append([]float64(nil), snap.Weights...)
	lr.classes = append([]int(nil), snap.Classes...)
	lr.lossHistory = nil
	lr.iterations = 0
	lr.state.SetDimensions(snap.NFeatures, 0)
	if snap.IsFitted {
		lr.state.SetFitted()
	}

	return nil
}
