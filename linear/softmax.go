package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// SoftmaxClassifier is a multinomial logistic regression classifier with
// ridge regularization, fitted with L-BFGS.
//
// Weights are kept only for the first numClasses-1 classes; the class with
// the highest label is the pivot whose score is fixed at zero, which removes
// the redundant degree of freedom of the softmax parameterization. The
// weight matrix carries an intercept row that the ridge penalty leaves
// untouched.
//
// A fitted classifier is safe for concurrent Predict and PredictProba calls.
// Fit must not run concurrently with them.
type SoftmaxClassifier struct {
	state *model.StateManager

	// Hyperparameters.
	lambda        float64
	maxIterations int
	tol           float64

	// Fitted attributes.
	weights     []float64 // flattened (nFeatures+1, numClasses-1), row-major
	classes     []int     // sorted unique labels seen during fit
	lossHistory []float64
	iterations  int
}

var _ model.Classifier = (*SoftmaxClassifier)(nil)

// NewSoftmaxClassifier creates a SoftmaxClassifier with ridge strength
// lambda. lambda must be non-negative; zero disables regularization.
func NewSoftmaxClassifier(lambda float64, opts ...SoftmaxOption) (*SoftmaxClassifier, error) {
	clf := &SoftmaxClassifier{
		state:         model.NewStateManager(),
		lambda:        lambda,
		maxIterations: defaultMaxIterations,
		tol:           defaultTol,
	}
	for _, opt := range opts {
		opt(clf)
	}
	if err := validateHyperparams(clf.lambda, clf.maxIterations, clf.tol); err != nil {
		return nil, err
	}
	return clf, nil
}

// Fit learns the weights from X and the integer class labels in the single
// column of y. At least two distinct labels are required. Labels may be any
// integers; they are mapped to contiguous codes in ascending order and
// Predict reports the original labels.
func (clf *SoftmaxClassifier) Fit(X, y mat.Matrix) (err error) {
	const op = "SoftmaxClassifier.Fit"
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
	if len(classes) < 2 {
		return errors.NewValueError(op, fmt.Sprintf("need at least 2 classes, got %d", len(classes)))
	}

	obj := &softmaxObjective{
		xb:         withIntercept(X),
		codes:      codes,
		numClasses: len(classes),
		lambda:     clf.lambda,
	}

	result, err := minimize(op, obj, make([]float64, obj.dim()), clf.maxIterations, clf.tol)
	if err != nil {
		return err
	}

	clf.weights = result.weights
	clf.classes = classes
	clf.lossHistory = result.lossHistory
	clf.iterations = result.iterations

	clf.state.SetDimensions(nFeatures, n)
	clf.state.SetFitted()

	logFitted(log.GetLogger(), "SoftmaxClassifier", result, start,
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(classes),
		log.RegularizationKey, clf.lambda,
	)

	return nil
}

// PredictProba returns the class probability simplex for each row of X as an
// (n, numClasses) matrix. Columns follow Classes() order, so the pivot class
// occupies the last column. Each row sums to 1.
func (clf *SoftmaxClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !clf.state.IsFitted() {
		return nil, errors.NewNotFittedError("SoftmaxClassifier", "PredictProba")
	}

	_, c := X.Dims()
	nFeatures, _ := clf.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("SoftmaxClassifier.PredictProba", nFeatures, c, 1)
	}

	obj := &softmaxObjective{
		xb:         withIntercept(X),
		numClasses: len(clf.classes),
		lambda:     clf.lambda,
	}
	return obj.forward(clf.weights), nil
}

// Predict returns the most probable class label for each row of X as an
// (n, 1) matrix. Ties resolve to the lowest label.
func (clf *SoftmaxClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := clf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, k := probs.Dims()
	pred := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		best := 0
		bestProb := probs.At(i, 0)
		for c := 1; c < k; c++ {
			if probs.At(i, c) > bestProb {
				bestProb = probs.At(i, c)
				best = c
			}
		}
		pred.Set(i, 0, float64(clf.classes[best]))
	}

	return pred, nil
}

// Score returns the mean accuracy of Predict on X against the labels in y.
func (clf *SoftmaxClassifier) Score(X, y mat.Matrix) (float64, error) {
	const op = "SoftmaxClassifier.Score"

	pred, err := clf.Predict(X)
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

// Classes returns the class labels seen during Fit, sorted ascending.
func (clf *SoftmaxClassifier) Classes() []int {
	out := make([]int, len(clf.classes))
	copy(out, clf.classes)
	return out
}

// LossHistory returns the training loss recorded at each optimizer iteration
// of the last Fit.
func (clf *SoftmaxClassifier) LossHistory() []float64 {
	out := make([]float64, len(clf.lossHistory))
	copy(out, clf.lossHistory)
	return out
}

// Iterations returns the number of optimizer iterations the last Fit ran.
func (clf *SoftmaxClassifier) Iterations() int {
	return clf.iterations
}

// IsFitted returns whether the classifier has been fitted.
func (clf *SoftmaxClassifier) IsFitted() bool {
	return clf.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (clf *SoftmaxClassifier) GetParams() map[string]any {
	return map[string]any{
		"lambda":         clf.lambda,
		"max_iterations": clf.maxIterations,
		"tol":            clf.tol,
	}
}

// Snapshot returns the serializable state of the classifier.
func (clf *SoftmaxClassifier) Snapshot() *model.ModelSnapshot {
	nFeatures, _ := clf.state.GetDimensions()
	return &model.ModelSnapshot{
		ModelType: "SoftmaxClassifier",
		Version:   model.SnapshotVersion,
		Weights:   append([]float64(nil), clf.weights...),
		NFeatures: nFeatures,
		Classes:   clf.Classes(),
		Lambda:    clf.lambda,
		IsFitted:  clf.state.IsFitted(),
	}
}

// Save writes the fitted classifier to path as JSON.
func (clf *SoftmaxClassifier) Save(path string) error {
	if !clf.state.IsFitted() {
		return errors.NewNotFittedError("SoftmaxClassifier", "Save")
	}
	return model.SaveModel(clf.Snapshot(), path)
}

// Load restores a classifier previously written with Save.
func (clf *SoftmaxClassifier) Load(path string) error {
	var snap model.ModelSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	return clf.restore(&snap)
}

func (clf *SoftmaxClassifier) restore(snap *model.ModelSnapshot) error {
	const op = "SoftmaxClassifier.Load"

	if err := snap.Validate(); err != nil {
		return errors.NewModelError(op, "invalid snapshot", err)
	}
	if snap.ModelType != "SoftmaxClassifier" {
		return errors.NewValueError(op, fmt.Sprintf("snapshot holds a %s, not a SoftmaxClassifier", snap.ModelType))
	}
	if len(snap.Classes) < 2 {
		return errors.NewValueError(op, fmt.Sprintf("snapshot must carry at least 2 classes, got %d", len(snap.Classes)))
	}
	if want := (snap.NFeatures + 1) * (len(snap.Classes) - 1); len(snap.Weights) != want {
		return errors.NewDimensionError(op, want, len(snap.Weights), 1)
	}

	clf.lambda = snap.Lambda
	clf.weights = append([]float64(nil), snap.Weights...)
	clf.classes = append([]int(nil), snap.Classes...)
	clf.lossHistory = nil
	clf.iterations = 0
	clf.state.SetDimensions(snap.NFeatures, 0)
	if snap.IsFitted {
		clf.state.SetFitted()
	}

	return nil
}
