// Package modelselection provides utilities for estimating generalization
// performance: train/test splitting, k-fold splitters, and concurrent
// cross-validation over any estimator/metric pair.
package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// Fold holds the row indices of one train/test partition.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates train/test index folds for cross-validation.
type Splitter interface {
	// Split partitions the rows of X into folds. Splitters that do not use
	// the targets ignore y.
	Split(X, y mat.Matrix) ([]Fold, error)

	// GetNSplits returns the number of folds Split will produce.
	GetNSplits() int
}

// KFold splits rows into k consecutive folds, optionally shuffling first.
// Each fold serves as the test set exactly once.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(nSplits int, shuffle bool, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits: nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. The first
// nSamples mod NSplits folds receive one extra test sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	const op = "KFold.Split"

	nSamples, err := splitSampleCount(op, X, kf.NSplits)
	if err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[current:current+testSize])

		inTest := make(map[int]bool, testSize)
		for _, idx := range testIndices {
			inTest[idx] = true
		}
		trainIndices := make([]int, 0, nSamples-testSize)
		for _, idx := range indices {
			if !inTest[idx] {
				trainIndices = append(trainIndices, idx)
			}
		}

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}
		current += testSize
	}

	return folds, nil
}

// StratifiedKFold splits rows into k folds while preserving the per-class
// label proportions of y in every fold.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewStratifiedKFold creates a stratified k-fold splitter. Fewer than 2
// splits falls back to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits: nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates train/test indices for each fold, distributing every
// label's samples across folds as evenly as possible. y must be a column
// of labels with one row per row of X.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	const op = "StratifiedKFold.Split"

	nSamples, err := splitSampleCount(op, X, skf.NSplits)
	if err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.NewValueError(op, "nil targets")
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, errors.NewDimensionError(op, nSamples, yRows, 0)
	}

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	// Fixed label order keeps the folds reproducible; map iteration is not.
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	for _, label := range labels {
		if n := len(classIndices[label]); n < skf.NSplits {
			return nil, errors.NewValueError(op, fmt.Sprintf(
				"label %v has %d samples, fewer than the %d folds", label, n, skf.NSplits))
		}
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.Seed), uint64(skf.Seed)))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		current := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[current:current+testSize]...)
			current += testSize
		}
	}

	for i := range folds {
		inTest := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			inTest[idx] = true
		}
		folds[i].TrainIndices = make([]int, 0, nSamples-len(folds[i].TestIndices))
		for j := 0; j < nSamples; j++ {
			if !inTest[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds, nil
}

// splitSampleCount validates X for splitting and returns its row count.
func splitSampleCount(op string, X mat.Matrix, nSplits int) (int, error) {
	if X == nil {
		return 0, errors.NewValueError(op, "nil matrix")
	}
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if nSamples < nSplits {
		return 0, errors.NewValueError(op, fmt.Sprintf("cannot split %d samples into %d folds", nSamples, nSplits))
	}
	return nSamples, nil
}

// ModelFactory builds a fresh, unfitted estimator for one fold. Each fold
// fits its own instance, so fits can run concurrently.
type ModelFactory func() (model.Regressor, error)

// ScoreFunc evaluates predictions against true targets. The metric
// functions in the metrics package satisfy this signature.
type ScoreFunc func(yTrue, yPred *mat.VecDense) (float64, error)

// CVResult stores per-fold cross-validation outcomes. Times are in seconds.
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	FitTimes    []float64
	ScoreTimes  []float64
	Models      []model.Regressor
}

// GetMeanScore returns the mean test score across folds.
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns the sample standard deviation of the test scores.
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}
	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate fits one model per fold concurrently and scores it on the
// fold's train and test subsets. A nil splitter defaults to unshuffled
// 5-fold. The returned result keeps every fitted model in fold order.
func CrossValidate(factory ModelFactory, score ScoreFunc, X, y mat.Matrix, splitter Splitter) (*CVResult, error) {
	const op = "CrossValidate"

	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	if score == nil {
		return nil, errors.NewValidationError("score", "must not be nil", nil)
	}
	if splitter == nil {
		splitter = NewKFold(5, false, 0)
	}

	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}
	nFolds := len(folds)

	result := &CVResult{
		TrainScores: make([]float64, nFolds),
		TestScores:  make([]float64, nFolds),
		FitTimes:    make([]float64, nFolds),
		ScoreTimes:  make([]float64, nFolds),
		Models:      make([]model.Regressor, nFolds),
	}

	start := time.Now()
	var wg sync.WaitGroup
	foldErrs := make([]error, nFolds)

	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			m, err := factory()
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d: building model failed", idx)
				return
			}

			trainX, trainY := extractSubset(X, y, fold.TrainIndices)
			testX, testY := extractSubset(X, y, fold.TestIndices)

			fitStart := time.Now()
			if err := m.Fit(trainX, trainY); err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d: fit failed", idx)
				return
			}
			result.FitTimes[idx] = time.Since(fitStart).Seconds()
			result.Models[idx] = m

			scoreStart := time.Now()
			trainScore, err := scoreSubset(m, score, trainX, trainY)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d: scoring train subset failed", idx)
				return
			}
			result.TrainScores[idx] = trainScore

			testScore, err := scoreSubset(m, score, testX, testY)
			if err != nil {
				foldErrs[idx] = errors.Wrapf(err, "fold %d: scoring test subset failed", idx)
				return
			}
			result.TestScores[idx] = testScore
			result.ScoreTimes[idx] = time.Since(scoreStart).Seconds()
		}(foldIdx)
	}
	wg.Wait()

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}

	log.GetLogger().Debug("cross-validation finished",
		log.ComponentKey, "modelselection",
		log.OperationKey, op,
		"folds", nFolds,
		"mean_test_score", result.GetMeanScore(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return result, nil
}

// scoreSubset predicts on X and evaluates the predictions against y.
func scoreSubset(m model.Regressor, score ScoreFunc, X *mat.Dense, y *mat.VecDense) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return score(y, asColumnVector(pred))
}

// asColumnVector copies the first column of m into a dense vector.
func asColumnVector(m mat.Matrix) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
