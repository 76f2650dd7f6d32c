package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// TrainTestSplit randomly partitions the rows of X and y into a train and a
// test subset. testSize is the fraction of rows assigned to the test subset,
// in (0, 1); the test subset holds at least one row and never all of them.
// The same seed always produces the same partition, and rows keep their
// original relative order within each subset.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	const op = "TrainTestSplit"

	if X == nil || y == nil {
		return nil, nil, nil, nil, errors.NewValueError(op, "nil matrix")
	}
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return nil, nil, nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, nil, nil, nil, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if nSamples < 2 {
		return nil, nil, nil, nil, errors.NewValueError(op, fmt.Sprintf("needs at least 2 samples, got %d", nSamples))
	}

	nTest := int(math.Round(float64(nSamples) * testSize))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= nSamples {
		nTest = nSamples - 1
	}

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := r.Perm(nSamples)

	XTest, yTest = extractSubset(X, y, perm[:nTest])
	XTrain, yTrain = extractSubset(X, y, perm[nTest:])
	return XTrain, XTest, yTrain, yTest, nil
}

// extractSubset copies the given rows of X and the matching entries of the
// first column of y into fresh storage. Indices are sorted first, so the
// subset preserves the original row order.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.VecDense) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	_, cols := X.Dims()
	xSubset := mat.NewDense(len(sorted), cols, nil)
	ySubset := mat.NewVecDense(len(sorted), nil)
	for i, idx := range sorted {
		for j := 0; j < cols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		ySubset.SetVec(i, y.At(idx, 0))
	}
	return xSubset, ySubset
}
