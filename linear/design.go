package linear

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/parallel"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// parallelThreshold is the row count above which design-matrix assembly is
// chunked across goroutines.
const parallelThreshold = 1000

// withIntercept builds the design matrix the models train on by prepending a
// column of ones to X. Column 0 of the weight vector therefore holds the
// intercept.
func withIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	Xb := mat.NewDense(r, c+1, nil)

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			Xb.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				Xb.Set(i, j+1, X.At(i, j))
			}
		}
	})

	return Xb
}

// validateFitInputs checks the shape requirements shared by every Fit: a
// non-empty X and a single target column with one row per sample.
func validateFitInputs(op string, X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError(op, fmt.Sprintf("y must be a column vector, got shape (%d, %d)", ry, cy))
	}
	return nil
}

// extractClassLabels reads integer class labels out of the target column and
// returns the sorted unique labels plus the 0-based code of each sample.
// Codes follow the sorted label order, so the largest label becomes the
// highest code.
func extractClassLabels(op string, y mat.Matrix) (classes []int, codes []int, err error) {
	n, _ := y.Dims()

	labels := make([]int, n)
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, nil, errors.NewValueError(op, fmt.Sprintf("class label at row %d is not an integer: %v", i, v))
		}
		labels[i] = int(v)
		seen[labels[i]] = true
	}

	classes = make([]int, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	codeOf := make(map[int]int, len(classes))
	for code, label := range classes {
		codeOf[label] = code
	}

	codes = make([]int, n)
	for i, label := range labels {
		codes[i] = codeOf[label]
	}

	return classes, codes, nil
}

// targetVector copies the single target column into a vector.
func targetVector(y mat.Matrix) *mat.VecDense {
	n, _ := y.Dims()
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, y.At(i, 0))
	}
	return v
}

// countTargets validates that every target is a non-negative integer count
// and returns them as a slice.
func countTargets(op string, y mat.Matrix) ([]float64, error) {
	n, _ := y.Dims()
	counts := make([]float64, n)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 {
			return nil, errors.NewValueError(op, fmt.Sprintf("target at row %d is not a non-negative count: %v", i, v))
		}
		counts[i] = v
	}
	return counts, nil
}
