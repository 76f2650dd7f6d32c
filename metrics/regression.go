// Package metrics provides evaluation metrics for regression, classification,
// and ranking over gonum vectors.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// MSE returns the mean squared error between yTrue and yPred.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// MSEMatrix computes MSE for single-column matrix inputs.
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	const op = "MSEMatrix"
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError(op, "must be a column vector (n x 1 matrix)")
	}

	return MSE(
		mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)),
		mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)),
	)
}

// RMSE returns the root mean squared error between yTrue and yPred.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error between yTrue and yPred.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score returns the coefficient of determination. A model that always
// predicts the mean of yTrue scores 0; worse models score negative. Constant
// yTrue has no variance to explain and yields an error.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := vecMean(yTrue)

	var tss, rss float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		tss += (t - yMean) * (t - yMean)

		d := t - yPred.AtVec(i)
		rss += d * d
	}

	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// MAPE returns the mean absolute percentage error. Rows where yTrue is zero
// are skipped; if every row is zero the metric is undefined and an error is
// returned.
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t == 0 {
			continue
		}
		sum += math.Abs(t-yPred.AtVec(i)) / math.Abs(t)
		valid++
	}

	if valid == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return (sum / float64(valid)) * 100, nil
}

// ExplainedVarianceScore returns 1 - Var(yTrue - yPred) / Var(yTrue). Unlike
// R2Score it ignores a constant offset in the predictions.
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	residual := mat.NewVecDense(n, nil)
	residual.SubVec(yTrue, yPred)

	varTrue := vecVariance(yTrue)
	if varTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	return 1 - vecVariance(residual)/varTrue, nil
}

// vecMean returns the arithmetic mean of v. v must be non-empty.
func vecMean(v *mat.VecDense) float64 {
	sum := 0.0
	for i := 0; i < v.Len(); i++ {
		sum += v.AtVec(i)
	}
	return sum / float64(v.Len())
}

// vecVariance returns the population variance of v.
func vecVariance(v *mat.VecDense) float64 {
	mean := vecMean(v)
	ss := 0.0
	for i := 0; i < v.Len(); i++ {
		d := v.AtVec(i) - mean
		ss += d * d
	}
	return ss / float64(v.Len())
}
