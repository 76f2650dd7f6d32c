package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// logLossEps keeps probabilities away from 0 and 1 before taking logs.
const logLossEps = 1e-15

// validateVectors checks that both vectors are non-empty and equally long.
func validateVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// requireBinary checks that every label is exactly 0 or 1.
func requireBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// Accuracy returns the fraction of predictions that exactly match the labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validateVectors("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ClassificationError returns the fraction of predictions that miss the
// labels, the complement of Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// binaryCounts tallies the confusion-matrix cells for positive class 1.
func binaryCounts(yTrue, yPred *mat.VecDense) (tp, fp, fn int) {
	for i := 0; i < yTrue.Len(); i++ {
		truePos := yTrue.AtVec(i) == 1
		predPos := yPred.AtVec(i) == 1
		switch {
		case truePos && predPos:
			tp++
		case !truePos && predPos:
			fp++
		case truePos && !predPos:
			fn++
		}
	}
	return tp, fp, fn
}

// Precision returns TP / (TP + FP) for positive class 1. When nothing is
// predicted positive the metric is undefined; a warning is emitted and 0 is
// returned.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "Precision"

	if _, err := validateVectors(op, yTrue, yPred); err != nil {
		return 0, err
	}
	if err := requireBinary(op, yTrue); err != nil {
		return 0, err
	}
	if err := requireBinary(op, yPred); err != nil {
		return 0, err
	}

	tp, fp, _ := binaryCounts(yTrue, yPred)
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(op, "no positive predictions", 0))
		return 0, nil
	}

	return float64(tp) / float64(tp+fp), nil
}

// Recall returns TP / (TP + FN) for positive class 1. When there are no
// positive labels the metric is undefined; a warning is emitted and 0 is
// returned.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "Recall"

	if _, err := validateVectors(op, yTrue, yPred); err != nil {
		return 0, err
	}
	if err := requireBinary(op, yTrue); err != nil {
		return 0, err
	}
	if err := requireBinary(op, yPred); err != nil {
		return 0, err
	}

	tp, _, fn := binaryCounts(yTrue, yPred)
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(op, "no positive labels", 0))
		return 0, nil
	}

	return float64(tp) / float64(tp+fn), nil
}

// F1Score returns the harmonic mean of Precision and Recall for positive
// class 1, or 0 when both are 0.
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	if precision+recall == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("F1Score", "precision and recall are both zero", 0))
		return 0, nil
	}

	return 2 * precision * recall / (precision + recall), nil
}

// BinaryLogLoss returns the negative log-likelihood of binary labels under
// the predicted positive-class probabilities. Probabilities are clipped away
// from 0 and 1 so exact predictions do not produce infinities.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "BinaryLogLoss"

	n, err := validateVectors(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := requireBinary(op, yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}

	return sum / float64(n), nil
}

// AUC returns the area under the ROC curve for binary labels and real-valued
// scores, computed from rank sums with ties contributing half. When all
// labels belong to one class the curve is undefined; a warning is emitted
// and 0.5 is returned.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "AUC"

	n, err := validateVectors(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := requireBinary(op, yTrue); err != nil {
		return 0, err
	}

	nPos := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(op, "all labels belong to one class", 0.5))
		return 0.5, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	// Average ranks over tied scores, then apply the Mann-Whitney identity.
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(order[j]) == yPred.AtVec(order[i]) {
			j++
		}
		avgRank := float64(i+j+1) / 2 // 1-based ranks i+1..j averaged
		for k := i; k < j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j
	}

	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}

	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix computes AUC over the first column of matrix inputs.
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	const op = "AUCMatrix"

	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return AUC(yTrueVec, yPredVec)
}
