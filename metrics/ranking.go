package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// rankPair couples a prediction score with the true relevance of the item it
// ranks.
type rankPair = struct {
	score     float64
	relevance float64
}

// dcg returns the discounted cumulative gain of the first k pairs in their
// current order, with gain 2^relevance - 1 and a log2 position discount.
func dcg(pairs []rankPair, k int) float64 {
	if k > len(pairs) {
		k = len(pairs)
	}

	var sum float64
	for i := 0; i < k; i++ {
		gain := math.Exp2(pairs[i].relevance) - 1
		sum += gain / math.Log2(float64(i)+2)
	}
	return sum
}

// NDCG returns the normalized discounted cumulative gain at cutoff k.
// k = -1 scores the full ranking. Relevance values must be non-negative;
// all-zero relevance has nothing to rank and scores 0.
func NDCG(yTrue, yPred *mat.VecDense, k int) (float64, error) {
	const op = "NDCG"

	n, err := validateVectors(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if k == -1 {
		k = n
	} else if k < 1 {
		return 0, errors.NewValueError(op, "k must be positive or -1 for the full ranking")
	}

	pairs := make([]rankPair, n)
	for i := 0; i < n; i++ {
		rel := yTrue.AtVec(i)
		if rel < 0 {
			return 0, errors.NewValueError(op, "relevance values must be non-negative")
		}
		pairs[i] = rankPair{score: yPred.AtVec(i), relevance: rel}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})
	ranked := dcg(pairs, k)

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].relevance > pairs[b].relevance
	})
	ideal := dcg(pairs, k)

	if ideal == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(op, "all relevance values are zero", 0))
		return 0, nil
	}

	return ranked / ideal, nil
}

// NDCGMatrix computes NDCG over the first column of matrix inputs.
func NDCGMatrix(yTrue, yPred mat.Matrix, k int) (float64, error) {
	const op = "NDCGMatrix"

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

	return NDCG(yTrueVec, yPredVec, k)
}

// AveragePrecision returns the average of the precision values at each
// relevant position of the ranking induced by the scores. Labels must be
// binary; with no relevant items the metric is undefined, a warning is
// emitted and 0 is returned.
func AveragePrecision(yTrue, yPred *mat.VecDense) (float64, error) {
	const op = "AveragePrecision"

	n, err := validateVectors(op, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := requireBinary(op, yTrue); err != nil {
		return 0, err
	}

	pairs := make([]rankPair, n)
	for i := 0; i < n; i++ {
		pairs[i] = rankPair{score: yPred.AtVec(i), relevance: yTrue.AtVec(i)}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})

	hits := 0
	var sum float64
	for i, p := range pairs {
		if p.relevance == 1 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}

	if hits == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(op, "no relevant items", 0))
		return 0, nil
	}

	return sum / float64(hits), nil
}

// MeanAveragePrecision returns the mean of AveragePrecision across queries.
// The two lists pair up by index and must be equally long.
func MeanAveragePrecision(yTrueList, yPredList []*mat.VecDense) (float64, error) {
	const op = "MeanAveragePrecision"

	if len(yTrueList) == 0 {
		return 0, errors.NewValueError(op, "empty query list")
	}
	if len(yTrueList) != len(yPredList) {
		return 0, errors.NewDimensionError(op, len(yTrueList), len(yPredList), 0)
	}

	var sum float64
	for q := range yTrueList {
		ap, err := AveragePrecision(yTrueList[q], yPredList[q])
		if err != nil {
			return 0, err
		}
		sum += ap
	}

	return sum / float64(len(yTrueList)), nil
}
