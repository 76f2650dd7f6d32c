package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// objective is the optimization-level view of a linear model: a
// differentiable loss over a flat parameter vector. loss returns the
// forward-pass artifacts alongside the scalar value, and lossGrad consumes
// them, so the evaluation at a given point shares one matrix product. The
// cache is only valid for the weight vector it was computed from; the solver
// tracks that pairing and recomputes the forward pass when the optimizer
// moves to a new point.
type objective interface {
	// dim returns the length of the parameter vector.
	dim() int

	// loss evaluates the objective at w and returns the forward cache for
	// lossGrad.
	loss(w []float64) (float64, *mat.Dense)

	// lossGrad evaluates the gradient at w using the cache produced by loss
	// at the same w.
	lossGrad(w []float64, cache *mat.Dense) []float64
}

// softmaxObjective is the multinomial cross-entropy objective with an L2
// penalty on the non-intercept rows. The highest class code is the pivot:
// its score is fixed at zero and its weights are excluded from the parameter
// vector, which reshapes row-major to (p, numClasses-1) over the
// intercept-augmented design matrix.
type softmaxObjective struct {
	xb         *mat.Dense // design matrix with intercept column, n x p
	codes      []int      // 0-based class code per sample
	numClasses int
	lambda     float64
}

func (o *softmaxObjective) dim() int {
	_, p := o.xb.Dims()
	return p * (o.numClasses - 1)
}

// forward computes the full probability simplex for the weights in w. Every
// score is shifted by the single largest entry of the whole score matrix, not
// a per-row maximum, before exponentiation; the pivot class contributes
// exp(-shift) to each row and the row is then normalized by its sum.
func (o *softmaxObjective) forward(w []float64) *mat.Dense {
	n, p := o.xb.Dims()
	k := o.numClasses

	weights := mat.NewDense(p, k-1, w)
	var z mat.Dense
	z.Mul(o.xb, weights)

	shift := mat.Max(&z)
	pivot := math.Exp(-shift)

	probs := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		rowSum := pivot
		for c := 0; c < k-1; c++ {
			e := math.Exp(z.At(i, c) - shift)
			probs.Set(i, c, e)
			rowSum += e
		}
		probs.Set(i, k-1, pivot)
		for c := 0; c < k; c++ {
			probs.Set(i, c, probs.At(i, c)/rowSum)
		}
	}

	return probs
}

// loss returns the mean negative log-likelihood plus the ridge penalty. A
// probability that underflowed to zero yields -Inf from the log and the
// resulting +Inf loss is propagated as is.
func (o *softmaxObjective) loss(w []float64) (float64, *mat.Dense) {
	n, p := o.xb.Dims()
	k := o.numClasses

	probs := o.forward(w)

	var nll float64
	for i := 0; i < n; i++ {
		nll -= math.Log(probs.At(i, o.codes[i]))
	}
	nll /= float64(n)

	var reg float64
	for j := 1; j < p; j++ {
		for c := 0; c < k-1; c++ {
			wjc := w[j*(k-1)+c]
			reg += wjc * wjc
		}
	}

	return nll + 0.5*o.lambda*reg, probs
}

func (o *softmaxObjective) lossGrad(w []float64, probs *mat.Dense) []float64 {
	n, p := o.xb.Dims()
	k := o.numClasses

	// diff[i,c] = 1{codes[i]==c} - P[i,c] over the explicit classes; rows of
	// pivot-class samples carry only the -P term.
	diff := mat.NewDense(n, k-1, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < k-1; c++ {
			indicator := 0.0
			if o.codes[i] == c {
				indicator = 1.0
			}
			diff.Set(i, c, indicator-probs.At(i, c))
		}
	}

	var g mat.Dense
	g.Mul(o.xb.T(), diff)
	g.Scale(-1.0/float64(n), &g)

	grad := make([]float64, p*(k-1))
	for j := 0; j < p; j++ {
		for c := 0; c < k-1; c++ {
			v := g.At(j, c)
			if j >= 1 {
				v += o.lambda * w[j*(k-1)+c]
			}
			grad[j*(k-1)+c] = v
		}
	}

	return grad
}

// leastSquaresObjective is the ridge-penalized mean squared error. The
// residual vector y - Xw doubles as the forward cache.
type leastSquaresObjective struct {
	xb     *mat.Dense // n x p
	y      *mat.VecDense
	lambda float64
}

func (o *leastSquaresObjective) dim() int {
	_, p := o.xb.Dims()
	return p
}

func (o *leastSquaresObjective) loss(w []float64) (float64, *mat.Dense) {
	n, p := o.xb.Dims()

	weights := mat.NewDense(p, 1, w)
	var pred mat.Dense
	pred.Mul(o.xb, weights)

	resid := mat.NewDense(n, 1, nil)
	var sq float64
	for i := 0; i < n; i++ {
		r := o.y.AtVec(i) - pred.At(i, 0)
		resid.Set(i, 0, r)
		sq += r * r
	}

	var reg float64
	for j := 1; j < p; j++ {
		reg += w[j] * w[j]
	}

	return 0.5 * (sq/float64(n) + o.lambda*reg), resid
}

func (o *leastSquaresObjective) lossGrad(w []float64, resid *mat.Dense) []float64 {
	n, p := o.xb.Dims()

	var g mat.Dense
	g.Mul(o.xb.T(), resid)

	grad := make([]float64, p)
	for j := 0; j < p; j++ {
		grad[j] = -g.At(j, 0) / float64(n)
	}
	for j := 1; j < p; j++ {
		grad[j] += o.lambda * w[j]
	}

	return grad
}

// logisticObjective is the binary cross-entropy objective with an L2 penalty
// on the non-intercept weights. The cache holds the predicted positive-class
// probability per sample.
type logisticObjective struct {
	xb     *mat.Dense // n x p
	y      []float64  // 0/1 targets
	lambda float64
}

func (o *logisticObjective) dim() int {
	_, p := o.xb.Dims()
	return p
}

func (o *logisticObjective) loss(w []float64) (float64, *mat.Dense) {
	n, p := o.xb.Dims()

	weights := mat.NewDense(p, 1, w)
	var z mat.Dense
	z.Mul(o.xb, weights)

	// The per-sample loss comes straight from the logit: -log(sigmoid(z)) is
	// LogSumExp(0, -z) and -log(1-sigmoid(z)) is LogSumExp(0, z), both finite
	// where the probability itself would round to 0 or 1.
	probs := mat.NewDense(n, 1, nil)
	pair := make([]float64, 2)
	var nll float64
	for i := 0; i < n; i++ {
		zi := z.At(i, 0)
		probs.Set(i, 0, sigmoid(zi))

		pair[1] = zi
		if o.y[i] == 1 {
			pair[1] = -zi
		}
		nll += errors.LogSumExp(pair)
	}
	nll /= float64(n)

	var reg float64
	for j := 1; j < p; j++ {
		reg += w[j] * w[j]
	}

	return nll + 0.5*o.lambda*reg, probs
}

func (o *logisticObjective) lossGrad(w []float64, probs *mat.Dense) []float64 {
	n, p := o.xb.Dims()

	diff := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		diff.Set(i, 0, probs.At(i, 0)-o.y[i])
	}

	var g mat.Dense
	g.Mul(o.xb.T(), diff)

	grad := make([]float64, p)
	for j := 0; j < p; j++ {
		grad[j] = g.At(j, 0) / float64(n)
	}
	for j := 1; j < p; j++ {
		grad[j] += o.lambda * w[j]
	}

	return grad
}

// poissonObjective is the Poisson negative log-likelihood without the
// constant log(y!) term, plus an L2 penalty on the non-intercept weights.
// The cache holds the predicted mean per sample.
type poissonObjective struct {
	xb     *mat.Dense // n x p
	y      []float64  // non-negative counts
	lambda float64
}

func (o *poissonObjective) dim() int {
	_, p := o.xb.Dims()
	return p
}

func (o *poissonObjective) loss(w []float64) (float64, *mat.Dense) {
	n, p := o.xb.Dims()

	weights := mat.NewDense(p, 1, w)
	var z mat.Dense
	z.Mul(o.xb, weights)

	means := mat.NewDense(n, 1, nil)
	var nll float64
	for i := 0; i < n; i++ {
		zi := z.At(i, 0)
		mu := errors.StabilizeExp(zi)
		means.Set(i, 0, mu)
		nll += mu - o.y[i]*zi
	}
	nll /= float64(n)

	var reg float64
	for j := 1; j < p; j++ {
		reg += w[j] * w[j]
	}

	return nll + 0.5*o.lambda*reg, means
}

func (o *poissonObjective) lossGrad(w []float64, means *mat.Dense) []float64 {
	n, p := o.xb.Dims()

	diff := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		diff.Set(i, 0, means.At(i, 0)-o.y[i])
	}

	var g mat.Dense
	g.Mul(o.xb.T(), diff)

	grad := make([]float64, p)
	for j := 0; j < p; j++ {
		grad[j] = g.At(j, 0) / float64(n)
	}
	for j := 1; j < p; j++ {
		grad[j] += o.lambda * w[j]
	}

	return grad
}

// sigmoid computes 1/(1+exp(-z)) without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}
