package linear

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
	"github.com/reynoldsm88/doddle-model/pkg/log"
)

// fitResult carries the solver output back to the estimator.
type fitResult struct {
	weights     []float64
	lossHistory []float64
	iterations  int
}

// lossRecorder captures the objective value at the initial point and at
// every major iteration so estimators can expose their training-loss curve.
type lossRecorder struct {
	history []float64
}

func (r *lossRecorder) Init() error {
	r.history = r.history[:0]
	return nil
}

func (r *lossRecorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op == optimize.InitIteration || op == optimize.MajorIteration {
		r.history = append(r.history, loc.F)
	}
	return nil
}

// minimize runs L-BFGS on obj starting from x0. The forward cache produced
// by the most recent loss call is reused by a gradient evaluation at the
// same point; when the optimizer asks for a gradient somewhere the loss has
// not visited, the forward pass runs again first.
//
// Hitting the iteration cap is reported as a ConvergenceWarning through the
// warning handler and the best point found so far is returned. Hard solver
// failures and non-finite solutions are errors.
func minimize(op string, obj objective, x0 []float64, maxIterations int, tol float64) (*fitResult, error) {
	var (
		lastW     []float64
		lastCache *mat.Dense
	)

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			value, cache := obj.loss(w)
			lastW = append(lastW[:0], w...)
			lastCache = cache
			return value
		},
		Grad: func(dst, w []float64) {
			cache := lastCache
			if cache == nil || !floats.Equal(lastW, w) {
				_, cache = obj.loss(w)
				lastW = append(lastW[:0], w...)
				lastCache = cache
			}
			copy(dst, obj.lossGrad(w, cache))
		},
	}

	recorder := &lossRecorder{}
	settings := optimize.Settings{
		GradientThreshold: tol,
		MajorIterations:   maxIterations,
		Recorder:          recorder,
	}

	result, err := optimize.Minimize(problem, x0, &settings, &optimize.LBFGS{})
	if err != nil {
		return nil, errors.NewModelError(op, "optimization failed", err)
	}

	if err := errors.CheckNumericalStability(op, result.X, result.Stats.MajorIterations); err != nil {
		return nil, err
	}
	if err := errors.CheckScalar(op, result.F, result.Stats.MajorIterations); err != nil {
		return nil, err
	}

	if result.Status == optimize.IterationLimit {
		errors.Warn(errors.NewConvergenceWarning("L-BFGS", result.Stats.MajorIterations,
			"gradient norm still above tolerance at the iteration limit"))
	}

	return &fitResult{
		weights:     result.X,
		lossHistory: append([]float64(nil), recorder.history...),
		iterations:  result.Stats.MajorIterations,
	}, nil
}

// logFitted emits the debug record that closes every successful Fit.
func logFitted(logger log.Logger, modelName string, result *fitResult, start time.Time, extra ...any) {
	fields := []any{
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.IterationKey, result.iterations,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	fields = append(fields, extra...)
	if len(result.lossHistory) > 0 {
		fields = append(fields, log.LossKey, result.lossHistory[len(result.lossHistory)-1])
	}
	logger.Debug("model fitted", fields...)
}
