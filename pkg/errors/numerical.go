package errors

import "math"

// CheckNumericalStability returns a NumericalInstabilityError if any value is
// NaN or infinite. The iteration is recorded so iterative solvers can report
// where a computation diverged.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !isFinite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar is CheckNumericalStability for a single value.
func CheckScalar(operation string, value float64, iteration int) error {
	if !isFinite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	return math.Min(math.Max(value, min), max)
}

// StabilizeExp computes exp with the argument clipped so the result stays
// finite. Inputs above 700 saturate at exp(700); inputs below -700 flush to
// zero.
func StabilizeExp(value float64) float64 {
	const maxExp = 700.0
	switch {
	case value > maxExp:
		return math.Exp(maxExp)
	case value < -maxExp:
		return 0
	default:
		return math.Exp(value)
	}
}

// LogSumExp computes log(sum(exp(values))) without overflowing, shifting all
// values by their maximum before exponentiating. Returns -Inf for an empty
// slice and when every value is -Inf.
func LogSumExp(values []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(maxVal, -1) {
		return maxVal
	}

	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}
