package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/core/parallel"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// scaleFloor guards against division by a near-zero standard deviation;
// constant features keep a scale of 1 so Transform leaves them centered.
const scaleFloor = 1e-8

// parallelRowThreshold is the row count above which Transform fans out
// across cores.
const parallelRowThreshold = 1000

// StandardScaler standardizes features by removing the per-column mean and
// scaling to unit variance. Columns whose standard deviation is (near) zero
// are only centered.
type StandardScaler struct {
	state *model.StateManager

	// Mean holds the per-feature mean learned by Fit.
	Mean []float64

	// Scale holds the per-feature standard deviation learned by Fit.
	Scale []float64

	// WithMean controls whether Transform subtracts the mean.
	WithMean bool

	// WithStd controls whether Transform divides by the standard deviation.
	WithStd bool
}

var _ model.Transformer = (*StandardScaler)(nil)

// NewStandardScaler creates a StandardScaler. withMean and withStd select
// which of the two normalization steps Transform applies.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler that both centers and
// scales, the usual configuration.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit learns the per-column mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)

		if s.WithMean {
			s.Mean[j] = floats.Sum(col) / float64(r)
		}

		s.Scale[j] = 1.0
		if s.WithStd {
			// Deviations are measured from Mean[j], which stays zero when
			// centering is off.
			floats.AddConst(-s.Mean[j], col)
			sd := math.Sqrt(floats.Dot(col, col) / float64(r))
			if sd >= scaleFloor {
				s.Scale[j] = sd
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform standardizes X using the statistics learned by Fit.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	parallel.ParallelizeWithThreshold(r, parallelRowThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
			}
		}
	})

	return result, nil
}

// FitTransform fits the scaler on X and returns the standardized X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	nFeatures, _ := s.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		floats.Scale(s.Scale[j], col)
		floats.AddConst(s.Mean[j], col)
		result.SetCol(j, col)
	}

	return result, nil
}

// IsFitted returns whether the scaler has been fitted.
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// GetParams returns the scaler's configuration.
func (s *StandardScaler) GetParams() map[string]any {
	return map[string]any{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String describes the scaler and, once fitted, its learned width.
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}
