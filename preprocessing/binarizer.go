package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// Binarizer maps each value to 1 when it is strictly above the threshold and
// to 0 otherwise. It learns nothing from data, so Transform works without a
// prior Fit.
type Binarizer struct {
	// Threshold separates the two output values.
	Threshold float64
}

var _ model.Transformer = (*Binarizer)(nil)

// NewBinarizer creates a Binarizer with the given threshold.
func NewBinarizer(threshold float64) *Binarizer {
	return &Binarizer{Threshold: threshold}
}

// Fit validates X. The binarizer keeps no fitted state.
func (b *Binarizer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("Binarizer.Fit", "empty data", errors.ErrEmptyData)
	}
	return nil
}

// Transform returns a matrix of the same shape holding 1 where X is strictly
// above the threshold and 0 elsewhere.
func (b *Binarizer) Transform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("Binarizer.Transform", "empty data", errors.ErrEmptyData)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if X.At(i, j) > b.Threshold {
				result.Set(i, j, 1)
			}
		}
	}

	return result, nil
}

// FitTransform is Transform; Fit only validates.
func (b *Binarizer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := b.Fit(X); err != nil {
		return nil, err
	}
	return b.Transform(X)
}

// GetParams returns the binarizer's configuration.
func (b *Binarizer) GetParams() map[string]any {
	return map[string]any{
		"threshold": b.Threshold,
	}
}

// String describes the binarizer.
func (b *Binarizer) String() string {
	return fmt.Sprintf("Binarizer(threshold=%g)", b.Threshold)
}
