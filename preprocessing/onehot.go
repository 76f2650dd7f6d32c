package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/core/model"
	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// OneHotEncoder expands categorical columns into one-hot indicator blocks.
//
// Categorical columns hold non-negative integer category codes stored as
// floats. Fit learns, per encoded column, the block width max(column)+1.
// Transform keeps the columns that are not encoded, in their original order,
// and appends one indicator block per encoded column after them, in the
// order the columns were selected.
type OneHotEncoder struct {
	state *model.StateManager

	// Columns lists the column indices to encode. Empty means all columns.
	Columns []int

	// Widths holds the learned block width per encoded column, parallel to
	// the resolved column selection.
	Widths []int

	columns []int // resolved selection, set by Fit
}

var _ model.Transformer = (*OneHotEncoder)(nil)

// OneHotOption configures an OneHotEncoder.
type OneHotOption func(*OneHotEncoder)

// WithColumns restricts encoding to the given column indices. Blocks are
// appended in the order given here.
func WithColumns(columns ...int) OneHotOption {
	return func(e *OneHotEncoder) {
		e.Columns = append([]int(nil), columns...)
	}
}

// NewOneHotEncoder creates an OneHotEncoder. Without options every column is
// encoded.
func NewOneHotEncoder(opts ...OneHotOption) *OneHotEncoder {
	e := &OneHotEncoder{state: model.NewStateManager()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit learns the category count of each selected column as max(column)+1.
// Every value in a selected column must be a non-negative integer code.
func (e *OneHotEncoder) Fit(X mat.Matrix) error {
	const op = "OneHotEncoder.Fit"

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	columns, err := e.resolveColumns(op, c)
	if err != nil {
		return err
	}

	widths := make([]int, len(columns))
	for k, j := range columns {
		maxCode := 0
		for i := 0; i < r; i++ {
			code, cerr := categoryCode(op, X.At(i, j), i, j)
			if cerr != nil {
				return cerr
			}
			if code > maxCode {
				maxCode = code
			}
		}
		widths[k] = maxCode + 1
	}

	e.columns = columns
	e.Widths = widths
	e.state.SetDimensions(c, r)
	e.state.SetFitted()
	return nil
}

// Transform one-hot encodes the selected columns of X. The result keeps the
// untouched columns first, in their original order, followed by one
// indicator block per encoded column. Codes outside the range learned by Fit
// are rejected.
func (e *OneHotEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	const op = "OneHotEncoder.Transform"

	if !e.state.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	r, c := X.Dims()
	nFeatures, _ := e.state.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}

	encoded := make(map[int]int, len(e.columns)) // column index -> selection position
	for k, j := range e.columns {
		encoded[j] = k
	}

	totalWidth := c - len(e.columns)
	for _, w := range e.Widths {
		totalWidth += w
	}

	result := mat.NewDense(r, totalWidth, nil)

	// Untouched columns keep their relative order at the front.
	out := 0
	for j := 0; j < c; j++ {
		if _, ok := encoded[j]; ok {
			continue
		}
		for i := 0; i < r; i++ {
			result.Set(i, out, X.At(i, j))
		}
		out++
	}

	// Indicator blocks follow, one per encoded column in selection order.
	for k, j := range e.columns {
		width := e.Widths[k]
		for i := 0; i < r; i++ {
			code, cerr := categoryCode(op, X.At(i, j), i, j)
			if cerr != nil {
				return nil, cerr
			}
			if code >= width {
				return nil, errors.NewValueError(op, fmt.Sprintf(
					"category code %d at row %d, column %d outside the learned range [0, %d)",
					code, i, j, width))
			}
			result.Set(i, out+code, 1)
		}
		out += width
	}

	return result, nil
}

// FitTransform fits the encoder on X and returns the encoded X.
func (e *OneHotEncoder) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// EncodedColumns returns the column indices Fit resolved for encoding, in
// block order.
func (e *OneHotEncoder) EncodedColumns() []int {
	out := make([]int, len(e.columns))
	copy(out, e.columns)
	return out
}

// IsFitted returns whether the encoder has been fitted.
func (e *OneHotEncoder) IsFitted() bool {
	return e.state.IsFitted()
}

// GetParams returns the encoder's configuration.
func (e *OneHotEncoder) GetParams() map[string]any {
	return map[string]any{
		"columns": append([]int(nil), e.Columns...),
	}
}

// resolveColumns turns the configured selection into concrete column
// indices, defaulting to all columns.
func (e *OneHotEncoder) resolveColumns(op string, c int) ([]int, error) {
	if len(e.Columns) == 0 {
		columns := make([]int, c)
		for j := range columns {
			columns[j] = j
		}
		return columns, nil
	}

	seen := make(map[int]bool, len(e.Columns))
	columns := make([]int, 0, len(e.Columns))
	for _, j := range e.Columns {
		if j < 0 || j >= c {
			return nil, errors.NewDimensionError(op, c, j, 1)
		}
		if seen[j] {
			return nil, errors.NewValueError(op, fmt.Sprintf("column %d selected twice", j))
		}
		seen[j] = true
		columns = append(columns, j)
	}
	return columns, nil
}

// categoryCode checks that v is a non-negative integer category code and
// returns it as an int.
func categoryCode(op string, v float64, row, col int) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 {
		return 0, errors.NewValueError(op, fmt.Sprintf(
			"value %v at row %d, column %d is not a category code", v, row, col))
	}
	return int(v), nil
}
