package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

func TestBinarizerTransform(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		input     []float64
		want      []float64
	}{
		{
			name:      "zero threshold is strict",
			threshold: 0,
			input:     []float64{-1, 0, 0.5, 2},
			want:      []float64{0, 0, 1, 1},
		},
		{
			name:      "shifted threshold",
			threshold: 2.5,
			input:     []float64{1, 2.5, 2.6, 10},
			want:      []float64{0, 0, 1, 1},
		},
		{
			name:      "negative threshold",
			threshold: -1,
			input:     []float64{-2, -1, -0.5, 0},
			want:      []float64{0, 0, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binarizer := NewBinarizer(tt.threshold)
			result, err := binarizer.Transform(mat.NewDense(2, 2, tt.input))
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}

			want := mat.NewDense(2, 2, tt.want)
			if !mat.Equal(result, want) {
				t.Errorf("Transform() = %v, want %v",
					mat.Formatted(result), mat.Formatted(want))
			}
		})
	}
}

func TestBinarizerNoFitNeeded(t *testing.T) {
	// Transform works on a fresh binarizer; there is no learned state.
	binarizer := NewBinarizer(0)
	result, err := binarizer.Transform(mat.NewDense(1, 2, []float64{-3, 3}))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if result.At(0, 0) != 0 || result.At(0, 1) != 1 {
		t.Errorf("Transform() = %v, want [0 1]", mat.Formatted(result))
	}
}

func TestBinarizerFitTransform(t *testing.T) {
	binarizer := NewBinarizer(1)
	result, err := binarizer.FitTransform(mat.NewDense(2, 1, []float64{0.5, 1.5}))
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	if result.At(0, 0) != 0 || result.At(1, 0) != 1 {
		t.Errorf("FitTransform() = %v, want [0; 1]", mat.Formatted(result))
	}
}

func TestBinarizerEmptyInput(t *testing.T) {
	binarizer := NewBinarizer(0)

	if err := binarizer.Fit(&mat.Dense{}); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Fit() error = %v, want ErrEmptyData", err)
	}
	if _, err := binarizer.Transform(&mat.Dense{}); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Transform() error = %v, want ErrEmptyData", err)
	}
}

func TestBinarizerString(t *testing.T) {
	if got := NewBinarizer(0.5).String(); got != "Binarizer(threshold=0.5)" {
		t.Errorf("String() = %q", got)
	}
}
