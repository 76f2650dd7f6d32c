package linear

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

func TestNewLogisticRegression(t *testing.T) {
	t.Run("accepts any non-negative lambda", func(t *testing.T) {
		for _, lambda := range []float64{0, 0.01, 3} {
			lr, err := NewLogisticRegression(lambda)
			require.NoError(t, err, "lambda %v", lambda)
			require.NotNil(t, lr)
		}
	})

	t.Run("rejects negative lambda", func(t *testing.T) {
		lr, err := NewLogisticRegression(-2)
		require.Error(t, err)
		assert.Nil(t, lr)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "lambda", vErr.ParamName)
	})

	t.Run("rejects bad options", func(t *testing.T) {
		_, err := NewLogisticRegression(0, WithLogisticMaxIterations(0))
		require.Error(t, err)

		_, err = NewLogisticRegression(0, WithLogisticTol(-0.1))
		require.Error(t, err)
	})
}

func TestLogisticRegressionSeparable(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-3, -1}, {3, 1}}, []int{0, 1}, 25, 0.8)

	lr, err := NewLogisticRegression(0)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	acc, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
	assert.Equal(t, []int{0, 1}, lr.Classes())
}

func TestLogisticRegressionPredictProba(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 6))
	X, y := blobs(rng, [][]float64{{-3, 0}, {3, 0}}, []int{0, 1}, 20, 1.0)

	lr, err := NewLogisticRegression(0.1)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	probs, err := lr.PredictProba(X)
	require.NoError(t, err)

	n, k := probs.Dims()
	require.Equal(t, 40, n)
	require.Equal(t, 2, k)

	for i := 0; i < n; i++ {
		p0, p1 := probs.At(i, 0), probs.At(i, 1)
		assert.InDelta(t, 1.0, p0+p1, 1e-12, "row %d", i)
		assert.GreaterOrEqual(t, p1, 0.0)
		assert.LessOrEqual(t, p1, 1.0)
	}

	// The positive class lives on the right side of the split.
	for i := 0; i < n; i++ {
		if y.At(i, 0) == 1 {
			assert.Greater(t, probs.At(i, 1), 0.5, "row %d", i)
		} else {
			assert.Less(t, probs.At(i, 1), 0.5, "row %d", i)
		}
	}
}

func TestLogisticRegressionPredictMatchesProbaThreshold(t *testing.T) {
	rng := rand.New(rand.NewPCG(14, 14))
	X, y := blobs(rng, [][]float64{{-2, 0}, {2, 0}}, []int{0, 1}, 20, 2.0)

	lr, err := NewLogisticRegression(0.5)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	XTest := randomMatrix(rng, 30, 2)
	XTest.Scale(4, XTest)

	pred, err := lr.Predict(XTest)
	require.NoError(t, err)
	probs, err := lr.PredictProba(XTest)
	require.NoError(t, err)

	classes := lr.Classes()
	for i := 0; i < 30; i++ {
		want := classes[0]
		if probs.At(i, 1) > 0.5 {
			want = classes[1]
		}
		assert.Equal(t, float64(want), pred.At(i, 0), "row %d", i)
	}
}

func TestLogisticRegressionArbitraryLabels(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 23))
	X, y := blobs(rng, [][]float64{{-3, 0}, {3, 0}}, []int{2, 9}, 15, 0.8)

	lr, err := NewLogisticRegression(0.01)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, []int{2, 9}, lr.Classes())

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	n, _ := pred.Dims()
	for i := 0; i < n; i++ {
		v := pred.At(i, 0)
		assert.True(t, v == 2 || v == 9, "row %d predicted %v", i, v)
	}
}

func TestLogisticRegressionClassCountValidation(t *testing.T) {
	lr, err := NewLogisticRegression(0.1)
	require.NoError(t, err)

	t.Run("single class", func(t *testing.T) {
		X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
		y := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

		ferr := lr.Fit(X, y)
		require.Error(t, ferr)

		var valErr *errors.ValueError
		require.True(t, errors.As(ferr, &valErr))
		assert.Contains(t, ferr.Error(), "exactly 2 classes")
	})

	t.Run("three classes", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{1, 2, 3})
		y := mat.NewDense(3, 1, []float64{0, 1, 2})

		ferr := lr.Fit(X, y)
		require.Error(t, ferr)

		var valErr *errors.ValueError
		require.True(t, errors.As(ferr, &valErr))
	})
}

func TestLogisticRegressionNotFittedErrors(t *testing.T) {
	lr, err := NewLogisticRegression(0)
	require.NoError(t, err)

	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	var nfErr *errors.NotFittedError

	_, perr := lr.Predict(X)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))

	_, perr = lr.PredictProba(X)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))
}

func TestLogisticRegressionSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewPCG(35, 35))
	X, y := blobs(rng, [][]float64{{-3, 0}, {3, 0}}, []int{0, 1}, 15, 1.0)

	lr, err := NewLogisticRegression(0.05)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	path := filepath.Join(t.TempDir(), "logistic.json")
	require.NoError(t, lr.Save(path))

	loaded, err := NewLogisticRegression(0)
	require.NoError(t, err)
	require.NoError(t, loaded.Load(path))

	assert.True(t, loaded.IsFitted())
	assert.Equal(t, lr.Classes(), loaded.Classes())

	want, err := lr.PredictProba(X)
	require.NoError(t, err)
	got, err := loaded.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
