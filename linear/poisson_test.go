package linear

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// countData draws Poisson-distributed targets with rate exp(0.5 + 0.8*x).
func countData(rng *rand.Rand, n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := rng.Float64()*4 - 2
		X.Set(i, 0, x)
		y.Set(i, 0, poissonDraw(rng, math.Exp(0.5+0.8*x)))
	}
	return X, y
}

// poissonDraw samples a Poisson variate by inversion (rates here stay small).
func poissonDraw(rng *rand.Rand, rate float64) float64 {
	l := math.Exp(-rate)
	k := 0.0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func TestNewPoissonRegression(t *testing.T) {
	t.Run("accepts non-negative lambda", func(t *testing.T) {
		for _, lambda := range []float64{0, 0.1, 5} {
			pr, err := NewPoissonRegression(lambda)
			require.NoError(t, err, "lambda %v", lambda)
			require.NotNil(t, pr)
		}
	})

	t.Run("rejects negative lambda", func(t *testing.T) {
		pr, err := NewPoissonRegression(-0.01)
		require.Error(t, err)
		assert.Nil(t, pr)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "lambda", vErr.ParamName)
	})

	t.Run("rejects bad options", func(t *testing.T) {
		_, err := NewPoissonRegression(0, WithPoissonMaxIterations(-5))
		require.Error(t, err)

		_, err = NewPoissonRegression(0, WithPoissonTol(0))
		require.Error(t, err)
	})
}

func TestPoissonRegressionRecoversRate(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(11, 11))
	X, y := countData(rng, 400)

	pr, err := NewPoissonRegression(0)
	require.NoError(t, err)
	require.NoError(t, pr.Fit(X, y))

	weights := pr.GetWeights()
	require.Len(t, weights, 1)
	assert.InDelta(t, 0.8, weights[0], 0.15)
	assert.InDelta(t, 0.5, pr.GetIntercept(), 0.15)
}

func TestPoissonRegressionPredictPositive(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(17, 17))
	X, y := countData(rng, 200)

	pr, err := NewPoissonRegression(0.01)
	require.NoError(t, err)
	require.NoError(t, pr.Fit(X, y))

	XTest := mat.NewDense(5, 1, []float64{-2, -1, 0, 1, 2})
	pred, err := pr.Predict(XTest)
	require.NoError(t, err)

	prev := 0.0
	for i := 0; i < 5; i++ {
		v := pred.At(i, 0)
		assert.Greater(t, v, 0.0, "row %d", i)
		assert.Greater(t, v, prev, "rate should rise with x")
		prev = v
	}
}

func TestPoissonRegressionScore(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(29, 29))
	X, y := countData(rng, 300)

	pr, err := NewPoissonRegression(0)
	require.NoError(t, err)
	require.NoError(t, pr.Fit(X, y))

	r2, err := pr.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.3)
	assert.LessOrEqual(t, r2, 1.0)
}

func TestPoissonRegressionTargetValidation(t *testing.T) {
	pr, err := NewPoissonRegression(0.1)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	cases := []struct {
		name    string
		targets []float64
	}{
		{"negative count", []float64{1, -2, 3}},
		{"fractional count", []float64{1, 2.5, 3}},
		{"NaN count", []float64{1, math.NaN(), 3}},
		{"Inf count", []float64{1, math.Inf(1), 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			y := mat.NewDense(3, 1, tc.targets)
			ferr := pr.Fit(X, y)
			require.Error(t, ferr)

			var valErr *errors.ValueError
			require.True(t, errors.As(ferr, &valErr))
		})
	}
}

func TestPoissonRegressionNotFittedErrors(t *testing.T) {
	pr, err := NewPoissonRegression(0)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{1, 2})

	var nfErr *errors.NotFittedError

	_, perr := pr.Predict(X)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))
	assert.Equal(t, "PoissonRegression", nfErr.ModelName)
}

func TestPoissonRegressionSaveLoad(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(53, 53))
	X, y := countData(rng, 150)

	pr, err := NewPoissonRegression(0.02)
	require.NoError(t, err)
	require.NoError(t, pr.Fit(X, y))

	path := filepath.Join(t.TempDir(), "poisson.json")
	require.NoError(t, pr.Save(path))

	loaded, err := NewPoissonRegression(0)
	require.NoError(t, err)
	require.NoError(t, loaded.Load(path))

	assert.True(t, loaded.IsFitted())
	assert.Equal(t, pr.GetWeights(), loaded.GetWeights())
	assert.Equal(t, pr.GetIntercept(), loaded.GetIntercept())

	want, err := pr.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
