package linear

import (
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/reynoldsm88/doddle-model/pkg/errors"
)

// silenceWarnings swallows convergence warnings so unregularized fits on
// separable data keep the test output clean.
func silenceWarnings(tb testing.TB) {
	tb.Helper()
	errors.SetWarningHandler(func(error) {})
}

// blobs builds a deterministic classification set with nPerClass points
// scattered around each center.
func blobs(rng *rand.Rand, centers [][]float64, labels []int, nPerClass int, spread float64) (*mat.Dense, *mat.Dense) {
	n := nPerClass * len(centers)
	d := len(centers[0])

	X := mat.NewDense(n, d, nil)
	y := mat.NewDense(n, 1, nil)

	row := 0
	for ci, center := range centers {
		for p := 0; p < nPerClass; p++ {
			for j := 0; j < d; j++ {
				X.Set(row, j, center[j]+(rng.Float64()*2-1)*spread)
			}
			y.Set(row, 0, float64(labels[ci]))
			row++
		}
	}

	return X, y
}

func TestNewSoftmaxClassifier(t *testing.T) {
	t.Run("accepts any non-negative lambda", func(t *testing.T) {
		for _, lambda := range []float64{0, 1e-9, 0.5, 10} {
			clf, err := NewSoftmaxClassifier(lambda)
			require.NoError(t, err, "lambda %v", lambda)
			require.NotNil(t, clf)
			assert.False(t, clf.IsFitted())
		}
	})

	t.Run("rejects negative lambda", func(t *testing.T) {
		clf, err := NewSoftmaxClassifier(-0.5)
		require.Error(t, err)
		assert.Nil(t, clf)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "lambda", vErr.ParamName)
	})

	t.Run("rejects non-positive max iterations", func(t *testing.T) {
		_, err := NewSoftmaxClassifier(0, WithSoftmaxMaxIterations(0))
		require.Error(t, err)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "maxIterations", vErr.ParamName)
	})

	t.Run("rejects non-positive tolerance", func(t *testing.T) {
		_, err := NewSoftmaxClassifier(0, WithSoftmaxTol(-1))
		require.Error(t, err)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "tol", vErr.ParamName)
	})
}

func TestSoftmaxSeparableRoundTrip(t *testing.T) {
	silenceWarnings(t)

	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-3, -3}, {3, 3}}, []int{0, 1}, 20, 0.8)

	clf, err := NewSoftmaxClassifier(0)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc, "separable training data must be classified perfectly")
}

func TestSoftmaxThreeClassBlobs(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 15, 1.0)

	clf, err := NewSoftmaxClassifier(0.01)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	assert.Equal(t, []int{0, 1, 2}, clf.Classes())

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)
}

func TestSoftmaxPredictProbaSimplex(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 15, 1.0)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	XTest := randomMatrix(rng, 25, 2)
	XTest.Scale(5, XTest)

	probs, err := clf.PredictProba(XTest)
	require.NoError(t, err)

	n, k := probs.Dims()
	require.Equal(t, 25, n)
	require.Equal(t, 3, k)

	for i := 0; i < n; i++ {
		rowSum := 0.0
		for c := 0; c < k; c++ {
			p := probs.At(i, c)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			rowSum += p
		}
		assert.InDelta(t, 1.0, rowSum, 1e-9, "row %d", i)
	}
}

func TestSoftmaxPredictMatchesArgmax(t *testing.T) {
	rng := rand.New(rand.NewPCG(99, 99))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 15, 1.5)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	XTest := randomMatrix(rng, 40, 2)
	XTest.Scale(6, XTest)

	pred, err := clf.Predict(XTest)
	require.NoError(t, err)
	probs, err := clf.PredictProba(XTest)
	require.NoError(t, err)

	classes := clf.Classes()
	n, k := probs.Dims()
	for i := 0; i < n; i++ {
		best := 0
		for c := 1; c < k; c++ {
			if probs.At(i, c) > probs.At(i, best) {
				best = c
			}
		}
		assert.Equal(t, float64(classes[best]), pred.At(i, 0), "row %d", i)
	}
}

func TestSoftmaxArbitraryIntegerLabels(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{-5, 2, 11}, 12, 1.0)

	clf, err := NewSoftmaxClassifier(0.01)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	assert.Equal(t, []int{-5, 2, 11}, clf.Classes())

	pred, err := clf.Predict(X)
	require.NoError(t, err)

	valid := map[float64]bool{-5: true, 2: true, 11: true}
	n, _ := pred.Dims()
	for i := 0; i < n; i++ {
		assert.True(t, valid[pred.At(i, 0)], "row %d predicted %v", i, pred.At(i, 0))
	}

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)
}

func TestSoftmaxFitValidation(t *testing.T) {
	newClf := func(t *testing.T) *SoftmaxClassifier {
		clf, err := NewSoftmaxClassifier(0.1)
		require.NoError(t, err)
		return clf
	}

	t.Run("empty data", func(t *testing.T) {
		var empty mat.Dense
		err := newClf(t).Fit(&empty, &empty)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("row count mismatch", func(t *testing.T) {
		X := mat.NewDense(4, 2, nil)
		y := mat.NewDense(3, 1, nil)

		err := newClf(t).Fit(X, y)
		require.Error(t, err)

		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 4, dimErr.Expected)
		assert.Equal(t, 3, dimErr.Got)
	})

	t.Run("y not a column vector", func(t *testing.T) {
		X := mat.NewDense(4, 2, nil)
		y := mat.NewDense(4, 2, nil)

		err := newClf(t).Fit(X, y)
		require.Error(t, err)

		var valErr *errors.ValueError
		require.True(t, errors.As(err, &valErr))
	})

	t.Run("single class", func(t *testing.T) {
		X := mat.NewDense(4, 2, []float64{0, 1, 1, 0, 0.5, 0.5, 1, 1})
		y := mat.NewDense(4, 1, []float64{3, 3, 3, 3})

		err := newClf(t).Fit(X, y)
		require.Error(t, err)

		var valErr *errors.ValueError
		require.True(t, errors.As(err, &valErr))
		assert.Contains(t, err.Error(), "at least 2 classes")
	})

	t.Run("non-integer labels", func(t *testing.T) {
		X := mat.NewDense(2, 1, []float64{0, 1})
		y := mat.NewDense(2, 1, []float64{0, 0.5})

		err := newClf(t).Fit(X, y)
		require.Error(t, err)

		var valErr *errors.ValueError
		require.True(t, errors.As(err, &valErr))
	})
}

func TestSoftmaxNotFittedErrors(t *testing.T) {
	clf, err := NewSoftmaxClassifier(0)
	require.NoError(t, err)

	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	y := mat.NewDense(2, 1, []float64{0, 1})

	var nfErr *errors.NotFittedError

	_, perr := clf.Predict(X)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))
	assert.Equal(t, "SoftmaxClassifier", nfErr.ModelName)

	_, perr = clf.PredictProba(X)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))

	_, perr = clf.Score(X, y)
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))

	perr = clf.Save(filepath.Join(t.TempDir(), "unfitted.json"))
	require.Error(t, perr)
	require.True(t, errors.As(perr, &nfErr))
}

func TestSoftmaxPredictDimensionMismatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	X, y := blobs(rng, [][]float64{{-3, 0}, {3, 0}}, []int{0, 1}, 10, 0.5)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	_, perr := clf.PredictProba(mat.NewDense(2, 3, nil))
	require.Error(t, perr)

	var dimErr *errors.DimensionError
	require.True(t, errors.As(perr, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestSoftmaxLossHistory(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 12))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 15, 1.0)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	history := clf.LossHistory()
	require.NotEmpty(t, history)
	assert.LessOrEqual(t, history[len(history)-1], history[0],
		"loss must not grow over the course of training")
	assert.GreaterOrEqual(t, clf.Iterations(), 1)

	// The returned history is a copy.
	history[0] = -1
	assert.NotEqual(t, -1.0, clf.LossHistory()[0])
}

func TestSoftmaxSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 21))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 12, 1.0)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	path := filepath.Join(t.TempDir(), "softmax.json")
	require.NoError(t, clf.Save(path))

	loaded, err := NewSoftmaxClassifier(0)
	require.NoError(t, err)
	require.NoError(t, loaded.Load(path))

	assert.True(t, loaded.IsFitted())
	assert.Equal(t, clf.Classes(), loaded.Classes())
	assert.Equal(t, clf.GetParams()["lambda"], loaded.GetParams()["lambda"])

	want, err := clf.PredictProba(X)
	require.NoError(t, err)
	got, err := loaded.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-15), "probabilities must survive the round trip")
}

func TestSoftmaxLoadRejectsWrongModelType(t *testing.T) {
	rng := rand.New(rand.NewPCG(31, 31))
	X := randomMatrix(rng, 10, 2)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		y.Set(i, 0, X.At(i, 0)+2*X.At(i, 1))
	}

	lr, err := NewLinearRegression(0)
	require.NoError(t, err)
	require.NoError(t, lr.Fit(X, y))

	path := filepath.Join(t.TempDir(), "regression.json")
	require.NoError(t, lr.Save(path))

	clf, err := NewSoftmaxClassifier(0)
	require.NoError(t, err)

	lerr := clf.Load(path)
	require.Error(t, lerr)

	var valErr *errors.ValueError
	require.True(t, errors.As(lerr, &valErr))
}

func TestSoftmaxConcurrentPredict(t *testing.T) {
	rng := rand.New(rand.NewPCG(51, 51))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 15, 1.0)

	clf, err := NewSoftmaxClassifier(0.1)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	want, err := clf.Predict(X)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				pred, err := clf.Predict(X)
				if err != nil {
					errCh <- err
					return
				}
				if !mat.Equal(want, pred) {
					errCh <- errors.New("concurrent prediction diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatal(err)
	}
}

func BenchmarkSoftmaxFit(b *testing.B) {
	silenceWarnings(b)

	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 100, 1.0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clf, err := NewSoftmaxClassifier(0.1)
		if err != nil {
			b.Fatal(err)
		}
		if err := clf.Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSoftmaxPredictProba(b *testing.B) {
	silenceWarnings(b)

	rng := rand.New(rand.NewPCG(42, 42))
	X, y := blobs(rng, [][]float64{{-4, 0}, {4, 0}, {0, 5}}, []int{0, 1, 2}, 100, 1.0)

	clf, err := NewSoftmaxClassifier(0.1)
	if err != nil {
		b.Fatal(err)
	}
	if err := clf.Fit(X, y); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := clf.PredictProba(X); err != nil {
			b.Fatal(err)
		}
	}
}
