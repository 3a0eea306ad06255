package distance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/array"
	"kneighbors/pkg/mlerr"
)

func randomDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()*20 - 10
	}
	return mat.NewDense(rows, cols, data)
}

func allMetrics() []Metric {
	return []Metric{EuclideanMetric{}, ManhattanMetric{}, &MinkowskiMetric{P: 3}, &MinkowskiMetric{P: 1.5}}
}

func TestEuclideanPairwiseKnownValues(t *testing.T) {
	x, err := array.FromRows([][]float64{{0, 1, 2}, {3, 4, 5}})
	require.NoError(t, err)

	got, err := PairwiseArray(EuclideanMetric{}, x)
	require.NoError(t, err)

	want := mat.NewDense(2, 2, []float64{0, 5.19615242, 5.19615242, 0})
	assert.True(t, mat.EqualApprox(got, want, 1e-6), "got %v", mat.Formatted(got))
}

func TestEuclideanPairwiseMatchesVectorKernel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := randomDense(13, 9, rng)
	y := randomDense(5, 9, rng)

	got, err := EuclideanMetric{}.PairwiseWith(x, y)
	require.NoError(t, err)

	r, c := got.Dims()
	require.Equal(t, 13, r)
	require.Equal(t, 5, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := Euclidean(x.RawRowView(i), y.RawRowView(j))
			assert.True(t, scalar.EqualWithinAbsOrRel(got.At(i, j), want, 1e-9, 1e-9),
				"(%d,%d): got %v want %v", i, j, got.At(i, j), want)
		}
	}
}

func TestPairwiseSelfIsSymmetricWithZeroDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	x := randomDense(20, 6, rng)

	for _, m := range allMetrics() {
		t.Run(m.Name(), func(t *testing.T) {
			d, err := m.Pairwise(x)
			require.NoError(t, err)
			n, _ := d.Dims()
			require.Equal(t, 20, n)
			for i := 0; i < n; i++ {
				assert.Equal(t, 0.0, d.At(i, i))
				for j := 0; j < n; j++ {
					assert.Equal(t, d.At(i, j), d.At(j, i))
					assert.GreaterOrEqual(t, d.At(i, j), 0.0)
				}
			}
		})
	}
}

func TestDistanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, m := range allMetrics() {
		t.Run(m.Name(), func(t *testing.T) {
			for trial := 0; trial < 50; trial++ {
				x := generateVector(10, rng)
				y := generateVector(10, rng)
				assert.Equal(t, 0.0, m.Distance(x, x))
				assert.InDelta(t, m.Distance(x, y), m.Distance(y, x), 1e-12)
				assert.Greater(t, m.Distance(x, y), 0.0)
			}
		})
	}
}

func TestPairwiseWithAgreesWithDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := randomDense(4, 3, rng)
	y := randomDense(6, 3, rng)

	for _, m := range allMetrics() {
		t.Run(m.Name(), func(t *testing.T) {
			d, err := m.PairwiseWith(x, y)
			require.NoError(t, err)
			for i := 0; i < 4; i++ {
				for j := 0; j < 6; j++ {
					assert.InDelta(t, m.Distance(x.RawRowView(i), y.RawRowView(j)), d.At(i, j), 1e-9)
				}
			}
		})
	}
}

func TestEuclideanClipsCancellation(t *testing.T) {
	// Large, nearly identical rows make x·x - 2x·y + y·y cancel badly.
	x := mat.NewDense(2, 2, []float64{1e8, 1e8 + 1e-7, 1e8, 1e8})
	d, err := EuclideanMetric{}.PairwiseWith(x, x)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.GreaterOrEqual(t, d.At(i, j), 0.0)
		}
	}

	self, err := EuclideanMetric{}.Pairwise(x)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self.At(0, 0))
	assert.Equal(t, 0.0, self.At(1, 1))
}

func TestEuclideanPairwiseWithinTolerance(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	big := mat.NewDense(2, 2, []float64{1e8, 1e8 + 1e-7, 1e8, 1e8})
	for _, x := range []*mat.Dense{randomDense(20, 16, rng), big} {
		d, err := EuclideanMetric{}.PairwiseWith(x, x)
		require.NoError(t, err)
		r, c := x.Dims()
		for i := 0; i < r; i++ {
			xi := x.RawRowView(i)
			for j := 0; j < r; j++ {
				xj := x.RawRowView(j)
				tol := EuclideanMetric{}.PairwiseTolerance(Dot(xi, xi), Dot(xj, xj), c)
				assert.InDelta(t, EuclideanMetric{}.Distance(xi, xj), d.At(i, j), tol)
			}
		}
	}

	var m Metric = ManhattanMetric{}
	_, ok := m.(Approximate)
	assert.False(t, ok)
}

func TestPairwiseErrors(t *testing.T) {
	x := mat.NewDense(2, 3, nil)
	y := mat.NewDense(2, 4, nil)

	for _, m := range allMetrics() {
		_, err := m.PairwiseWith(x, y)
		require.ErrorIs(t, err, mlerr.ErrDimensionMismatch, m.Name())

		_, err = m.Pairwise(nil)
		require.ErrorIs(t, err, mlerr.ErrShape, m.Name())
	}
}

func TestPairwiseArrayRankCheck(t *testing.T) {
	v := array.FromVector([]float64{1, 2, 3})
	_, err := PairwiseArray(EuclideanMetric{}, v)
	require.ErrorIs(t, err, mlerr.ErrShape)

	cube, err := array.New(make([]float64, 8), 2, 2, 2)
	require.NoError(t, err)
	_, err = PairwiseArrays(EuclideanMetric{}, cube, cube)
	require.ErrorIs(t, err, mlerr.ErrShape)
}

func TestPairwiseArraysFloat32(t *testing.T) {
	x, err := array.FromRows([][]float32{{0, 0}, {3, 4}})
	require.NoError(t, err)
	y, err := array.FromRows([][]float32{{0, 0}})
	require.NoError(t, err)

	d, err := PairwiseArrays(EuclideanMetric{}, x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d.At(0, 0), 1e-12)
	assert.InDelta(t, 5.0, d.At(1, 0), 1e-12)
}
