package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/array"
	"kneighbors/pkg/mlerr"
)

// Metric is a distance strategy over feature vectors. Implementations are
// stateless after construction and safe for concurrent use.
type Metric interface {
	// Name identifies the metric, e.g. "euclidean" or "minkowski(p=3)".
	Name() string
	// Distance returns the distance between two vectors of equal length.
	Distance(x, y []float64) float64
	// Pairwise returns the N×N distance matrix between the rows of x.
	Pairwise(x mat.Matrix) (*mat.Dense, error)
	// PairwiseWith returns the N1×N2 distance matrix between the rows of x and y.
	PairwiseWith(x, y mat.Matrix) (*mat.Dense, error)
}

// Approximate is implemented by metrics whose PairwiseWith entries may
// differ from Distance by rounding. PairwiseTolerance bounds that difference
// for a pair of rows with squared norms xx and yy in dim features.
type Approximate interface {
	PairwiseTolerance(xx, yy float64, dim int) float64
}

// epsilon is the float64 machine epsilon.
const epsilon = 0x1p-52

// EuclideanMetric computes L2 distances. The pairwise kernels use the
// expansion ||x-y||² = x·x - 2x·y + y·y so that the cross term is a single
// matrix product.
type EuclideanMetric struct{}

// Name implements Metric.
func (EuclideanMetric) Name() string { return "euclidean" }

// Distance implements Metric.
func (EuclideanMetric) Distance(x, y []float64) float64 { return Euclidean(x, y) }

// Pairwise implements Metric. The result has an exact zero diagonal and is
// exactly symmetric.
func (e EuclideanMetric) Pairwise(x mat.Matrix) (*mat.Dense, error) {
	out, err := e.PairwiseWith(x, x)
	if err != nil {
		return nil, err
	}
	symmetrize(out)
	return out, nil
}

// PairwiseWith implements Metric.
func (EuclideanMetric) PairwiseWith(x, y mat.Matrix) (*mat.Dense, error) {
	n1, n2, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	xd, yd := asDense(x), asDense(y)
	xx, yy := rowSquaredNorms(xd), rowSquaredNorms(yd)

	out := mat.NewDense(n1, n2, nil)
	out.Mul(xd, yd.T())

	raw := out.RawMatrix()
	for i := 0; i < n1; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+n2]
		for j, xy := range row {
			// Cancellation can push the sum slightly below zero.
			d := xx[i] - 2*xy + yy[j]
			if d < 0 {
				d = 0
			}
			row[j] = math.Sqrt(d)
		}
	}
	return out, nil
}

// PairwiseTolerance implements Approximate. The rounding in xx - 2x·y + yy
// is within (dim+2)·eps·2(xx+yy), and |√a - √b| ≤ √|a-b|.
func (EuclideanMetric) PairwiseTolerance(xx, yy float64, dim int) float64 {
	return math.Sqrt(4 * float64(dim+4) * epsilon * (xx + yy))
}

// ManhattanMetric computes L1 (city-block) distances.
type ManhattanMetric struct{}

// Name implements Metric.
func (ManhattanMetric) Name() string { return "manhattan" }

// Distance implements Metric.
func (ManhattanMetric) Distance(x, y []float64) float64 { return Manhattan(x, y) }

// Pairwise implements Metric.
func (m ManhattanMetric) Pairwise(x mat.Matrix) (*mat.Dense, error) {
	return pairwiseSelf(m, x)
}

// PairwiseWith implements Metric.
func (m ManhattanMetric) PairwiseWith(x, y mat.Matrix) (*mat.Dense, error) {
	return pairwiseRows(m, x, y)
}

// MinkowskiMetric computes Lp distances for a fixed p >= 1.
type MinkowskiMetric struct {
	P float64
}

// Name implements Metric.
func (m *MinkowskiMetric) Name() string { return fmt.Sprintf("minkowski(p=%g)", m.P) }

// Distance implements Metric.
func (m *MinkowskiMetric) Distance(x, y []float64) float64 { return Minkowski(x, y, m.P) }

// Pairwise implements Metric.
func (m *MinkowskiMetric) Pairwise(x mat.Matrix) (*mat.Dense, error) {
	return pairwiseSelf(m, x)
}

// PairwiseWith implements Metric.
func (m *MinkowskiMetric) PairwiseWith(x, y mat.Matrix) (*mat.Dense, error) {
	return pairwiseRows(m, x, y)
}

// PairwiseArray computes m.Pairwise over a rank-2 array.
func PairwiseArray[T array.Float](m Metric, x array.Array[T]) (*mat.Dense, error) {
	xm, err := x.Matrix()
	if err != nil {
		return nil, err
	}
	return m.Pairwise(xm)
}

// PairwiseArrays computes m.PairwiseWith over two rank-2 arrays.
func PairwiseArrays[T array.Float](m Metric, x, y array.Array[T]) (*mat.Dense, error) {
	xm, err := x.Matrix()
	if err != nil {
		return nil, err
	}
	ym, err := y.Matrix()
	if err != nil {
		return nil, err
	}
	return m.PairwiseWith(xm, ym)
}

// pairwiseRows fills the distance matrix one vector pair at a time.
func pairwiseRows(m Metric, x, y mat.Matrix) (*mat.Dense, error) {
	n1, n2, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	xd, yd := asDense(x), asDense(y)
	out := mat.NewDense(n1, n2, nil)
	for i := 0; i < n1; i++ {
		xi := xd.RawRowView(i)
		row := out.RawRowView(i)
		for j := range row {
			row[j] = m.Distance(xi, yd.RawRowView(j))
		}
	}
	return out, nil
}

// pairwiseSelf computes the upper triangle only and mirrors it.
func pairwiseSelf(m Metric, x mat.Matrix) (*mat.Dense, error) {
	n, _, err := checkMatrix(x)
	if err != nil {
		return nil, err
	}
	xd := asDense(x)
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		xi := xd.RawRowView(i)
		for j := i + 1; j < n; j++ {
			d := m.Distance(xi, xd.RawRowView(j))
			out.Set(i, j, d)
			out.Set(j, i, d)
		}
	}
	return out, nil
}

// symmetrize zeroes the diagonal of a square matrix and copies the upper
// triangle onto the lower one.
func symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			m.Set(j, i, m.At(i, j))
		}
	}
}

func checkMatrix(x mat.Matrix) (rows, cols int, err error) {
	if x == nil {
		return 0, 0, mlerr.Shapef("nil matrix")
	}
	rows, cols = x.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, mlerr.Shapef("empty %dx%d matrix", rows, cols)
	}
	return rows, cols, nil
}

func checkPair(x, y mat.Matrix) (n1, n2 int, err error) {
	n1, c1, err := checkMatrix(x)
	if err != nil {
		return 0, 0, err
	}
	n2, c2, err := checkMatrix(y)
	if err != nil {
		return 0, 0, err
	}
	if c1 != c2 {
		return 0, 0, mlerr.DimensionMismatchf("x has %d features, y has %d", c1, c2)
	}
	return n1, n2, nil
}

func asDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func rowSquaredNorms(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	norms := make([]float64, r)
	for i := range norms {
		row := m.RawRowView(i)
		norms[i] = Dot(row, row)
	}
	return norms
}
