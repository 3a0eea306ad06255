// Package store holds the fitted state of a neighbors model: a private copy
// of the training samples and their labels.
package store

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/mlerr"
)

// TrainingSet uses a SoA (Structure of Arrays) layout for cache-friendly
// scans. Sample i's features live at data[i*dim : (i+1)*dim] in one
// contiguous allocation, and its label at labels[i].
//
// A TrainingSet is immutable once built and safe for concurrent reads.
type TrainingSet[L comparable] struct {
	data    []float64
	labels  []L
	dim     int
	matrix  *mat.Dense
	classes []L
	maxNorm float64
}

// NewTrainingSet copies x and y into a new TrainingSet. Later changes to the
// caller's matrix or label slice do not reach the set.
func NewTrainingSet[L comparable](x mat.Matrix, y []L) (*TrainingSet[L], error) {
	if x == nil {
		return nil, mlerr.Shapef("nil training matrix")
	}
	n, dim := x.Dims()
	if n == 0 || dim == 0 {
		return nil, mlerr.Shapef("empty %dx%d training matrix", n, dim)
	}
	if n != len(y) {
		return nil, mlerr.DimensionMismatchf("%d samples but %d labels", n, len(y))
	}

	ts := &TrainingSet[L]{
		data:   make([]float64, n*dim),
		labels: make([]L, n),
		dim:    dim,
	}
	for i := 0; i < n; i++ {
		row := ts.data[i*dim : (i+1)*dim]
		for j := range row {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, mlerr.Shapef("non-finite value %v at sample %d, feature %d", v, i, j)
			}
			row[j] = v
		}
		ts.maxNorm = max(ts.maxNorm, floats.Dot(row, row))
	}
	copy(ts.labels, y)
	ts.matrix = mat.NewDense(n, dim, ts.data)

	seen := make(map[L]struct{})
	for _, l := range ts.labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			ts.classes = append(ts.classes, l)
		}
	}
	return ts, nil
}

// Len returns the number of samples.
func (s *TrainingSet[L]) Len() int {
	return len(s.labels)
}

// Dim returns the number of features per sample.
func (s *TrainingSet[L]) Dim() int {
	return s.dim
}

// Row returns sample i's features. The slice aliases the set and must not be
// modified.
func (s *TrainingSet[L]) Row(i int) []float64 {
	return s.data[i*s.dim : (i+1)*s.dim]
}

// Label returns sample i's label.
func (s *TrainingSet[L]) Label(i int) L {
	return s.labels[i]
}

// Labels returns a copy of all labels in sample order.
func (s *TrainingSet[L]) Labels() []L {
	return append([]L(nil), s.labels...)
}

// Matrix returns the samples as a read-only matrix view over the contiguous
// storage.
func (s *TrainingSet[L]) Matrix() mat.Matrix {
	return s.matrix
}

// MaxSquaredNorm returns the largest squared L2 norm among the samples.
func (s *TrainingSet[L]) MaxSquaredNorm() float64 {
	return s.maxNorm
}

// Classes returns the distinct labels in order of first appearance.
func (s *TrainingSet[L]) Classes() []L {
	return append([]L(nil), s.classes...)
}

// CheckFinite returns an ErrShape error if x holds a NaN or infinite value.
func CheckFinite(x mat.Matrix) error {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return mlerr.Shapef("non-finite value %v at row %d, column %d", v, i, j)
			}
		}
	}
	return nil
}
