// Package array provides a small dense N-dimensional container whose shape
// is runtime metadata. It is the boundary type of the module: callers hand
// feature matrices in as Array values, and the numeric work happens on gonum
// matrices obtained through Matrix.
package array

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/mlerr"
)

// Float is the set of element types an Array can hold.
type Float interface {
	~float32 | ~float64
}

// Array is a row-major dense array. The zero value is an empty rank-1 array.
type Array[T Float] struct {
	shape []int
	data  []T
}

// New wraps data with the given shape. The data slice is not copied.
func New[T Float](data []T, shape ...int) (Array[T], error) {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	size := 1
	for _, s := range shape {
		if s < 0 {
			return Array[T]{}, mlerr.Shapef("negative extent in shape %v", shape)
		}
		size *= s
	}
	if size != len(data) {
		return Array[T]{}, mlerr.Shapef("shape %v needs %d elements, got %d", shape, size, len(data))
	}
	return Array[T]{shape: append([]int(nil), shape...), data: data}, nil
}

// FromRows builds a rank-2 array from a slice of equally long rows.
func FromRows[T Float](rows [][]T) (Array[T], error) {
	if len(rows) == 0 {
		return Array[T]{shape: []int{0, 0}}, nil
	}
	cols := len(rows[0])
	data := make([]T, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return Array[T]{}, mlerr.Shapef("row %d has %d features, row 0 has %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return Array[T]{shape: []int{len(rows), cols}, data: data}, nil
}

// FromVector builds a rank-1 array. The slice is not copied.
func FromVector[T Float](v []T) Array[T] {
	return Array[T]{shape: []int{len(v)}, data: v}
}

// FromMatrix copies a gonum matrix into a rank-2 array.
func FromMatrix(m mat.Matrix) Array[float64] {
	r, c := m.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data[i*c+j] = m.At(i, j)
		}
	}
	return Array[float64]{shape: []int{r, c}, data: data}
}

// Shape returns a copy of the array's extents.
func (a Array[T]) Shape() []int {
	if a.shape == nil {
		return []int{0}
	}
	return append([]int(nil), a.shape...)
}

// Rank returns the number of axes.
func (a Array[T]) Rank() int {
	if a.shape == nil {
		return 1
	}
	return len(a.shape)
}

// Len returns the extent of axis 0.
func (a Array[T]) Len() int {
	if len(a.shape) == 0 {
		return len(a.data)
	}
	return a.shape[0]
}

// Size returns the total number of elements.
func (a Array[T]) Size() int {
	return len(a.data)
}

// Data returns the backing slice in row-major order.
func (a Array[T]) Data() []T {
	return a.data
}

// Dims returns rows and columns of a rank-2 array.
func (a Array[T]) Dims() (rows, cols int, err error) {
	if a.Rank() != 2 {
		return 0, 0, mlerr.Shapef("expected a 2-D array, got rank %d", a.Rank())
	}
	return a.shape[0], a.shape[1], nil
}

// At returns the element at the given multi-index. It panics on a bad index,
// like slice indexing does.
func (a Array[T]) At(idx ...int) T {
	if len(idx) != a.Rank() {
		panic("array: index rank mismatch")
	}
	off, stride := 0, 1
	for ax := len(idx) - 1; ax >= 0; ax-- {
		if idx[ax] < 0 || idx[ax] >= a.shape[ax] {
			panic("array: index out of range")
		}
		off += idx[ax] * stride
		stride *= a.shape[ax]
	}
	return a.data[off]
}

// Slice returns rows [from, to) along axis 0 as a view sharing storage.
func (a Array[T]) Slice(from, to int) (Array[T], error) {
	n := a.Len()
	if from < 0 || to > n || from > to {
		return Array[T]{}, mlerr.Shapef("slice [%d:%d] out of range for length %d", from, to, n)
	}
	var rest []int
	if len(a.shape) > 1 {
		rest = a.shape[1:]
	}
	inner := 1
	for _, s := range rest {
		inner *= s
	}
	shape := append([]int{to - from}, rest...)
	return Array[T]{shape: shape, data: a.data[from*inner : to*inner]}, nil
}

// Row returns sub-array i along axis 0 with that axis removed.
func (a Array[T]) Row(i int) (Array[T], error) {
	s, err := a.Slice(i, i+1)
	if err != nil {
		return Array[T]{}, err
	}
	s.shape = s.shape[1:]
	return s, nil
}

// Reshape returns a view with a new shape of the same size.
func (a Array[T]) Reshape(shape ...int) (Array[T], error) {
	return New(a.data, shape...)
}

// Copy returns a deep copy.
func (a Array[T]) Copy() Array[T] {
	return Array[T]{shape: a.Shape(), data: append([]T(nil), a.data...)}
}

// Matrix returns the rank-2 array as a gonum matrix. float64 arrays share
// their storage with the result; other element types are converted.
func (a Array[T]) Matrix() (*mat.Dense, error) {
	r, c, err := a.Dims()
	if err != nil {
		return nil, err
	}
	if r == 0 || c == 0 {
		return nil, mlerr.Shapef("empty %dx%d matrix", r, c)
	}
	if f, ok := any(a.data).([]float64); ok {
		return mat.NewDense(r, c, f), nil
	}
	data := make([]float64, len(a.data))
	for i, v := range a.data {
		data[i] = float64(v)
	}
	return mat.NewDense(r, c, data), nil
}

// EqualApprox reports whether both arrays have the same shape and every pair
// of elements differs by at most tol.
func (a Array[T]) EqualApprox(b Array[T], tol float64) bool {
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	for i := range a.data {
		if math.Abs(float64(a.data[i])-float64(b.data[i])) > tol {
			return false
		}
	}
	return true
}
