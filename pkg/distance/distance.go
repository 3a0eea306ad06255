// Package distance implements vector distance kernels, the Metric strategies
// built on them, and the registry that resolves a Selector to a Metric.
package distance

import (
	"math"

	"github.com/viterin/vek"
)

// simdMinLen is the shortest vector handed to the vek kernels. Below it the
// call overhead outweighs the vectorised loop.
const simdMinLen = 8

// Dot computes the dot product of two vectors.
// Vectors with len >= 8 go through vek's SIMD kernels.
func Dot(a, b []float64) float64 {
	if len(a) >= simdMinLen {
		return vek.Dot(a, b)
	}
	return DotScalar(a, b)
}

// DotScalar is the pure-Go scalar implementation.
// Exported for benchmarking comparisons.
func DotScalar(a, b []float64) float64 {
	var sum float64
	for i := 0; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredEuclidean computes the squared Euclidean distance between two vectors.
func SquaredEuclidean(a, b []float64) float64 {
	if len(a) >= simdMinLen {
		d := vek.Sub(a, b)
		return vek.Dot(d, d)
	}
	return SquaredEuclideanScalar(a, b)
}

// SquaredEuclideanScalar is the pure-Go scalar implementation.
// Exported for benchmarking comparisons.
func SquaredEuclideanScalar(a, b []float64) float64 {
	var sum float64
	for i := 0; i < len(a); i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// Euclidean computes the Euclidean (L2) distance between two vectors.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}

// Manhattan computes the city-block (L1) distance between two vectors.
func Manhattan(a, b []float64) float64 {
	var sum float64
	for i := 0; i < len(a); i++ {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Minkowski computes (sum |a_i - b_i|^p)^(1/p). p must be >= 1.
func Minkowski(a, b []float64, p float64) float64 {
	switch p {
	case 1:
		return Manhattan(a, b)
	case 2:
		return Euclidean(a, b)
	}
	var sum float64
	for i := 0; i < len(a); i++ {
		sum += math.Pow(math.Abs(a[i]-b[i]), p)
	}
	return math.Pow(sum, 1/p)
}

// Magnitude computes the L2 norm (magnitude) of a vector.
func Magnitude(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}
