// Package mlerr holds the error kinds shared by the distance and neighbors
// packages. Every error returned by this module wraps exactly one of the
// sentinels below, so callers classify failures with errors.Is.
package mlerr

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration reports an unsupported or invalid setting: an unknown
	// metric or algorithm, non-uniform weights, k <= 0, or k larger than the
	// training set.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrDimensionMismatch reports disagreeing sample or feature counts.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrShape reports an array whose rank or layout is not a samples x features matrix.
	ErrShape = errors.New("invalid shape")
	// ErrState reports an operation that requires a fitted model.
	ErrState = errors.New("model is not fitted")
)

// Configurationf wraps ErrConfiguration with a formatted message.
func Configurationf(format string, args ...any) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// DimensionMismatchf wraps ErrDimensionMismatch with a formatted message.
func DimensionMismatchf(format string, args ...any) error {
	return errors.Wrapf(ErrDimensionMismatch, format, args...)
}

// Shapef wraps ErrShape with a formatted message.
func Shapef(format string, args ...any) error {
	return errors.Wrapf(ErrShape, format, args...)
}

// Statef wraps ErrState with a formatted message.
func Statef(format string, args ...any) error {
	return errors.Wrapf(ErrState, format, args...)
}
