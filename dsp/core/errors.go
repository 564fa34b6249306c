package core

import (
	"errors"
	"fmt"
	"math"
)

// Error classes shared by every package of the module. Callers match them
// with errors.Is; packages wrap them with context.
var (
	// ErrDomain reports an argument outside the domain of an operation
	// (empty input, inverted band, non-positive step, ...).
	ErrDomain = errors.New("domain error")

	// ErrNonFinite reports NaN or Inf in an input that must be finite.
	ErrNonFinite = errors.New("non-finite value")

	// ErrShapeMismatch reports operands whose lengths or grids differ.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// IsFinite reports whether v is neither NaN nor Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckFinite returns an ErrNonFinite error naming the first offending
// index of data, or nil if every value is finite.
func CheckFinite(name string, data []float64) error {
	for i, v := range data {
		if !IsFinite(v) {
			return fmt.Errorf("%s[%d] = %v: %w", name, i, v, ErrNonFinite)
		}
	}
	return nil
}
