package testutil

import (
	"math"
	"testing"
)

// Close reports whether got is within rel*|want| + abs of want. NaN is
// never close.
func Close(got, want, rel, abs float64) bool {
	limit := rel*math.Abs(want) + abs
	return !math.IsNaN(got) && math.Abs(got-want) <= limit
}

// FirstMismatch returns the first index where got and want differ by more
// than eps, len(got) if they differ in length only at the end, or -1 when
// they agree.
func FirstMismatch(got, want []float64, eps float64) int {
	n := min(len(got), len(want))
	for i := range n {
		if !(math.Abs(got[i]-want[i]) <= eps) {
			return i
		}
	}
	if len(got) != len(want) {
		return n
	}
	return -1
}

// RequireClose fails t unless Close(got, want, rel, abs).
func RequireClose(t *testing.T, name string, got, want, rel, abs float64) {
	t.Helper()
	if !Close(got, want, rel, abs) {
		t.Fatalf("%s: got %v, want %v (rel %g, abs %g)", name, got, want, rel, abs)
	}
}

// RequireSliceNearlyEqual fails t if got and want differ in length or any
// pair differs by more than eps.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	if i := FirstMismatch(got, want, eps); i >= 0 {
		t.Fatalf("index %d: got %v, want %v (eps %g)", i, got[i], want[i], eps)
	}
}

// RequireFinite fails t on the first NaN or Inf in data.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
