package core

import "math"

// defaultEpsilon is used by NearlyEqual when no positive tolerance is given.
const defaultEpsilon = 1e-12

// Clamp limits v to [lo, hi]. Swapped bounds are reordered.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// NearlyEqual reports whether a and b agree within eps. The comparison is
// absolute while both values are small and relative to the larger
// magnitude otherwise, which is how time steps and frequency grids are
// matched.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}
	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}
	return diff <= eps*math.Max(math.Abs(a), math.Abs(b))
}

// Mean returns the arithmetic mean of data, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// AmplitudeToDB converts an RMS or peak amplitude to decibels (20*log10).
// Zero maps to -Inf and negative values to NaN.
func AmplitudeToDB(a float64) float64 {
	switch {
	case a < 0 || math.IsNaN(a):
		return math.NaN()
	case a == 0:
		return math.Inf(-1)
	}
	return 20 * math.Log10(a)
}
