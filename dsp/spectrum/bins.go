package spectrum

import (
	"fmt"
	"math/cmplx"
	"sort"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-health/dsp/core"
)

// planes is pooled scratch holding the real and imaginary parts of a bin
// slice side by side.
type planes struct {
	data []float64
}

var planePool = sync.Pool{
	New: func() any { return new(planes) },
}

// withPlanes splits in into real and imaginary planes and calls fn with
// them. The planes are only valid during fn.
func withPlanes(in []complex128, fn func(re, im []float64)) {
	p := planePool.Get().(*planes)
	n := len(in)
	if cap(p.data) < 2*n {
		p.data = make([]float64, 2*n)
	}
	re, im := p.data[:n], p.data[n:2*n]
	for i, c := range in {
		re[i], im[i] = real(c), imag(c)
	}
	fn(re, im)
	planePool.Put(p)
}

// Magnitude returns |a_k| for every bin. Apart from the result it does not
// allocate in steady state.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	withPlanes(in, func(re, im []float64) { vecmath.Magnitude(out, re, im) })
	return out
}

// Power returns |a_k|^2 for every bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	withPlanes(in, func(re, im []float64) { vecmath.Power(out, re, im) })
	return out
}

// Phase returns arg(a_k) in radians for every bin.
func Phase(in []complex128) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// interpolate evaluates the piecewise-linear function through (x, y) at
// every query. Queries outside [x[0], x[last]] get outside. x must be
// strictly increasing with at least two points.
func interpolate(x, y, query []float64, outside float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("spectrum: interpolate %d abscissae with %d values: %w", len(x), len(y), core.ErrShapeMismatch)
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("spectrum: interpolate needs 2 points, got %d: %w", len(x), core.ErrDomain)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return nil, fmt.Errorf("spectrum: interpolate abscissae not increasing at %d: %w", i, core.ErrDomain)
		}
	}

	last := len(x) - 1
	out := make([]float64, len(query))
	for i, q := range query {
		switch {
		case q < x[0] || q > x[last]:
			out[i] = outside
		case q == x[last]:
			out[i] = y[last]
		default:
			j := sort.SearchFloat64s(x, q)
			if x[j] == q {
				out[i] = y[j]
				continue
			}
			t := (q - x[j-1]) / (x[j] - x[j-1])
			out[i] = y[j-1] + t*(y[j]-y[j-1])
		}
	}
	return out, nil
}
