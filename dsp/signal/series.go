package signal

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
)

// ErrNonUniformGrid is returned when a time grid is not strictly
// increasing with a constant step.
var ErrNonUniformGrid = fmt.Errorf("non-uniform time grid: %w", core.ErrDomain)

// Series is a uniformly sampled real time series. It owns its samples;
// accessors hand out copies.
type Series struct {
	t    []float64
	x    []float64
	step float64
}

// NewSeries validates the grid t against tol (relative step tolerance; a
// non-positive value selects core.DefaultStepTolerance) and copies t and x.
func NewSeries(t, x []float64, tol float64) (Series, error) {
	if len(t) != len(x) {
		return Series{}, fmt.Errorf("series: length mismatch: t=%d x=%d: %w", len(t), len(x), core.ErrShapeMismatch)
	}
	if err := core.CheckFinite("series x", x); err != nil {
		return Series{}, err
	}
	step, err := ValidateGrid(t, tol)
	if err != nil {
		return Series{}, err
	}
	return Series{t: core.Clone(t), x: core.Clone(x), step: step}, nil
}

// Uniform builds a series starting at t0 with step dt.
func Uniform(x []float64, t0, dt float64) (Series, error) {
	if !core.IsFinite(t0) || !core.IsFinite(dt) || dt <= 0 {
		return Series{}, fmt.Errorf("series: step must be finite and > 0: %v: %w", dt, core.ErrDomain)
	}
	if len(x) < 2 {
		return Series{}, fmt.Errorf("series: need at least 2 samples, got %d: %w", len(x), core.ErrDomain)
	}
	if err := core.CheckFinite("series x", x); err != nil {
		return Series{}, err
	}
	t := make([]float64, len(x))
	for i := range t {
		t[i] = t0 + float64(i)*dt
	}
	return Series{t: t, x: core.Clone(x), step: dt}, nil
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.x) }

// Step returns the mean time step.
func (s Series) Step() float64 { return s.step }

// SampleRate returns 1/Step.
func (s Series) SampleRate() float64 {
	if s.step == 0 {
		return 0
	}
	return 1 / s.step
}

// Duration returns the time spanned by the samples.
func (s Series) Duration() float64 {
	if len(s.t) < 2 {
		return 0
	}
	return s.t[len(s.t)-1] - s.t[0]
}

// Times returns a copy of the time grid.
func (s Series) Times() []float64 { return core.Clone(s.t) }

// Values returns a copy of the samples.
func (s Series) Values() []float64 { return core.Clone(s.x) }

// Concat appends other to s, continuing the time grid of s with its step.
// Both series must share the same step within tol.
func (s Series) Concat(other Series, tol float64) (Series, error) {
	if s.Len() == 0 {
		return other, nil
	}
	if tol <= 0 {
		tol = core.DefaultStepTolerance
	}
	if !core.NearlyEqual(s.step, other.step, tol) {
		return Series{}, fmt.Errorf("series: concat steps differ: %v vs %v: %w", s.step, other.step, ErrNonUniformGrid)
	}
	x := make([]float64, 0, s.Len()+other.Len())
	x = append(x, s.x...)
	x = append(x, other.x...)
	return Uniform(x, s.t[0], s.step)
}

// ValidateGrid checks that t has at least two finite, strictly increasing
// samples whose steps all lie within tol (relative) of the mean step, and
// returns that mean step.
func ValidateGrid(t []float64, tol float64) (float64, error) {
	if len(t) < 2 {
		return 0, fmt.Errorf("series: need at least 2 samples, got %d: %w", len(t), core.ErrDomain)
	}
	if err := core.CheckFinite("series t", t); err != nil {
		return 0, err
	}
	if tol <= 0 {
		tol = core.DefaultStepTolerance
	}

	step := (t[len(t)-1] - t[0]) / float64(len(t)-1)
	if !(step > 0) {
		return 0, fmt.Errorf("series: time must be strictly increasing: %w", ErrNonUniformGrid)
	}

	for i := 1; i < len(t); i++ {
		d := t[i] - t[i-1]
		if d <= 0 {
			return 0, fmt.Errorf("series: time not increasing at index %d: %w", i, ErrNonUniformGrid)
		}
		if math.Abs(d-step) > tol*step {
			return 0, fmt.Errorf("series: step %v at index %d deviates from %v: %w", d, i, step, ErrNonUniformGrid)
		}
	}

	return step, nil
}
