// Package time computes time-domain condition indicators of vibration
// records: level (RMS, peak), shape (crest, shape, impulse and clearance
// factors) and distribution moments (skewness, kurtosis).
package time

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
)

// Indicators holds the condition indicators of one record.
type Indicators struct {
	Samples  int
	Duration float64 // seconds covered by the samples

	Mean       float64
	RMS        float64
	RMSdB      float64 // 20*log10(RMS), -Inf for silence
	StdDev     float64
	Peak       float64 // max |x|
	PeakToPeak float64

	// Shape factors. All are 0 when the record is silent.
	Crest     float64 // Peak / RMS
	Shape     float64 // RMS / mean |x|
	Impulse   float64 // Peak / mean |x|
	Clearance float64 // Peak / (mean sqrt|x|)^2

	Skewness float64
	Kurtosis float64 // fourth standardised moment, 3 for Gaussian noise

	ZeroCrossingRate float64 // sign changes per second
}

// Calculate returns the indicators of s.
func Calculate(s signal.Series) Indicators {
	var a Accumulator
	// A single series always matches the empty accumulator's grid.
	_ = a.Add(s)
	return a.Result()
}

// Accumulator collects indicators over consecutive records sampled with the
// same step, as if they were one record. The zero value is ready to use.
type Accumulator struct {
	n    int
	step float64

	mean, m2, m3, m4 float64

	sumSq, sumAbs, sumSqrtAbs float64
	max, min                  float64
	crossings                 int
	last                      float64
}

// Add appends the samples of s. It fails with core.ErrShapeMismatch when
// the step of s differs from the first record's.
func (a *Accumulator) Add(s signal.Series) error {
	if a.n > 0 && !core.NearlyEqual(a.step, s.Step(), core.DefaultStepTolerance) {
		return fmt.Errorf("stats: step %v does not match accumulated step %v: %w", s.Step(), a.step, core.ErrShapeMismatch)
	}
	if a.n == 0 {
		a.step = s.Step()
	}
	a.update(s.Values())
	return nil
}

func (a *Accumulator) update(x []float64) {
	for _, v := range x {
		if a.n == 0 {
			a.max, a.min = v, v
		} else {
			if v > a.max {
				a.max = v
			}
			if v < a.min {
				a.min = v
			}
			if a.last*v < 0 {
				a.crossings++
			}
		}
		a.last = v

		// Welford update; m4 before m3 before m2.
		prev := float64(a.n)
		a.n++
		ni := float64(a.n)
		delta := v - a.mean
		dn := delta / ni
		dn2 := dn * dn
		term := delta * dn * prev

		a.m4 += term*dn2*(ni*ni-3*ni+3) + 6*dn2*a.m2 - 4*dn*a.m3
		a.m3 += term*dn*(ni-2) - 3*dn*a.m2
		a.m2 += term
		a.mean += dn

		abs := math.Abs(v)
		a.sumSq += v * v
		a.sumAbs += abs
		a.sumSqrtAbs += math.Sqrt(abs)
	}
}

// Len returns the number of accumulated samples.
func (a *Accumulator) Len() int { return a.n }

// Result returns the indicators of everything added so far.
func (a *Accumulator) Result() Indicators {
	if a.n == 0 {
		return Indicators{RMSdB: math.Inf(-1)}
	}

	nf := float64(a.n)
	rms := math.Sqrt(a.sumSq / nf)
	peak := math.Max(math.Abs(a.max), math.Abs(a.min))
	variance := a.m2 / nf

	out := Indicators{
		Samples:    a.n,
		Duration:   nf * a.step,
		Mean:       a.mean,
		RMS:        rms,
		RMSdB:      core.AmplitudeToDB(rms),
		StdDev:     math.Sqrt(variance),
		Peak:       peak,
		PeakToPeak: a.max - a.min,
	}
	if out.Duration > 0 {
		out.ZeroCrossingRate = float64(a.crossings) / out.Duration
	}
	if rms > 0 {
		out.Crest = peak / rms
		meanAbs := a.sumAbs / nf
		out.Shape = rms / meanAbs
		out.Impulse = peak / meanAbs
		root := a.sumSqrtAbs / nf
		out.Clearance = peak / (root * root)
	}
	if variance > 0 {
		out.Skewness = (a.m3 / nf) / (variance * math.Sqrt(variance))
		out.Kurtosis = (a.m4 / nf) / (variance * variance)
	}
	return out
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
