package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/window"
)

// minPlanSize is the smallest power-of-two length handed to algo-fft.
// Shorter transforms go through gonum.
const minPlanSize = 16

// FromTimeSignal computes the one-sided spectrum of x sampled at times t.
// The grid must be uniform within core.DefaultStepTolerance. No window and
// no detrending are applied; use an Analyzer for that.
func FromTimeSignal(t, x []float64) (*Spectrum, error) {
	series, err := signal.NewSeries(t, x, core.DefaultStepTolerance)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	return fromSamples(series.Values(), series.Step(), nil)
}

// FromSeries computes the one-sided spectrum of a validated series.
func FromSeries(s signal.Series) (*Spectrum, error) {
	return fromSamples(s.Values(), s.Step(), nil)
}

// fromSamples transforms x (already validated) with optional window
// coefficients applied in place. Amplitudes are X_k/n, doubled in power
// for every bin except DC and the Nyquist bin, then divided by the RMS of
// the window so that the bin powers add up to the mean square of x.
func fromSamples(x []float64, dt float64, coeffs []float64) (*Spectrum, error) {
	n := len(x)
	if n < 2 || !(dt > 0) {
		return nil, fmt.Errorf("spectrum: need at least 2 samples and a positive step, got %d and %v: %w", n, dt, core.ErrDomain)
	}

	gain := 1.0
	if coeffs != nil {
		if err := window.ApplyCoefficientsInPlace(x, coeffs); err != nil {
			return nil, fmt.Errorf("spectrum: %d window coefficients for %d samples: %w", len(coeffs), n, err)
		}
		ms := window.PowerGain(coeffs)
		if ms <= 0 {
			return nil, fmt.Errorf("spectrum: window of length %d has no energy: %w", n, core.ErrDomain)
		}
		gain = math.Sqrt(ms)
	}

	bins, err := realDFT(x)
	if err != nil {
		return nil, err
	}

	omega := make([]float64, len(bins))
	dOmega := 2 * math.Pi / (float64(n) * dt)
	scale := 1 / (float64(n) * gain)
	for k := range bins {
		omega[k] = float64(k) * dOmega
		f := scale
		if k != 0 && !(n%2 == 0 && k == n/2) {
			f *= math.Sqrt2
		}
		bins[k] *= complex(f, 0)
	}

	return &Spectrum{omega: omega, amplitude: bins, phase: Phase(bins)}, nil
}

// realDFT returns bins 0..n/2 of the unnormalised forward DFT of x.
func realDFT(x []float64) ([]complex128, error) {
	n := len(x)
	half := n/2 + 1

	if n >= minPlanSize && isPowerOfTwo(n) {
		plan, err := algofft.NewPlan64(n)
		if err != nil {
			return nil, fmt.Errorf("spectrum: fft plan for %d samples: %w", n, err)
		}

		in := make([]complex128, n)
		for i, v := range x {
			in[i] = complex(v, 0)
		}

		out := make([]complex128, n)
		if err := plan.Forward(out, in); err != nil {
			return nil, fmt.Errorf("spectrum: fft: %w", err)
		}

		bins := make([]complex128, half)
		copy(bins, out[:half])
		return bins, nil
	}

	return fourier.NewFFT(n).Coefficients(nil, x), nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
