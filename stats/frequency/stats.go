// Package frequency computes shape descriptors of power spectra: centroid,
// spread, flatness, roll-off, half-power bandwidth and entropy. All
// frequencies are angular (rad/s), like the spectra they are computed from.
package frequency

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// DefaultRolloff is the power fraction used for the roll-off frequency.
const DefaultRolloff = 0.85

// Descriptors summarises the shape of one spectrum.
type Descriptors struct {
	Bins       int
	Resolution float64
	TotalPower float64

	PeakOmega float64
	PeakPower float64

	Centroid float64 // power-weighted mean frequency
	Spread   float64 // power-weighted standard deviation around Centroid

	// Flatness is the geometric over the arithmetic mean of the bin powers
	// without DC: 1 for a flat spectrum, 0 when any bin is empty.
	Flatness float64

	// Rolloff is the lowest bin frequency below which the configured
	// fraction of the total power lies.
	Rolloff float64

	// Bandwidth is the width of the half-power (-3 dB) interval around the
	// peak, interpolated between bins.
	Bandwidth float64

	Entropy float64
}

// Option configures Calculate.
type Option func(*config)

type config struct {
	rolloff   float64
	excludeDC bool
}

// WithRolloff sets the power fraction for Descriptors.Rolloff.
func WithRolloff(fraction float64) Option {
	return func(c *config) { c.rolloff = fraction }
}

// WithExcludeDC leaves the DC bin out of the entropy.
func WithExcludeDC(exclude bool) Option {
	return func(c *config) { c.excludeDC = exclude }
}

// Calculate returns the descriptors of s. A spectrum without power yields
// zero shape descriptors.
func Calculate(s *spectrum.Spectrum, opts ...Option) (Descriptors, error) {
	cfg := config{rolloff: DefaultRolloff}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if s == nil {
		return Descriptors{}, fmt.Errorf("frequency: nil spectrum: %w", core.ErrDomain)
	}
	if !(cfg.rolloff > 0 && cfg.rolloff <= 1) {
		return Descriptors{}, fmt.Errorf("frequency: roll-off fraction %v outside (0, 1]: %w", cfg.rolloff, core.ErrDomain)
	}

	omega := s.Omega()
	power := s.Power()

	d := Descriptors{
		Bins:       len(power),
		Resolution: s.Resolution(),
		Entropy:    s.Entropy(cfg.excludeDC),
	}
	d.PeakOmega, d.PeakPower = s.Peak()
	for _, p := range power {
		d.TotalPower += p
	}
	if d.TotalPower <= 0 {
		return d, nil
	}

	d.Centroid, d.Spread = moments(omega, power, d.TotalPower)
	d.Flatness = flatness(omega, power)
	d.Rolloff = rolloff(omega, power, cfg.rolloff*d.TotalPower)
	d.Bandwidth = bandwidth(omega, power)
	return d, nil
}

func moments(omega, power []float64, total float64) (centroid, spread float64) {
	for i, p := range power {
		centroid += omega[i] * p
	}
	centroid /= total

	for i, p := range power {
		diff := omega[i] - centroid
		spread += diff * diff * p
	}
	return centroid, math.Sqrt(spread / total)
}

func flatness(omega, power []float64) float64 {
	if len(power) > 0 && omega[0] == 0 {
		power = power[1:]
	}
	if len(power) == 0 {
		return 0
	}

	var sumLin, sumLog float64
	for _, p := range power {
		if p <= 0 {
			return 0
		}
		sumLin += p
		sumLog += math.Log(p)
	}
	n := float64(len(power))
	return math.Exp(sumLog/n) / (sumLin / n)
}

func rolloff(omega, power []float64, threshold float64) float64 {
	cum := 0.0
	for i, p := range power {
		cum += p
		if cum >= threshold {
			return omega[i]
		}
	}
	return omega[len(omega)-1]
}

func bandwidth(omega, power []float64) float64 {
	peak := 0
	for i, p := range power {
		if p > power[peak] {
			peak = i
		}
	}
	half := power[peak] / 2

	lower := omega[0]
	for i := peak; i >= 1; i-- {
		if power[i-1] <= half && power[i] > half {
			lower = crossing(omega[i-1], omega[i], power[i-1], power[i], half)
			break
		}
	}

	upper := omega[len(omega)-1]
	for i := peak; i < len(power)-1; i++ {
		if power[i+1] <= half && power[i] > half {
			upper = crossing(omega[i], omega[i+1], power[i], power[i+1], half)
			break
		}
	}

	return math.Max(upper-lower, 0)
}

// crossing interpolates the frequency at which power passes level between
// two neighbouring bins.
func crossing(w0, w1, p0, p1, level float64) float64 {
	if p1 == p0 {
		return (w0 + w1) / 2
	}
	return w0 + (level-p0)/(p1-p0)*(w1-w0)
}
