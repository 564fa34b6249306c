package health

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// Band is an angular frequency interval in rad/s.
type Band struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (b Band) validate() error {
	if !core.IsFinite(b.Min) || !core.IsFinite(b.Max) || b.Min < 0 || b.Min >= b.Max {
		return fmt.Errorf("health: band [%v, %v] must be finite with 0 <= min < max: %w", b.Min, b.Max, core.ErrDomain)
	}
	return nil
}

// FeatureConfig selects the bands of a feature vector and whether the DC
// bin takes part in the entropy.
type FeatureConfig struct {
	Bands     []Band `json:"bands" yaml:"bands"`
	ExcludeDC bool   `json:"exclude_dc" yaml:"exclude_dc"`
}

// Validate checks every band.
func (c FeatureConfig) Validate() error {
	for i, b := range c.Bands {
		if err := b.validate(); err != nil {
			return fmt.Errorf("health: band %d: %w", i, err)
		}
	}
	return nil
}

func (c FeatureConfig) clone() FeatureConfig {
	return FeatureConfig{Bands: append([]Band(nil), c.Bands...), ExcludeDC: c.ExcludeDC}
}

// FeatureVector holds one band power per configured band, in order,
// followed by the spectral entropy.
type FeatureVector []float64

// BandPowers returns the band-power part of v.
func (v FeatureVector) BandPowers() []float64 {
	if len(v) == 0 {
		return nil
	}
	return core.Clone(v[:len(v)-1])
}

// Entropy returns the last element of v, or NaN for an empty vector.
func (v FeatureVector) Entropy() float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[len(v)-1]
}

// ExtractFeatures reduces s to len(cfg.Bands)+1 numbers: the trapezoidal
// band power of every band followed by the Shannon entropy of the unit-sum
// normalised power.
func ExtractFeatures(s *spectrum.Spectrum, cfg FeatureConfig) (FeatureVector, error) {
	if s == nil {
		return nil, fmt.Errorf("health: nil spectrum: %w", core.ErrDomain)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := make(FeatureVector, len(cfg.Bands)+1)
	for i, b := range cfg.Bands {
		p, err := s.BandPower(b.Min, b.Max)
		if err != nil {
			return nil, fmt.Errorf("health: band %d: %w", i, err)
		}
		out[i] = p
	}
	out[len(cfg.Bands)] = s.Entropy(cfg.ExcludeDC)
	return out, nil
}
