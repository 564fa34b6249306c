package health

import (
	"fmt"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/spectrum"
	"github.com/cwbudde/algo-health/dsp/window"
)

// NormalizationUnitSum tags distances computed on per-bin power (not
// density) scaled to unit sum, with band powers integrated as density by
// the trapezoidal rule and entropy taken with the natural logarithm.
const NormalizationUnitSum = "unit-sum-power/v1"

// Convention records how recordings are turned into spectra and features.
// It is stored with a profile so that scoring repeats exactly what training
// did.
type Convention struct {
	Window        string `json:"window" yaml:"window"`
	Detrend       bool   `json:"detrend" yaml:"detrend"`
	ExcludeDC     bool   `json:"exclude_dc" yaml:"exclude_dc"`
	Normalization string `json:"normalization" yaml:"normalization"`
}

// DefaultConvention returns a Hann window with mean removal, DC kept in the
// entropy and unit-sum normalisation.
func DefaultConvention() Convention {
	return Convention{
		Window:        window.TypeHann.String(),
		Detrend:       true,
		Normalization: NormalizationUnitSum,
	}
}

// Validate checks that the window is known and the normalisation tag is
// supported.
func (c Convention) Validate() error {
	if _, err := window.ParseType(c.Window); err != nil {
		return fmt.Errorf("health: convention: %w", err)
	}
	if c.Normalization != NormalizationUnitSum {
		return fmt.Errorf("health: convention: unsupported normalisation %q: %w", c.Normalization, core.ErrDomain)
	}
	return nil
}

// Analyzer returns the spectrum analyzer described by c.
func (c Convention) Analyzer() (*spectrum.Analyzer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t, _ := window.ParseType(c.Window)
	return spectrum.NewAnalyzer(spectrum.WithWindow(t), spectrum.WithDetrend(c.Detrend)), nil
}
