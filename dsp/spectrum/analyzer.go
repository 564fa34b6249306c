package spectrum

import (
	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/window"
)

// Analyzer turns time series into spectra with a fixed preprocessing
// convention: optional mean removal followed by an optional analysis
// window. Windowed amplitudes are divided by the window's RMS so the bin
// powers still add up to the mean square of the (detrended) signal.
//
// An Analyzer is immutable after construction and safe for concurrent use.
type Analyzer struct {
	window     window.Type
	windowOpts []window.Option
	detrend    bool
	stepTol    float64
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWindow selects the analysis window. The default is rectangular.
func WithWindow(t window.Type, opts ...window.Option) AnalyzerOption {
	return func(a *Analyzer) {
		a.window = t
		a.windowOpts = append([]window.Option(nil), opts...)
	}
}

// WithDetrend enables or disables mean removal before windowing.
func WithDetrend(enabled bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.detrend = enabled
	}
}

// WithStepTolerance sets the relative tolerance for the time-grid check in
// AnalyzeSamples. Non-positive values keep core.DefaultStepTolerance.
func WithStepTolerance(tol float64) AnalyzerOption {
	return func(a *Analyzer) {
		if tol > 0 {
			a.stepTol = tol
		}
	}
}

// NewAnalyzer returns an Analyzer with the given options applied over the
// defaults (rectangular window, no detrending).
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		window:  window.TypeRectangular,
		stepTol: core.DefaultStepTolerance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Window returns the configured analysis window.
func (a *Analyzer) Window() window.Type { return a.window }

// Detrend reports whether the mean is removed before analysis.
func (a *Analyzer) Detrend() bool { return a.detrend }

// Analyze computes the spectrum of s.
func (a *Analyzer) Analyze(s signal.Series) (*Spectrum, error) {
	x := s.Values()
	if a.detrend {
		x = signal.RemoveDC(x)
	}

	var coeffs []float64
	if a.window != window.TypeRectangular {
		coeffs = window.Generate(a.window, len(x), a.windowOpts...)
	}

	return fromSamples(x, s.Step(), coeffs)
}

// AnalyzeSamples validates the grid t and computes the spectrum of x.
func (a *Analyzer) AnalyzeSamples(t, x []float64) (*Spectrum, error) {
	s, err := signal.NewSeries(t, x, a.stepTol)
	if err != nil {
		return nil, err
	}
	return a.Analyze(s)
}
