package core

// SamplingConfig defines how uniformly sampled series are produced and
// validated.
type SamplingConfig struct {
	SampleRate float64
	// StepTolerance is the relative deviation allowed between any time step
	// and the mean step before a grid is rejected as non-uniform.
	StepTolerance float64
}

// SamplingOption mutates a SamplingConfig.
type SamplingOption func(*SamplingConfig)

// DefaultStepTolerance is the relative step tolerance used when none is
// configured.
const DefaultStepTolerance = 1e-9

// DefaultSamplingConfig returns the defaults used for vibration captures
// (1 kHz, the rate of the reference pump recordings).
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SampleRate:    1000,
		StepTolerance: DefaultStepTolerance,
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) SamplingOption {
	return func(cfg *SamplingConfig) {
		if sampleRate > 0 && IsFinite(sampleRate) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithStepTolerance sets the relative time-step tolerance.
func WithStepTolerance(tol float64) SamplingOption {
	return func(cfg *SamplingConfig) {
		if tol > 0 && IsFinite(tol) {
			cfg.StepTolerance = tol
		}
	}
}

// ApplySamplingOptions applies zero or more options to the default config.
func ApplySamplingOptions(opts ...SamplingOption) SamplingConfig {
	cfg := DefaultSamplingConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
