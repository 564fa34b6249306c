package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-health/dsp/core"
)

// Tone is one sinusoidal component of a synthetic vibration signal.
type Tone struct {
	FreqHz    float64
	Amplitude float64
	Phase     float64 // radians
}

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.SamplingConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.SamplingOption) *Generator {
	return &Generator{
		cfg:  core.ApplySamplingOptions(opts...),
		seed: 1,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.SamplingOption, opts ...Option) *Generator {
	g := NewGenerator(coreOpts...)
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator sampling configuration.
func (g *Generator) Config() core.SamplingConfig {
	return g.cfg
}

// Seed returns the current noise seed.
func (g *Generator) Seed() int64 { return g.seed }

// SetSeed replaces the noise seed.
func (g *Generator) SetSeed(seed int64) { g.seed = seed }

// Step returns the sample period 1/SampleRate.
func (g *Generator) Step() float64 { return 1 / g.cfg.SampleRate }

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	return g.Tones([]Tone{{FreqHz: freqHz, Amplitude: amplitude}}, samples)
}

// Tones generates the sum of the given sinusoids.
func (g *Generator) Tones(tones []Tone, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("tones samples must be > 0: %d: %w", samples, core.ErrDomain)
	}
	out := make([]float64, samples)
	for _, tone := range tones {
		if tone.FreqHz < 0 || !core.IsFinite(tone.FreqHz) || !core.IsFinite(tone.Amplitude) {
			return nil, fmt.Errorf("tone %v Hz / %v: %w", tone.FreqHz, tone.Amplitude, core.ErrDomain)
		}
		step := 2 * math.Pi * tone.FreqHz / g.cfg.SampleRate
		for i := range out {
			out[i] += tone.Amplitude * math.Sin(step*float64(i)+tone.Phase)
		}
	}
	return out, nil
}

// WhiteNoise generates deterministic uniform noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d: %w", samples, core.ErrDomain)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f: %w", amplitude, core.ErrDomain)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// GaussianNoise generates deterministic zero-mean normal noise with the
// given standard deviation.
func (g *Generator) GaussianNoise(sigma float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d: %w", samples, core.ErrDomain)
	}
	if sigma < 0 || !core.IsFinite(sigma) {
		return nil, fmt.Errorf("noise sigma must be >= 0: %f: %w", sigma, core.ErrDomain)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out, nil
}

// Vibration generates tones plus Gaussian noise as a Series starting at t=0.
func (g *Generator) Vibration(tones []Tone, noiseSigma float64, samples int) (Series, error) {
	x, err := g.Tones(tones, samples)
	if err != nil {
		return Series{}, err
	}
	if noiseSigma > 0 {
		noise, err := g.GaussianNoise(noiseSigma, samples)
		if err != nil {
			return Series{}, err
		}
		for i := range x {
			x[i] += noise[i]
		}
	}
	return Uniform(x, 0, g.Step())
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f: %w", targetPeak, core.ErrDomain)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty: %w", core.ErrDomain)
	}

	maxAbs := 0.0
	for _, v := range data {
		av := math.Abs(v)
		if av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}

// RemoveDC returns data with its mean subtracted.
func RemoveDC(data []float64) []float64 {
	mean := core.Mean(data)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}
