// Package config loads the YAML files that drive training and scoring:
// which CSV columns hold which channel, the reference recordings, the
// analysis convention, bands of interest in Hz and per-channel thresholds.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/window"
	"github.com/cwbudde/algo-health/health"
)

// ErrInvalid is wrapped by every validation error of this package.
var ErrInvalid = errors.New("config: invalid")

// MaxHz is the highest frequency whose angular value is still finite.
const MaxHz = math.MaxFloat64 / (2 * math.Pi)

// rad converts hz to rad/s, saturating at math.MaxFloat64.
func rad(hz float64) float64 {
	return math.Min(2*math.Pi*hz, math.MaxFloat64)
}

// BandHz is a [min, max] frequency band in Hz, written as a two-element
// YAML sequence.
type BandHz []float64

// Rad converts b to angular frequency.
func (b BandHz) Rad() health.Band {
	return health.Band{Min: rad(b[0]), Max: rad(b[1])}
}

func (b BandHz) validate() error {
	if len(b) != 2 {
		return fmt.Errorf("band %v must have exactly two bounds", []float64(b))
	}
	if !core.IsFinite(b[0]) || !core.IsFinite(b[1]) || b[0] < 0 || b[0] >= b[1] {
		return fmt.Errorf("band [%v, %v] Hz must satisfy 0 <= min < max", b[0], b[1])
	}
	if b[1] > MaxHz {
		return fmt.Errorf("band [%v, %v] Hz exceeds %v Hz", b[0], b[1], MaxHz)
	}
	return nil
}

// Channel describes the reference material of one channel.
type Channel struct {
	// Column is the CSV header (or zero-based value-column index) holding
	// the channel. Empty means the channel name.
	Column    string   `yaml:"column,omitempty"`
	Files     []string `yaml:"files"`
	Combine   string   `yaml:"combine,omitempty"`
	FreqMinHz *float64 `yaml:"freq_min_hz,omitempty"`
	FreqMaxHz *float64 `yaml:"freq_max_hz,omitempty"`
	BandsHz   []BandHz `yaml:"bands_hz,omitempty"`
}

// ColumnRef returns the column reference of a channel called name.
func (c Channel) ColumnRef(name string) string {
	if c.Column != "" {
		return c.Column
	}
	return name
}

// Range returns the band of interest in rad/s, or nil if neither bound is
// set. A missing lower bound is 0, a missing upper bound is unbounded.
func (c Channel) Range() *health.Band {
	if c.FreqMinHz == nil && c.FreqMaxHz == nil {
		return nil
	}
	b := health.Band{Max: math.MaxFloat64}
	if c.FreqMinHz != nil {
		b.Min = rad(*c.FreqMinHz)
	}
	if c.FreqMaxHz != nil {
		b.Max = rad(*c.FreqMaxHz)
	}
	return &b
}

// Bands returns the feature bands in rad/s.
func (c Channel) Bands() []health.Band {
	if len(c.BandsHz) == 0 {
		return nil
	}
	out := make([]health.Band, len(c.BandsHz))
	for i, b := range c.BandsHz {
		out[i] = b.Rad()
	}
	return out
}

func (c Channel) validate() error {
	if len(c.Files) == 0 {
		return errors.New("no files")
	}
	if _, err := health.ParseCombineMode(c.Combine); err != nil {
		return err
	}
	for _, f := range []struct {
		key string
		v   *float64
	}{{"freq_min_hz", c.FreqMinHz}, {"freq_max_hz", c.FreqMaxHz}} {
		if f.v != nil && (!core.IsFinite(*f.v) || *f.v > MaxHz) {
			return fmt.Errorf("%s %v must be finite and at most %v Hz", f.key, *f.v, MaxHz)
		}
	}
	lo, hi := 0.0, math.Inf(1)
	if c.FreqMinHz != nil {
		lo = *c.FreqMinHz
	}
	if c.FreqMaxHz != nil {
		hi = *c.FreqMaxHz
	}
	if lo < 0 || lo >= hi {
		return fmt.Errorf("frequency range [%v, %v] Hz is empty", lo, hi)
	}
	for i, b := range c.BandsHz {
		if err := b.validate(); err != nil {
			return fmt.Errorf("bands_hz[%d]: %w", i, err)
		}
	}
	return nil
}

// Training is the content of a training configuration file.
type Training struct {
	Window     string             `yaml:"window,omitempty"`
	Detrend    *bool              `yaml:"detrend,omitempty"`
	ExcludeDC  bool               `yaml:"exclude_dc,omitempty"`
	TimeColumn string             `yaml:"time_column,omitempty"`
	Workers    int                `yaml:"workers,omitempty"`
	Channels   map[string]Channel `yaml:"channels"`

	baseDir string
}

// Convention returns the analysis convention, filling in the defaults of
// health.DefaultConvention for unset fields.
func (t *Training) Convention() health.Convention {
	c := health.DefaultConvention()
	if t.Window != "" {
		c.Window = t.Window
	}
	if t.Detrend != nil {
		c.Detrend = *t.Detrend
	}
	c.ExcludeDC = t.ExcludeDC
	return c
}

// Names returns the channel names in ascending order.
func (t *Training) Names() []string {
	out := make([]string, 0, len(t.Channels))
	for name := range t.Channels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Path resolves a file named in the configuration relative to the
// directory of the configuration file.
func (t *Training) Path(file string) string { return resolve(t.baseDir, file) }

// Validate checks the convention and every channel.
func (t *Training) Validate() error {
	if t.Window != "" {
		if _, err := window.ParseType(t.Window); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if t.Workers < 0 {
		return fmt.Errorf("%w: workers %d < 0", ErrInvalid, t.Workers)
	}
	if len(t.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalid)
	}
	for _, name := range t.Names() {
		if err := t.Channels[name].validate(); err != nil {
			return fmt.Errorf("%w: channel %q: %w", ErrInvalid, name, err)
		}
	}
	return nil
}

// ParseTraining decodes and validates a training configuration. Unknown
// keys are rejected.
func ParseTraining(data []byte) (*Training, error) {
	var t Training
	if err := yaml.UnmarshalStrict(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTraining reads a training configuration file.
func LoadTraining(path string) (*Training, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseTraining(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.baseDir = filepath.Dir(path)
	return t, nil
}

// Metric selects the distance used for scoring.
type Metric string

// Supported metrics.
const (
	MetricSpectrum Metric = "spectrum"
	MetricFeatures Metric = "features"
)

// Scoring is the content of a scoring configuration file.
type Scoring struct {
	Profile    string             `yaml:"profile,omitempty"`
	Input      string             `yaml:"input,omitempty"`
	TimeColumn string             `yaml:"time_column,omitempty"`
	Metric     Metric             `yaml:"metric,omitempty"`
	Title      string             `yaml:"title,omitempty"`
	Workers    int                `yaml:"workers,omitempty"`
	Columns    map[string]string  `yaml:"columns,omitempty"`
	Thresholds map[string]float64 `yaml:"thresholds,omitempty"`

	baseDir string
}

// ColumnRef returns the CSV column of the named channel.
func (s *Scoring) ColumnRef(name string) string {
	if c, ok := s.Columns[name]; ok && c != "" {
		return c
	}
	return name
}

// Path resolves a file named in the configuration relative to the
// directory of the configuration file.
func (s *Scoring) Path(file string) string { return resolve(s.baseDir, file) }

// Validate checks the metric and the thresholds.
func (s *Scoring) Validate() error {
	switch s.Metric {
	case "":
		s.Metric = MetricSpectrum
	case MetricSpectrum, MetricFeatures:
	default:
		return fmt.Errorf("%w: metric %q", ErrInvalid, s.Metric)
	}
	if s.Workers < 0 {
		return fmt.Errorf("%w: workers %d < 0", ErrInvalid, s.Workers)
	}
	return ValidateThresholds(s.Thresholds)
}

// ParseScoring decodes and validates a scoring configuration.
func ParseScoring(data []byte) (*Scoring, error) {
	var s Scoring
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScoring reads a scoring configuration file.
func LoadScoring(path string) (*Scoring, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScoring(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)
	return s, nil
}

// ValidateThresholds requires every threshold to be finite and >= 0.
func ValidateThresholds(th map[string]float64) error {
	for name, v := range th {
		if !core.IsFinite(v) || v < 0 {
			return fmt.Errorf("%w: threshold of %q is %v", ErrInvalid, name, v)
		}
	}
	return nil
}

// LoadThresholds reads a file mapping channel names to maximum distances.
func LoadThresholds(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var th map[string]float64
	if err := yaml.UnmarshalStrict(data, &th); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrInvalid, err)
	}
	if err := ValidateThresholds(th); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return th, nil
}

func resolve(base, file string) string {
	if file == "" || filepath.IsAbs(file) || base == "" {
		return file
	}
	return filepath.Join(base, file)
}
