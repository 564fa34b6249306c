package health

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// Channel is the trained baseline of one measurement channel.
type Channel struct {
	// Spectrum is the full-spectrum reference. Required.
	Spectrum *SpectrumSignature
	// Features is the feature-space reference, nil if the channel was
	// trained without bands.
	Features *FeatureSignature
	// FeatureConfig holds the bands Features was built with.
	FeatureConfig FeatureConfig
	// Range, if set, is the band of interest the spectra were cropped to.
	Range *Band
}

func (c Channel) clone() Channel {
	out := Channel{
		Spectrum:      c.Spectrum,
		Features:      c.Features,
		FeatureConfig: c.FeatureConfig.clone(),
	}
	if c.Range != nil {
		r := *c.Range
		out.Range = &r
	}
	return out
}

func (c Channel) validate(name string) error {
	if name == "" {
		return fmt.Errorf("health: empty channel name: %w", core.ErrDomain)
	}
	if c.Spectrum == nil {
		return fmt.Errorf("health: channel %q has no spectrum signature: %w", name, core.ErrDomain)
	}
	if c.Range != nil {
		if err := c.Range.validate(); err != nil {
			return fmt.Errorf("health: channel %q range: %w", name, err)
		}
	}
	if c.Features != nil {
		if err := c.FeatureConfig.Validate(); err != nil {
			return fmt.Errorf("health: channel %q: %w", name, err)
		}
		if want := len(c.FeatureConfig.Bands) + 1; c.Features.Len() != want {
			return fmt.Errorf("health: channel %q has %d reference features for %d bands: %w",
				name, c.Features.Len(), len(c.FeatureConfig.Bands), core.ErrShapeMismatch)
		}
	}
	return nil
}

// Profile is a set of channel baselines sharing one analysis convention.
// A Profile is immutable and safe for concurrent use.
type Profile struct {
	convention Convention
	analyzer   *spectrum.Analyzer
	channels   map[string]Channel
	names      []string
}

// NewProfile validates conv and every channel and copies channels.
// Signatures are shared, they are immutable themselves.
func NewProfile(conv Convention, channels map[string]Channel) (*Profile, error) {
	analyzer, err := conv.Analyzer()
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("health: profile without channels: %w", core.ErrDomain)
	}

	p := &Profile{
		convention: conv,
		analyzer:   analyzer,
		channels:   make(map[string]Channel, len(channels)),
		names:      make([]string, 0, len(channels)),
	}
	for name, ch := range channels {
		if err := ch.validate(name); err != nil {
			return nil, err
		}
		p.channels[name] = ch.clone()
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)
	return p, nil
}

// Convention returns the analysis convention of the profile.
func (p *Profile) Convention() Convention { return p.convention }

// Names returns the channel names in ascending order.
func (p *Profile) Names() []string { return append([]string(nil), p.names...) }

// Len returns the number of channels.
func (p *Profile) Len() int { return len(p.names) }

// Channel returns the baseline of the named channel.
func (p *Profile) Channel(name string) (Channel, bool) {
	ch, ok := p.channels[name]
	if !ok {
		return Channel{}, false
	}
	return ch.clone(), true
}

// Analyze turns a recording of the named channel into a spectrum the way
// the channel was trained: the profile's window and detrending, then the
// channel's band of interest.
func (p *Profile) Analyze(name string, s signal.Series) (*spectrum.Spectrum, error) {
	ch, ok := p.channels[name]
	if !ok {
		return nil, fmt.Errorf("health: unknown channel %q: %w", name, core.ErrDomain)
	}
	return analyze(p.analyzer, s, ch.Range)
}

func analyze(a *spectrum.Analyzer, s signal.Series, r *Band) (*spectrum.Spectrum, error) {
	spec, err := a.Analyze(s)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return spec, nil
	}
	return spec.Crop(r.Min, r.Max)
}
