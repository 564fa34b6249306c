package health

import (
	"fmt"

	"github.com/cwbudde/algo-health/dsp/core"
)

// SnapshotVersion is the layout version written by Profile.Snapshot.
const SnapshotVersion = 1

// Snapshot is the plain-data form of a profile used for persistence. Every
// float is stored as is, so a profile restored with FromSnapshot scores
// identically to the one that was saved.
type Snapshot struct {
	Version    int               `json:"version"`
	Convention Convention        `json:"convention"`
	Channels   []ChannelSnapshot `json:"channels"`
}

// ChannelSnapshot is the plain-data form of one channel.
type ChannelSnapshot struct {
	Name  string    `json:"name"`
	Omega []float64 `json:"omega"`
	Power []float64 `json:"power"`
	Range *Band     `json:"range,omitempty"`

	Features  []float64 `json:"features,omitempty"`
	Bands     []Band    `json:"bands,omitempty"`
	ExcludeDC bool      `json:"exclude_dc,omitempty"`
}

// Snapshot returns a deep copy of p as plain data, channels sorted by name.
func (p *Profile) Snapshot() Snapshot {
	out := Snapshot{
		Version:    SnapshotVersion,
		Convention: p.convention,
		Channels:   make([]ChannelSnapshot, 0, len(p.names)),
	}
	for _, name := range p.names {
		ch := p.channels[name].clone()
		cs := ChannelSnapshot{
			Name:  name,
			Omega: ch.Spectrum.Omega(),
			Power: ch.Spectrum.Power(),
			Range: ch.Range,
		}
		if ch.Features != nil {
			cs.Features = ch.Features.Reference()
			cs.Bands = ch.FeatureConfig.Bands
			cs.ExcludeDC = ch.FeatureConfig.ExcludeDC
		}
		out.Channels = append(out.Channels, cs)
	}
	return out
}

// FromSnapshot rebuilds a profile from s.
func FromSnapshot(s Snapshot) (*Profile, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("health: snapshot version %d, want %d: %w", s.Version, SnapshotVersion, core.ErrDomain)
	}

	channels := make(map[string]Channel, len(s.Channels))
	for _, cs := range s.Channels {
		if _, dup := channels[cs.Name]; dup {
			return nil, fmt.Errorf("health: snapshot lists channel %q twice: %w", cs.Name, core.ErrDomain)
		}

		sig, err := RestoreSpectrumSignature(cs.Omega, cs.Power)
		if err != nil {
			return nil, fmt.Errorf("health: channel %q: %w", cs.Name, err)
		}
		ch := Channel{Spectrum: sig, Range: cs.Range}

		if len(cs.Features) > 0 {
			if ch.Features, err = NewFeatureSignature(cs.Features); err != nil {
				return nil, fmt.Errorf("health: channel %q: %w", cs.Name, err)
			}
			ch.FeatureConfig = FeatureConfig{Bands: cs.Bands, ExcludeDC: cs.ExcludeDC}
		}
		channels[cs.Name] = ch
	}

	return NewProfile(s.Convention, channels)
}
