package health

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// Scores is the outcome of scoring a set of observations against a profile.
type Scores struct {
	// Distances holds one distance per channel scored.
	Distances map[string]float64
	// Missing lists profile channels that could not be scored: absent from
	// the input or, for feature scoring, lacking a feature signature or
	// bands. Sorted.
	Missing []string
	// Unknown lists input channels the profile does not know. Sorted.
	Unknown []string
}

// Complete reports whether every profile channel was scored and no input
// was left over.
func (s Scores) Complete() bool { return len(s.Missing) == 0 && len(s.Unknown) == 0 }

// Scorer evaluates observations against a profile, one goroutine per
// channel up to a worker limit.
type Scorer struct {
	profile *Profile
	workers int
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWorkers bounds the number of channels scored concurrently. Values
// <= 0 mean one goroutine per channel.
func WithWorkers(n int) ScorerOption {
	return func(s *Scorer) { s.workers = n }
}

// NewScorer returns a Scorer for p.
func NewScorer(p *Profile, opts ...ScorerOption) *Scorer {
	s := &Scorer{profile: p}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Profile returns the profile being scored against.
func (s *Scorer) Profile() *Profile { return s.profile }

// channelFunc computes the distance of one channel. ok=false marks the
// channel as missing.
type channelFunc func(name string, ch Channel) (d float64, ok bool, err error)

func (s *Scorer) run(ctx context.Context, inputs []string, fn channelFunc) (Scores, error) {
	p := s.profile
	out := Scores{Distances: make(map[string]float64)}

	present := make(map[string]bool, len(inputs))
	for _, name := range inputs {
		present[name] = true
		if _, ok := p.channels[name]; !ok {
			out.Unknown = append(out.Unknown, name)
		}
	}
	sort.Strings(out.Unknown)

	var scored []string
	for _, name := range p.names {
		if present[name] {
			scored = append(scored, name)
		} else {
			out.Missing = append(out.Missing, name)
		}
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}

	for _, name := range scored {
		ch := p.channels[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, ok, err := fn(name, ch)
			if err != nil {
				return fmt.Errorf("health: channel %q: %w", name, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				out.Distances[name] = d
			} else {
				out.Missing = append(out.Missing, name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Scores{}, err
	}
	sort.Strings(out.Missing)
	return out, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Score returns the full-spectrum distance of every channel present in
// both the profile and current.
func (s *Scorer) Score(ctx context.Context, current map[string]*spectrum.Spectrum) (Scores, error) {
	return s.run(ctx, keys(current), func(name string, ch Channel) (float64, bool, error) {
		d, err := ch.Spectrum.Distance(current[name])
		return d, err == nil, err
	})
}

// ScoreFeatures extracts features from current with each channel's bands
// and the DC setting the channel was trained with, and returns the
// feature-space distances. Channels without a feature signature or without
// bands count as missing.
func (s *Scorer) ScoreFeatures(ctx context.Context, current map[string]*spectrum.Spectrum, bands map[string][]Band) (Scores, error) {
	return s.run(ctx, keys(current), func(name string, ch Channel) (float64, bool, error) {
		b, ok := bands[name]
		if ch.Features == nil || !ok {
			return 0, false, nil
		}
		fv, err := ExtractFeatures(current[name], FeatureConfig{Bands: b, ExcludeDC: ch.FeatureConfig.ExcludeDC})
		if err != nil {
			return 0, false, err
		}
		d, err := ch.Features.Distance(fv)
		return d, err == nil, err
	})
}

// ScoreSeries analyses raw recordings with the profile's convention and
// each channel's band of interest, then scores them like Score.
func (s *Scorer) ScoreSeries(ctx context.Context, current map[string]signal.Series) (Scores, error) {
	a := s.profile.analyzer
	return s.run(ctx, keys(current), func(name string, ch Channel) (float64, bool, error) {
		spec, err := analyze(a, current[name], ch.Range)
		if err != nil {
			return 0, false, err
		}
		d, err := ch.Spectrum.Distance(spec)
		return d, err == nil, err
	})
}

// ScoreSeriesFeatures analyses raw recordings like ScoreSeries and scores
// them in feature space with the bands each channel was trained with.
func (s *Scorer) ScoreSeriesFeatures(ctx context.Context, current map[string]signal.Series) (Scores, error) {
	a := s.profile.analyzer
	return s.run(ctx, keys(current), func(name string, ch Channel) (float64, bool, error) {
		if ch.Features == nil {
			return 0, false, nil
		}
		spec, err := analyze(a, current[name], ch.Range)
		if err != nil {
			return 0, false, err
		}
		fv, err := ExtractFeatures(spec, ch.FeatureConfig)
		if err != nil {
			return 0, false, err
		}
		d, err := ch.Features.Distance(fv)
		return d, err == nil, err
	})
}

// Score is the sequential form of Scorer.Score.
func (p *Profile) Score(current map[string]*spectrum.Spectrum) (Scores, error) {
	return NewScorer(p, WithWorkers(1)).Score(context.Background(), current)
}

// ScoreFeatures is the sequential form of Scorer.ScoreFeatures.
func (p *Profile) ScoreFeatures(current map[string]*spectrum.Spectrum, bands map[string][]Band) (Scores, error) {
	return NewScorer(p, WithWorkers(1)).ScoreFeatures(context.Background(), current, bands)
}
