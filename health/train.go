package health

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// CombineMode selects how several reference recordings of one channel are
// merged into a single reference spectrum.
type CombineMode int

const (
	// CombineAverage analyses every recording and averages the bin powers.
	// All recordings must yield the same frequency grid.
	CombineAverage CombineMode = iota
	// CombineConcatenate joins the recordings in time and analyses the
	// result once. All recordings must share the sampling step.
	CombineConcatenate
)

func (m CombineMode) String() string {
	switch m {
	case CombineAverage:
		return "average"
	case CombineConcatenate:
		return "concatenate"
	default:
		return fmt.Sprintf("CombineMode(%d)", int(m))
	}
}

// ParseCombineMode maps "average" or "concatenate" (case-insensitive) to a
// CombineMode. The empty string selects CombineAverage.
func ParseCombineMode(s string) (CombineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "avg", "mean":
		return CombineAverage, nil
	case "concatenate", "concat":
		return CombineConcatenate, nil
	}
	return 0, fmt.Errorf("health: unknown combine mode %q: %w", s, core.ErrDomain)
}

// TrainingSet is the reference material of one channel.
type TrainingSet struct {
	Recordings []signal.Series
	Combine    CombineMode
	// Range, if set, crops every spectrum to a band of interest.
	Range *Band
	// Bands, if non-empty, also trains a feature signature.
	Bands []Band
}

// Train builds a profile from healthy recordings, training up to workers
// channels concurrently (workers <= 0 means one goroutine per channel).
func Train(ctx context.Context, conv Convention, sets map[string]TrainingSet, workers int) (*Profile, error) {
	analyzer, err := conv.Analyzer()
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("health: no training data: %w", core.ErrDomain)
	}

	var mu sync.Mutex
	channels := make(map[string]Channel, len(sets))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for name, set := range sets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ch, err := trainChannel(analyzer, conv, set)
			if err != nil {
				return fmt.Errorf("health: train channel %q: %w", name, err)
			}
			mu.Lock()
			channels[name] = ch
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewProfile(conv, channels)
}

func trainChannel(a *spectrum.Analyzer, conv Convention, set TrainingSet) (Channel, error) {
	if len(set.Recordings) == 0 {
		return Channel{}, fmt.Errorf("health: no recordings: %w", core.ErrDomain)
	}
	if set.Range != nil {
		if err := set.Range.validate(); err != nil {
			return Channel{}, err
		}
	}

	ref, err := combine(a, set)
	if err != nil {
		return Channel{}, err
	}

	sig, err := NewSpectrumSignature(ref)
	if err != nil {
		return Channel{}, err
	}
	ch := Channel{Spectrum: sig, Range: set.Range}

	if len(set.Bands) > 0 {
		cfg := FeatureConfig{Bands: set.Bands, ExcludeDC: conv.ExcludeDC}
		fv, err := ExtractFeatures(ref, cfg)
		if err != nil {
			return Channel{}, err
		}
		if ch.Features, err = NewFeatureSignature(fv); err != nil {
			return Channel{}, err
		}
		ch.FeatureConfig = cfg.clone()
	}
	return ch, nil
}

func combine(a *spectrum.Analyzer, set TrainingSet) (*spectrum.Spectrum, error) {
	switch set.Combine {
	case CombineConcatenate:
		joined := set.Recordings[0]
		for i, r := range set.Recordings[1:] {
			var err error
			if joined, err = joined.Concat(r, core.DefaultStepTolerance); err != nil {
				return nil, fmt.Errorf("health: recording %d: %w", i+1, err)
			}
		}
		return analyze(a, joined, set.Range)

	case CombineAverage:
		spectra := make([]*spectrum.Spectrum, len(set.Recordings))
		for i, r := range set.Recordings {
			spec, err := analyze(a, r, set.Range)
			if err != nil {
				return nil, fmt.Errorf("health: recording %d: %w", i, err)
			}
			spectra[i] = spec
		}
		if len(spectra) == 1 {
			return spectra[0], nil
		}
		return spectrum.Average(spectra...)
	}
	return nil, fmt.Errorf("health: %v: %w", set.Combine, core.ErrDomain)
}
