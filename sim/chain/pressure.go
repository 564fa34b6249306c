package chain

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// NodeRange selects the nodes Start <= i < End.
type NodeRange struct {
	Start, End int
}

// Len returns the number of nodes in the range.
func (r NodeRange) Len() int { return r.End - r.Start }

func (r NodeRange) validate(n int) error {
	if r.Start < 0 || r.End > n || r.Start >= r.End {
		return fmt.Errorf("chain: node range [%d,%d) invalid for %d nodes: %w", r.Start, r.End, n, core.ErrDomain)
	}
	return nil
}

// Band is an angular frequency interval in rad/s.
type Band struct {
	Min, Max float64
}

// Pressure is the outcome of a spectral-pressure measurement.
type Pressure struct {
	Left, Right float64
}

// Difference returns Left - Right.
func (p Pressure) Difference() float64 { return p.Left - p.Right }

// sampleCount returns the number of steps that fit into tTotal.
func sampleCount(tTotal, dt float64) (int, error) {
	if !core.IsFinite(tTotal) || tTotal <= 0 || !core.IsFinite(dt) || dt <= 0 {
		return 0, fmt.Errorf("chain: duration %v and step %v must be finite and > 0: %w", tTotal, dt, core.ErrDomain)
	}
	n := int(math.Floor(tTotal/dt + 1e-9))
	if n < 2 {
		return 0, fmt.Errorf("chain: duration %v holds %d samples of step %v, need 2: %w", tTotal, n, dt, core.ErrDomain)
	}
	return n, nil
}

// record advances c by floor(tTotal/dt) steps and returns, for every range,
// the spatial mean displacement sampled before each step.
func record(c *Chain, ranges []NodeRange, tTotal, dt float64) ([]signal.Series, error) {
	for _, r := range ranges {
		if err := r.validate(c.Len()); err != nil {
			return nil, err
		}
	}
	n, err := sampleCount(tTotal, dt)
	if err != nil {
		return nil, err
	}

	t0 := c.Time()
	traces := make([][]float64, len(ranges))
	for i := range traces {
		traces[i] = make([]float64, n)
	}

	for k := 0; k < n; k++ {
		for i, r := range ranges {
			traces[i][k] = core.Mean(c.x[r.Start:r.End])
		}
		if err := c.Step(dt); err != nil {
			return nil, err
		}
	}

	out := make([]signal.Series, len(ranges))
	for i, tr := range traces {
		s, err := signal.Uniform(tr, t0, dt)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// LocalSpectrum runs c forward for tTotal in steps of dt, records the mean
// displacement over r and returns its spectrum. The chain is advanced.
func LocalSpectrum(c *Chain, r NodeRange, tTotal, dt float64) (*spectrum.Spectrum, error) {
	series, err := record(c, []NodeRange{r}, tTotal, dt)
	if err != nil {
		return nil, err
	}
	return spectrum.FromSeries(series[0])
}

// MeasurePressure runs c forward once, recording both ranges, and returns
// the total power (or the power in band, if non-nil) of each local
// spectrum. The chain is advanced.
func MeasurePressure(c *Chain, left, right NodeRange, tTotal, dt float64, band *Band) (Pressure, error) {
	series, err := record(c, []NodeRange{left, right}, tTotal, dt)
	if err != nil {
		return Pressure{}, err
	}

	var p [2]float64
	for i, s := range series {
		spec, err := spectrum.FromSeries(s)
		if err != nil {
			return Pressure{}, err
		}
		if band == nil {
			p[i] = spec.TotalPower()
			continue
		}
		p[i], err = spec.BandPower(band.Min, band.Max)
		if err != nil {
			return Pressure{}, err
		}
	}
	return Pressure{Left: p[0], Right: p[1]}, nil
}

// PressureDifference returns P_left - P_right as measured by MeasurePressure.
func PressureDifference(c *Chain, left, right NodeRange, tTotal, dt float64, band *Band) (float64, error) {
	p, err := MeasurePressure(c, left, right, tTotal, dt, band)
	if err != nil {
		return 0, err
	}
	return p.Difference(), nil
}

// Trial describes one independent pressure measurement.
type Trial struct {
	Chain       *Chain
	Left, Right NodeRange
	Duration    float64
	Step        float64
	Band        *Band
}

// PressureTrials measures every trial on a clone of its chain, running up
// to workers trials concurrently (workers <= 0 means one per trial). The
// caller's chains are not modified. Results keep the order of trials; the
// first failing trial cancels the rest.
func PressureTrials(ctx context.Context, trials []Trial, workers int) ([]Pressure, error) {
	for i, tr := range trials {
		if tr.Chain == nil {
			return nil, fmt.Errorf("chain: trial %d has no chain: %w", i, core.ErrDomain)
		}
	}

	out := make([]Pressure, len(trials))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, tr := range trials {
		c := tr.Chain.Clone()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := MeasurePressure(c, tr.Left, tr.Right, tr.Duration, tr.Step, tr.Band)
			if err != nil {
				return fmt.Errorf("chain: trial %d: %w", i, err)
			}
			out[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
