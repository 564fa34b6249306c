package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/sim/chain"
)

func simulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the oscillator chain model",
	}
	cmd.AddCommand(pressureCmd(a), modesCmd(a), calibrateCmd(a))
	return cmd
}

type chainFlags struct {
	nodes     int
	mass      float64
	stiffness float64
	springs   []string
	masses    []string
}

func (f *chainFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVarP(&f.nodes, "nodes", "n", 41, "number of nodes")
	fs.Float64Var(&f.mass, "mass", chain.DefaultMass, "node mass")
	fs.Float64VarP(&f.stiffness, "stiffness", "k", chain.DefaultStiffness, "spring stiffness")
	fs.StringSliceVar(&f.springs, "springs", nil, "override springs START:END=K (END exclusive), repeatable")
	fs.StringSliceVar(&f.masses, "masses", nil, "override masses START:END=M (END exclusive), repeatable")
}

func (f *chainFlags) build(opts ...chain.Option) (*chain.Chain, error) {
	opts = append([]chain.Option{chain.WithMass(f.mass), chain.WithStiffness(f.stiffness)}, opts...)
	c, err := chain.New(f.nodes, opts...)
	if err != nil {
		return nil, err
	}
	for _, spec := range f.springs {
		r, v, err := parseOverride(spec)
		if err != nil {
			return nil, err
		}
		for j := r.Start; j < r.End; j++ {
			if err := c.SetSpring(j, v); err != nil {
				return nil, err
			}
		}
	}
	for _, spec := range f.masses {
		r, v, err := parseOverride(spec)
		if err != nil {
			return nil, err
		}
		for i := r.Start; i < r.End; i++ {
			if err := c.SetMass(i, v); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// parseRange parses "START:END".
func parseRange(s string) (chain.NodeRange, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return chain.NodeRange{}, fmt.Errorf("range %q: want START:END", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return chain.NodeRange{}, fmt.Errorf("range %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return chain.NodeRange{}, fmt.Errorf("range %q: %w", s, err)
	}
	return chain.NodeRange{Start: start, End: end}, nil
}

// parseOverride parses "START:END=VALUE".
func parseOverride(s string) (chain.NodeRange, float64, error) {
	rs, vs, ok := strings.Cut(s, "=")
	if !ok {
		return chain.NodeRange{}, 0, fmt.Errorf("override %q: want START:END=VALUE", s)
	}
	r, err := parseRange(rs)
	if err != nil {
		return chain.NodeRange{}, 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(vs), 64)
	if err != nil {
		return chain.NodeRange{}, 0, fmt.Errorf("override %q: %w", s, err)
	}
	return r, v, nil
}

// parseBand parses "MIN:MAX" in rad/s.
func parseBand(s string) (*chain.Band, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("band %q: want MIN:MAX", s)
	}
	w0, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("band %q: %w", s, err)
	}
	w1, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("band %q: %w", s, err)
	}
	return &chain.Band{Min: w0, Max: w1}, nil
}

func pressureCmd(a *app) *cobra.Command {
	var (
		cf        chainFlags
		excite    int
		amplitude float64
		left      string
		right     string
		duration  float64
		dt        float64
		damping   []float64
		band      string
	)
	cmd := &cobra.Command{
		Use:   "pressure",
		Short: "Measure the spectral pressure difference between two regions",
		Long: `Displace one node, run the chain and compare the spectral power of the mean
displacement of a left and a right region. Every --damping value is run as
an independent trial on its own copy of the chain.`,
		Example: `spectral-health simulate pressure --springs 26:37=2
spectral-health simulate pressure --damping 0,0.01,0.05 --band 0.5:1.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := parseRange(left)
			if err != nil {
				return err
			}
			r, err := parseRange(right)
			if err != nil {
				return err
			}
			var b *chain.Band
			if band != "" {
				if b, err = parseBand(band); err != nil {
					return err
				}
			}

			trials := make([]chain.Trial, len(damping))
			for i, gamma := range damping {
				c, err := cf.build(chain.WithDamping(gamma))
				if err != nil {
					return err
				}
				if err := c.Displace(excite, amplitude); err != nil {
					return err
				}
				trials[i] = chain.Trial{Chain: c, Left: l, Right: r, Duration: duration, Step: dt, Band: b}
			}

			a.log.WithFields(logrus.Fields{"nodes": cf.nodes, "trials": len(trials), "workers": a.workers}).Info("running pressure trials")
			res, err := chain.PressureTrials(cmd.Context(), trials, a.workers)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Damping\tP left\tP right\tP left - P right\n")
			fmt.Fprintf(tw, "-------\t------\t-------\t---------------\n")
			for i, p := range res {
				fmt.Fprintf(tw, "%g\t%.6e\t%.6e\t%+.6e\n", damping[i], p.Left, p.Right, p.Difference())
			}
			return tw.Flush()
		},
	}
	cf.register(cmd)
	f := cmd.Flags()
	f.IntVar(&excite, "excite", 20, "node displaced at t=0")
	f.Float64Var(&amplitude, "amplitude", 1, "initial displacement")
	f.StringVar(&left, "left", "5:15", "left region START:END")
	f.StringVar(&right, "right", "26:36", "right region START:END")
	f.Float64VarP(&duration, "duration", "T", 100, "simulated time")
	f.Float64Var(&dt, "dt", 0.05, "time step")
	f.Float64SliceVar(&damping, "damping", []float64{0}, "damping coefficients, one trial each")
	f.StringVar(&band, "band", "", "restrict to MIN:MAX rad/s")
	return cmd
}

func modesCmd(a *app) *cobra.Command {
	var (
		cf   chainFlags
		ldos string
	)
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Print the normal-mode frequencies of the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cf.build()
			if err != nil {
				return err
			}
			modes, err := c.Modes()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Mode\tOmega [rad/s]\tFrequency [Hz]\n")
			fmt.Fprintf(tw, "----\t-------------\t--------------\n")
			for i, m := range modes {
				fmt.Fprintf(tw, "%d\t%.6f\t%.6f\n", i+1, m.Omega, m.Omega/(2*math.Pi))
			}

			if ldos != "" {
				b, err := parseBand(ldos)
				if err != nil {
					return err
				}
				density, err := c.LocalDensity(b.Min, b.Max)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw)
				fmt.Fprintf(tw, "Node\tLDOS [%g, %g]\n", b.Min, b.Max)
				fmt.Fprintf(tw, "----\t----\n")
				for i, d := range density {
					fmt.Fprintf(tw, "%d\t%.6f\n", i, d)
				}
			}
			a.log.WithField("modes", len(modes)).Debug("modes solved")
			return tw.Flush()
		},
	}
	cf.register(cmd)
	cmd.Flags().StringVar(&ldos, "ldos", "", "also print the local density of modes in MIN:MAX rad/s")
	return cmd
}

func calibrateCmd(a *app) *cobra.Command {
	var (
		nodes int
		mass  float64
		omega float64
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Find the uniform stiffness that puts the fundamental at a target frequency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, res, err := chain.CalibrateStiffness(nodes, mass, omega)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"iterations": res.Iterations,
				"residual":   res.Residual(),
			}).Debug("calibration finished")
			if !res.Converged {
				a.log.WithField("stiffness", k).Warn("calibration did not converge")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stiffness=%.9g converged=%t iterations=%d\n", k, res.Converged, res.Iterations)
			return err
		},
	}
	f := cmd.Flags()
	f.IntVarP(&nodes, "nodes", "n", 10, "number of nodes")
	f.Float64Var(&mass, "mass", chain.DefaultMass, "node mass")
	f.Float64Var(&omega, "omega", 0.5, "target fundamental in rad/s")
	return cmd
}
