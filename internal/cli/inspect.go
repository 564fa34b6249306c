package cli

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/dataio"
	"github.com/cwbudde/algo-health/dsp/spectrum"
	"github.com/cwbudde/algo-health/health"
	"github.com/cwbudde/algo-health/stats/frequency"
	timestats "github.com/cwbudde/algo-health/stats/time"
)

type channelSummary struct {
	name string
	time timestats.Indicators
	freq frequency.Descriptors
}

func inspectCmd(a *app) *cobra.Command {
	var (
		inputs     []string
		channels   []string
		timeColumn string
		windowName string
		detrend    bool
		excludeDC  bool
		rolloff    float64
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print time and frequency condition indicators of recordings",
		Long: `Print condition indicators for every channel of one or more recordings.
Time-domain indicators accumulate over all inputs; frequency descriptors are
taken from the average spectrum of the inputs, which must have equal lengths
and sampling steps.`,
		Example: `spectral-health inspect -i current.csv
spectral-health inspect -i a.csv -i b.csv --channel pump --window flattop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conv := health.DefaultConvention()
			conv.Window = windowName
			conv.Detrend = detrend
			conv.ExcludeDC = excludeDC
			analyzer, err := conv.Analyzer()
			if err != nil {
				return err
			}

			tables := make([]*dataio.Table, len(inputs))
			for i, path := range inputs {
				if tables[i], err = dataio.ReadFile(path, dataio.WithTimeColumn(timeColumn)); err != nil {
					return err
				}
			}
			if len(channels) == 0 {
				channels = tables[0].Names
			}

			summaries := make([]channelSummary, 0, len(channels))
			for _, name := range channels {
				var (
					acc     timestats.Accumulator
					spectra []*spectrum.Spectrum
				)
				for i, t := range tables {
					s, err := t.Series(name)
					if err != nil {
						return fmt.Errorf("%s: %w", inputs[i], err)
					}
					if err := acc.Add(s); err != nil {
						return fmt.Errorf("%s channel %q: %w", inputs[i], name, err)
					}
					spec, err := analyzer.Analyze(s)
					if err != nil {
						return fmt.Errorf("%s channel %q: %w", inputs[i], name, err)
					}
					spectra = append(spectra, spec)
				}

				avg, err := spectrum.Average(spectra...)
				if err != nil {
					return fmt.Errorf("channel %q: %w", name, err)
				}
				desc, err := frequency.Calculate(avg, frequency.WithRolloff(rolloff), frequency.WithExcludeDC(excludeDC))
				if err != nil {
					return fmt.Errorf("channel %q: %w", name, err)
				}
				summaries = append(summaries, channelSummary{name: name, time: acc.Result(), freq: desc})
				a.log.WithField("channel", name).WithField("recordings", len(spectra)).Debug("channel inspected")
			}

			return printSummaries(cmd, summaries)
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&inputs, "input", "i", nil, "recording (CSV), repeatable")
	f.StringSliceVar(&channels, "channel", nil, "channels to inspect (default all)")
	f.StringVar(&timeColumn, "time-column", "", "time column (default \"time\")")
	f.StringVarP(&windowName, "window", "w", "hann", "analysis window")
	f.BoolVar(&detrend, "detrend", true, "remove the mean before analysis")
	f.BoolVar(&excludeDC, "exclude-dc", false, "leave the DC bin out of the entropy")
	f.Float64Var(&rolloff, "rolloff", frequency.DefaultRolloff, "power fraction for the roll-off frequency")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func hz(omega float64) float64 { return omega / (2 * math.Pi) }

func printSummaries(cmd *cobra.Command, summaries []channelSummary) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\tSamples\tDuration [s]\tRMS\tRMS [dB]\tPeak\tCrest\tShape\tImpulse\tClearance\tSkewness\tKurtosis\tZCR [1/s]\n")
	fmt.Fprintf(tw, "-------\t-------\t------------\t---\t--------\t----\t-----\t-----\t-------\t---------\t--------\t--------\t---------\n")
	for _, s := range summaries {
		t := s.time
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.6g\t%.2f\t%.6g\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.1f\n",
			s.name, t.Samples, t.Duration, t.RMS, t.RMSdB, t.Peak, t.Crest, t.Shape, t.Impulse, t.Clearance,
			t.Skewness, t.Kurtosis, t.ZeroCrossingRate)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Channel\tBins\tdf [Hz]\tPower\tPeak [Hz]\tCentroid [Hz]\tSpread [Hz]\tRoll-off [Hz]\tBW -3dB [Hz]\tFlatness\tEntropy\n")
	fmt.Fprintf(tw, "-------\t----\t-------\t-----\t---------\t-------------\t-----------\t-------------\t------------\t--------\t-------\n")
	for _, s := range summaries {
		d := s.freq
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.6g\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t%.4f\t%.4f\n",
			s.name, d.Bins, hz(d.Resolution), d.TotalPower, hz(d.PeakOmega), hz(d.Centroid), hz(d.Spread),
			hz(d.Rolloff), hz(d.Bandwidth), d.Flatness, d.Entropy)
	}
	return tw.Flush()
}
