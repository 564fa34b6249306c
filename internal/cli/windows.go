package cli

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/dsp/window"
)

func windowsCmd(_ *app) *cobra.Command {
	var (
		size     int
		alpha    float64
		periodic bool
	)
	cmd := &cobra.Command{
		Use:   "windows [name ...]",
		Short: "Print the properties of the analysis windows",
		Long: `Print equivalent noise bandwidth, coherent gain, power gain and highest
sidelobe of the analysis windows usable in a convention. Without arguments
every window is listed.`,
		Example: `spectral-health windows
spectral-health windows --size 4096 --alpha 6 kaiser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := window.Types()
			if len(args) > 0 {
				types = types[:0:0]
				for _, name := range args {
					t, err := window.ParseType(name)
					if err != nil {
						return err
					}
					types = append(types, t)
				}
			}

			var opts []window.Option
			if periodic {
				opts = append(opts, window.WithPeriodic())
			}
			if !math.IsNaN(alpha) {
				opts = append(opts, window.WithAlpha(alpha))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Window\tSize\tENBW [bins]\tCoherent Gain\tPower Gain\tSidelobe [dB]\n")
			fmt.Fprintf(tw, "------\t----\t-----------\t-------------\t----------\t-------------\n")
			for _, t := range types {
				m, err := window.Describe(t, size, opts...)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.6f\t%.6f\t%.1f\n",
					t, size, m.ENBW, m.CoherentGain, m.PowerGain, m.HighestSidelobe)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.IntVarP(&size, "size", "s", 1024, "window length in samples")
	f.Float64Var(&alpha, "alpha", math.NaN(), "shape parameter of kaiser (beta) and tukey")
	f.BoolVar(&periodic, "periodic", false, "use the periodic form instead of the symmetric one")
	return cmd
}
