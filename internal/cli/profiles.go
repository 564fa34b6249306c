package cli

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/health"
)

func profilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage stored profiles",
		Long: `Manage profiles in a directory store (dir:DIR) or a SQLite store
(sqlite:FILE). Single profiles are addressed as dir:DIR#NAME,
sqlite:FILE#NAME or a plain JSON file path.`,
	}

	list := &cobra.Command{
		Use:   "list STORE",
		Short: "List the profiles of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseProfileRef(args[0])
			if err != nil {
				return err
			}
			st, err := r.open(a.log)
			if err != nil {
				return err
			}
			defer st.Close()

			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show PROFILE",
		Short: "Print the convention and channels of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd.Context(), args[0], a.log)
			if err != nil {
				return err
			}
			return printProfile(cmd, p)
		},
	}

	del := &cobra.Command{
		Use:   "delete PROFILE",
		Short: "Delete a profile from a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseProfileRef(args[0])
			if err != nil {
				return err
			}
			if err := r.needName(); err != nil {
				return err
			}
			st, err := r.open(a.log)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), r.name); err != nil {
				return err
			}
			a.log.WithField("profile", r.String()).Info("profile deleted")
			return nil
		},
	}

	cp := &cobra.Command{
		Use:     "copy SRC DST",
		Short:   "Copy a profile between files and stores",
		Example: `spectral-health profiles copy profile.json sqlite:profiles.db#pump-a`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd.Context(), args[0], a.log)
			if err != nil {
				return err
			}
			if err := saveProfile(cmd.Context(), args[1], p, a.log); err != nil {
				return err
			}
			a.log.WithField("from", args[0]).WithField("to", args[1]).Info("profile copied")
			return nil
		},
	}

	cmd.AddCommand(list, show, del, cp)
	return cmd
}

func printProfile(cmd *cobra.Command, p *health.Profile) error {
	conv := p.Convention()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "window=%s detrend=%t exclude_dc=%t normalization=%s\n\n",
		conv.Window, conv.Detrend, conv.ExcludeDC, conv.Normalization)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Channel\tBins\tFrom [Hz]\tTo [Hz]\tFeature Bands\n")
	fmt.Fprintf(tw, "-------\t----\t---------\t-------\t-------------\n")
	for _, name := range p.Names() {
		ch, _ := p.Channel(name)
		omega := ch.Spectrum.Omega()
		bands := 0
		if ch.Features != nil {
			bands = len(ch.FeatureConfig.Bands)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%d\n",
			name, len(omega), omega[0]/(2*math.Pi), omega[len(omega)-1]/(2*math.Pi), bands)
	}
	return tw.Flush()
}
