package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/config"
	"github.com/cwbudde/algo-health/dataio"
	"github.com/cwbudde/algo-health/health"
)

func trainCmd(a *app) *cobra.Command {
	var (
		configPath string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Build a health profile from healthy reference recordings",
		Example: `spectral-health train --config train.yaml --out profile.json
spectral-health train --config train.yaml --out sqlite:profiles.db#pump-a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadTraining(configPath)
			if err != nil {
				return err
			}
			workers := a.workers
			if !cmd.Flags().Changed("workers") && cfg.Workers > 0 {
				workers = cfg.Workers
			}

			sets, err := trainingSets(cfg, a.log)
			if err != nil {
				return err
			}

			conv := cfg.Convention()
			a.log.WithFields(logrus.Fields{
				"channels": len(sets),
				"window":   conv.Window,
				"detrend":  conv.Detrend,
				"workers":  workers,
			}).Info("training profile")

			p, err := health.Train(cmd.Context(), conv, sets, workers)
			if err != nil {
				return err
			}
			if err := saveProfile(cmd.Context(), out, p, a.log); err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"profile": out, "channels": p.Len()}).Info("profile saved")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "training configuration (YAML)")
	cmd.Flags().StringVarP(&out, "out", "o", "profile.json", "profile destination: FILE.json, dir:DIR#NAME or sqlite:FILE#NAME")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// trainingSets reads every recording named in cfg. Files shared between
// channels are parsed once.
func trainingSets(cfg *config.Training, log logrus.FieldLogger) (map[string]health.TrainingSet, error) {
	tables := make(map[string]*dataio.Table)
	read := func(file string) (*dataio.Table, error) {
		path := cfg.Path(file)
		if t, ok := tables[path]; ok {
			return t, nil
		}
		t, err := dataio.ReadFile(path, dataio.WithTimeColumn(cfg.TimeColumn))
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"file": path, "rows": t.Len(), "step": t.Step()}).Debug("read recording")
		tables[path] = t
		return t, nil
	}

	sets := make(map[string]health.TrainingSet, len(cfg.Channels))
	for _, name := range cfg.Names() {
		ch := cfg.Channels[name]
		mode, err := health.ParseCombineMode(ch.Combine)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}

		set := health.TrainingSet{Combine: mode, Range: ch.Range(), Bands: ch.Bands()}
		for _, file := range ch.Files {
			t, err := read(file)
			if err != nil {
				return nil, err
			}
			s, err := t.Series(ch.ColumnRef(name))
			if err != nil {
				return nil, fmt.Errorf("channel %q in %s: %w", name, file, err)
			}
			set.Recordings = append(set.Recordings, s)
		}
		sets[name] = set
	}
	return sets, nil
}
