package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-health/config"
	"github.com/cwbudde/algo-health/dataio"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/health"
	"github.com/cwbudde/algo-health/report"
)

type scoreOptions struct {
	configPath     string
	profile        string
	input          string
	timeColumn     string
	thresholdsPath string
	metric         string
	title          string
	reportPath     string
	format         string
	defaultTh      float64
}

func scoreCmd(a *app) *cobra.Command {
	var o scoreOptions
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a recording against a profile and report verdicts",
		Long: `Score every channel of a recording against a trained profile. A channel is
anomalous when its distance exceeds its threshold. The command exits with 1
if any channel is anomalous.`,
		Example: `spectral-health score --config score.yaml
spectral-health score --profile profile.json --input current.csv --thresholds thresholds.yaml --report report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			workers := a.workers
			if !cmd.Flags().Changed("workers") && cfg.Workers > 0 {
				workers = cfg.Workers
			}

			p, err := loadProfile(cmd.Context(), cfg.Profile, a.log)
			if err != nil {
				return err
			}
			table, err := dataio.ReadFile(cfg.Input, dataio.WithTimeColumn(cfg.TimeColumn))
			if err != nil {
				return err
			}
			inputs, err := channelInputs(p, table, cfg.ColumnRef)
			if err != nil {
				return err
			}

			scorer := health.NewScorer(p, health.WithWorkers(workers))
			var scores health.Scores
			switch cfg.Metric {
			case config.MetricFeatures:
				scores, err = scorer.ScoreSeriesFeatures(cmd.Context(), inputs)
			default:
				scores, err = scorer.ScoreSeries(cmd.Context(), inputs)
			}
			if err != nil {
				return err
			}

			opts := []report.Option{report.WithTitle(cfg.Title), report.WithMetric(string(cfg.Metric))}
			if cmd.Flags().Changed("default-threshold") {
				opts = append(opts, report.WithDefaultThreshold(o.defaultTh))
			}
			r := report.Evaluate(scores, cfg.Thresholds, opts...)

			for _, row := range r.Rows {
				a.log.WithFields(logrus.Fields{
					"channel":   row.Channel,
					"distance":  row.Distance,
					"threshold": row.Threshold,
					"status":    row.Status.String(),
				}).Info("channel scored")
			}
			for _, name := range r.Missing {
				a.log.WithField("channel", name).Warn("no input for profile channel")
			}
			for _, name := range r.Unknown {
				a.log.WithField("column", name).Warn("input column not in profile")
			}

			if o.reportPath != "" {
				if err := r.WriteFile(o.reportPath); err != nil {
					return err
				}
				a.log.WithField("report", o.reportPath).Info("report written")
			}
			if err := writeReport(cmd, r, o.format); err != nil {
				return err
			}

			if r.Anomalous() {
				return fmt.Errorf("%w: %v", ErrAnomaly, r.Anomalies())
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "scoring configuration (YAML)")
	f.StringVarP(&o.profile, "profile", "p", "", "profile: FILE.json, dir:DIR#NAME or sqlite:FILE#NAME")
	f.StringVarP(&o.input, "input", "i", "", "recording to score (CSV)")
	f.StringVar(&o.timeColumn, "time-column", "", "time column of the input (default \"time\")")
	f.StringVarP(&o.thresholdsPath, "thresholds", "t", "", "thresholds file (YAML map channel: distance)")
	f.StringVarP(&o.metric, "metric", "m", "", "distance: spectrum or features (default spectrum)")
	f.StringVar(&o.title, "title", "", "report title")
	f.StringVarP(&o.reportPath, "report", "r", "", "also write the Markdown report to this file")
	f.StringVar(&o.format, "format", "markdown", "stdout format: markdown, json or none")
	f.Float64Var(&o.defaultTh, "default-threshold", 0, "threshold for channels without one")
	return cmd
}

// resolve merges the optional configuration file with the flags. Flags win.
func (o *scoreOptions) resolve(cmd *cobra.Command) (*config.Scoring, error) {
	cfg := &config.Scoring{}
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadScoring(o.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	if !flags.Changed("input") {
		cfg.Input = cfg.Path(cfg.Input)
	}
	if !flags.Changed("profile") {
		cfg.Profile = profilePath(cfg)
	}
	set("profile", &cfg.Profile, o.profile)
	set("input", &cfg.Input, o.input)
	set("time-column", &cfg.TimeColumn, o.timeColumn)
	set("title", &cfg.Title, o.title)
	if flags.Changed("metric") {
		cfg.Metric = config.Metric(o.metric)
	}
	if o.thresholdsPath != "" {
		th, err := config.LoadThresholds(o.thresholdsPath)
		if err != nil {
			return nil, err
		}
		cfg.Thresholds = th
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Profile == "" || cfg.Input == "" {
		return nil, errors.New("a profile and an input are required (flags or --config)")
	}
	switch o.format {
	case "markdown", "json", "none":
	default:
		return nil, fmt.Errorf("unknown format %q", o.format)
	}
	return cfg, nil
}

// profilePath resolves a file profile named in a configuration relative to
// the configuration's directory.
func profilePath(cfg *config.Scoring) string {
	if cfg.Profile == "" {
		return ""
	}
	r, err := parseProfileRef(cfg.Profile)
	if err != nil {
		return cfg.Profile
	}
	r.path = cfg.Path(r.path)
	return r.String()
}

// channelInputs picks the column of every profile channel out of t.
// Profile channels without a column are left out; columns not claimed by a
// channel are passed under their header so they show up as unknown.
func channelInputs(p *health.Profile, t *dataio.Table, columnRef func(string) string) (map[string]signal.Series, error) {
	out := make(map[string]signal.Series)
	claimed := make(map[string]bool)

	for _, name := range p.Names() {
		col, err := t.ColumnName(columnRef(name))
		if errors.Is(err, dataio.ErrUnknownColumn) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := t.Series(col)
		if err != nil {
			return nil, err
		}
		out[name] = s
		claimed[col] = true
	}

	for _, col := range t.Names {
		if _, taken := out[col]; claimed[col] || taken {
			continue
		}
		s, err := t.Series(col)
		if err != nil {
			return nil, err
		}
		out[col] = s
	}
	return out, nil
}

func writeReport(cmd *cobra.Command, r report.Report, format string) error {
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "none":
		return nil
	default:
		return r.WriteMarkdown(w)
	}
}
