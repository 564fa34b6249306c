package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdobak/go-xerrors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/cwbudde/algo-health/config"
	"github.com/cwbudde/algo-health/dataio"
	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
)

// Channel headers of the synthetic pump recordings.
const (
	motorColumn = "motor_vibration"
	pumpColumn  = "pump_vibration"
)

// machine describes the vibration of one synthetic recording.
type machine struct {
	motor, pump           []signal.Tone
	motorNoise, pumpNoise float64
}

func scaled(tones []signal.Tone, f float64) []signal.Tone {
	out := append([]signal.Tone(nil), tones...)
	for i := range out {
		out[i].Amplitude *= f
	}
	return out
}

var (
	motorTones = []signal.Tone{{FreqHz: 50, Amplitude: 1}, {FreqHz: 100, Amplitude: 0.2}}
	pumpTones  = []signal.Tone{{FreqHz: 30, Amplitude: 0.8}, {FreqHz: 60, Amplitude: 0.3}}

	synthRecordings = []struct {
		file string
		m    machine
	}{
		{"train_1.csv", machine{motorTones, pumpTones, 0.1, 0.1}},
		{"train_2.csv", machine{scaled(motorTones, 1.05), scaled(pumpTones, 0.95), 0.12, 0.11}},
		{"current_ok.csv", machine{scaled(motorTones, 1.02), pumpTones, 0.1, 0.1}},
		// Bearing defect on the pump: a new 150 Hz line and more broadband noise.
		{"current_fault.csv", machine{motorTones, append(append([]signal.Tone(nil), pumpTones...), signal.Tone{FreqHz: 150, Amplitude: 0.5}), 0.1, 0.2}},
	}
)

func synthCmd(a *app) *cobra.Command {
	var (
		dir       string
		rate      float64
		duration  float64
		seed      int64
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic pump data set with matching configurations",
		Long: `Write two healthy training recordings, a healthy and a faulty current
recording of a motor and a pump channel, plus train.yaml and score.yaml
that train a profile from them and score the faulty recording.`,
		Example: `spectral-health synth --out data/pump
spectral-health train -c data/pump/train.yaml -o data/pump/profile.json
spectral-health score -c data/pump/score.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples := int(duration * rate)
			if samples < 2 {
				return fmt.Errorf("duration %v s at %v Hz gives %d samples: %w", duration, rate, samples, core.ErrDomain)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return xerrors.New(err)
			}

			g := signal.NewGeneratorWithOptions([]core.SamplingOption{core.WithSampleRate(rate)})
			for i, rec := range synthRecordings {
				g.SetSeed(seed + int64(2*i))
				motor, err := g.Vibration(rec.m.motor, rec.m.motorNoise, samples)
				if err != nil {
					return err
				}
				g.SetSeed(seed + int64(2*i+1))
				pump, err := g.Vibration(rec.m.pump, rec.m.pumpNoise, samples)
				if err != nil {
					return err
				}

				path := filepath.Join(dir, rec.file)
				if err := dataio.WriteFile(path, []string{motorColumn, pumpColumn}, []signal.Series{motor, pump}); err != nil {
					return err
				}
				a.log.WithFields(logrus.Fields{"file": path, "samples": samples}).Info("recording written")
			}

			if err := writeYAML(filepath.Join(dir, "train.yaml"), synthTraining()); err != nil {
				return err
			}
			score := config.Scoring{
				Profile: "profile.json",
				Input:   "current_fault.csv",
				Title:   "Synthetic Pump Health Report",
				Thresholds: map[string]float64{
					motorColumn: threshold,
					pumpColumn:  threshold,
				},
			}
			if err := writeYAML(filepath.Join(dir, "score.yaml"), score); err != nil {
				return err
			}
			a.log.WithField("dir", dir).Info("configurations written")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "out", "o", "data/pump", "output directory")
	f.Float64Var(&rate, "rate", 1000, "sample rate in Hz")
	f.Float64VarP(&duration, "duration", "T", 10, "recording length in seconds")
	f.Int64Var(&seed, "seed", 1, "noise seed")
	f.Float64Var(&threshold, "threshold", 0.05, "threshold written to score.yaml")
	return cmd
}

func synthTraining() config.Training {
	detrend := true
	files := []string{"train_1.csv", "train_2.csv"}
	return config.Training{
		Window:  "hann",
		Detrend: &detrend,
		Channels: map[string]config.Channel{
			motorColumn: {
				Files:   files,
				Combine: "average",
				BandsHz: []config.BandHz{{45, 55}, {95, 105}},
			},
			pumpColumn: {
				Files:   files,
				Combine: "average",
				BandsHz: []config.BandHz{{25, 35}, {55, 65}, {145, 155}},
			},
		},
	}
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerrors.New(err)
	}
	return nil
}
