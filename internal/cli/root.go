// Package cli implements the spectral-health command line.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Environment variables that provide defaults for the global flags.
const (
	EnvLogLevel = "SPECTRAL_HEALTH_LOG_LEVEL"
	EnvWorkers  = "SPECTRAL_HEALTH_WORKERS"
)

// Exit codes of the score command, shared by every command.
const (
	ExitOK      = 0
	ExitAnomaly = 1
	ExitError   = 2
)

// ErrAnomaly is returned by score when at least one channel exceeds its
// threshold.
var ErrAnomaly = errors.New("anomaly detected")

// ExitCode maps the error returned by the root command to a process exit
// code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrAnomaly):
		return ExitAnomaly
	default:
		return ExitError
	}
}

type app struct {
	log      *logrus.Logger
	level    string
	workers  int
	envError error
}

// New returns the root command. Flag defaults are taken from the
// environment at the time of the call.
func New() *cobra.Command {
	a := &app{log: logrus.New(), level: "info"}
	if v := os.Getenv(EnvLogLevel); v != "" {
		a.level = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			a.envError = fmt.Errorf("%s=%q: %w", EnvWorkers, v, err)
		}
		a.workers = n
	}

	cmd := &cobra.Command{
		Use:   "spectral-health",
		Short: "Spectral health diagnostics for vibration channels",
		Long: `Train reference spectra from healthy recordings, score new recordings
against them and report per-channel OK/ANOMALY verdicts. The score command
exits with 0 when all channels are nominal, 1 on an anomaly and 2 on error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&a.level, "log-level", a.level, "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&a.workers, "workers", a.workers, "concurrent channels or trials, 0 for one per item")

	cmd.AddCommand(
		trainCmd(a),
		scoreCmd(a),
		inspectCmd(a),
		simulateCmd(a),
		synthCmd(a),
		windowsCmd(a),
		profilesCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.envError != nil && !cmd.Flags().Changed("workers") {
		return a.envError
	}
	if a.workers < 0 {
		return fmt.Errorf("workers %d < 0", a.workers)
	}
	lvl, err := logrus.ParseLevel(a.level)
	if err != nil {
		return err
	}
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(lvl)
	return nil
}
