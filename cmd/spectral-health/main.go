// Command spectral-health trains spectral health profiles from healthy
// vibration recordings and scores new recordings against them.
//
// Usage:
//
//	spectral-health <command> [flags]
//
// Examples:
//
//	spectral-health synth --out data/pump
//	spectral-health train -c data/pump/train.yaml -o data/pump/profile.json
//	spectral-health score -c data/pump/score.yaml --report report.md
//	spectral-health inspect -i data/pump/current_fault.csv
//	spectral-health simulate pressure --springs 26:37=2
//	spectral-health windows hann flattop
//
// A .env file in the working directory is loaded at startup;
// SPECTRAL_HEALTH_LOG_LEVEL and SPECTRAL_HEALTH_WORKERS set flag defaults.
// score exits with 0 when every channel is nominal, 1 on an anomaly and 2
// on any error.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	log "github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-health/internal/cli"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.New().ExecuteContext(ctx)
	stop()

	if err != nil && !errors.Is(err, cli.ErrAnomaly) {
		log.WithError(xerrors.New(err)).Error("spectral-health failed")
	}
	os.Exit(cli.ExitCode(err))
}
