package health

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
)

const (
	testRate    = 1000.0
	testSamples = 2048
)

// recording returns a synthetic pump vibration: a 50 Hz rotation line, a
// 120 Hz harmonic, Gaussian noise and, if fault > 0, a 230 Hz defect line.
func recording(t testing.TB, seed int64, fault float64) signal.Series {
	t.Helper()
	g := signal.NewGeneratorWithOptions(
		[]core.SamplingOption{core.WithSampleRate(testRate)},
		signal.WithSeed(seed),
	)
	tones := []signal.Tone{
		{FreqHz: 50, Amplitude: 1},
		{FreqHz: 120, Amplitude: 0.3, Phase: 0.4},
	}
	if fault > 0 {
		tones = append(tones, signal.Tone{FreqHz: 230, Amplitude: fault})
	}
	s, err := g.Vibration(tones, 0.05, testSamples)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func hzBand(lo, hi float64) Band {
	return Band{Min: 2 * math.Pi * lo, Max: 2 * math.Pi * hi}
}

var testBands = []Band{hzBand(40, 60), hzBand(110, 130), hzBand(220, 240)}
