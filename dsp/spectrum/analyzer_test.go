package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/window"
	"github.com/cwbudde/algo-health/internal/testutil"
)

func TestAnalyzerDefaultsMatchFromTimeSignal(t *testing.T) {
	x := testutil.DeterministicNoise(11, 1, 256)
	tg := testutil.TimeGrid(len(x), 0.01)

	a := NewAnalyzer()
	if a.Window() != window.TypeRectangular || a.Detrend() {
		t.Fatalf("unexpected defaults: window=%v detrend=%v", a.Window(), a.Detrend())
	}

	got, err := a.AnalyzeSamples(tg, x)
	if err != nil {
		t.Fatal(err)
	}

	want, err := FromTimeSignal(tg, x)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got.Power(), want.Power(), 0)
}

func TestAnalyzerWindowPreservesTonePower(t *testing.T) {
	const fs = 1000.0
	for _, f := range []float64{50, 50.3} {
		x := testutil.DeterministicSine(f, fs, 1, 1000)
		series, err := signal.Uniform(x, 0, 1/fs)
		if err != nil {
			t.Fatal(err)
		}

		s, err := NewAnalyzer(WithWindow(window.TypeHann)).Analyze(series)
		if err != nil {
			t.Fatal(err)
		}

		testutil.RequireClose(t, "windowed tone power", s.TotalPower(), 0.5, 1e-3, 0)

		peak, _ := s.Peak()
		if math.Abs(peak-2*math.Pi*f) > s.Resolution() {
			t.Fatalf("f=%v: peak %v rad/s", f, peak)
		}
	}
}

func TestAnalyzerDetrendRemovesDC(t *testing.T) {
	const fs = 200.0
	x := testutil.DeterministicSine(20, fs, 1, 400)
	for i := range x {
		x[i] += 3
	}

	tg := testutil.TimeGrid(len(x), 1/fs)

	raw, err := NewAnalyzer().AnalyzeSamples(tg, x)
	if err != nil {
		t.Fatal(err)
	}
	if p := raw.Power()[0]; math.Abs(p-9) > 1e-9 {
		t.Fatalf("raw DC power=%v, want 9", p)
	}

	detrended, err := NewAnalyzer(WithDetrend(true)).AnalyzeSamples(tg, x)
	if err != nil {
		t.Fatal(err)
	}
	if p := detrended.Power()[0]; p > 1e-20 {
		t.Fatalf("detrended DC power=%v, want ~0", p)
	}
	testutil.RequireClose(t, "detrended total", detrended.TotalPower(), 0.5, 1e-9, 0)
}

func TestAnalyzerStepTolerance(t *testing.T) {
	tg := []float64{0, 1, 2.001, 3}
	x := []float64{1, 2, 3, 4}

	if _, err := NewAnalyzer().AnalyzeSamples(tg, x); !errors.Is(err, signal.ErrNonUniformGrid) {
		t.Fatalf("expected ErrNonUniformGrid, got %v", err)
	}

	if _, err := NewAnalyzer(WithStepTolerance(1e-2)).AnalyzeSamples(tg, x); err != nil {
		t.Fatalf("loose tolerance: %v", err)
	}
}

func TestAnalyzerZeroEnergyWindow(t *testing.T) {
	// A symmetric Hann window of length 2 is all zeros.
	series, err := signal.Uniform([]float64{1, 2}, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewAnalyzer(WithWindow(window.TypeHann)).Analyze(series); err == nil {
		t.Fatal("expected error for zero-energy window")
	}
}
