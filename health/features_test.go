package health

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

func TestExtractFeaturesLayout(t *testing.T) {
	spec, err := spectrum.FromSeries(recording(t, 1, 0))
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n <= len(testBands); n++ {
		fv, err := ExtractFeatures(spec, FeatureConfig{Bands: testBands[:n]})
		if err != nil {
			t.Fatal(err)
		}
		if len(fv) != n+1 {
			t.Fatalf("%d bands: got %d features", n, len(fv))
		}
		if got := len(fv.BandPowers()); got != n {
			t.Fatalf("%d bands: BandPowers has %d elements", n, got)
		}
		if fv.Entropy() != spec.Entropy(false) {
			t.Fatalf("entropy %v, want %v", fv.Entropy(), spec.Entropy(false))
		}
	}
}

func TestExtractFeaturesBandOrder(t *testing.T) {
	spec, err := spectrum.FromSeries(recording(t, 1, 0))
	if err != nil {
		t.Fatal(err)
	}

	fv, err := ExtractFeatures(spec, FeatureConfig{Bands: testBands})
	if err != nil {
		t.Fatal(err)
	}
	reversed, err := ExtractFeatures(spec, FeatureConfig{Bands: []Band{testBands[2], testBands[1], testBands[0]}})
	if err != nil {
		t.Fatal(err)
	}

	for i := range testBands {
		want, err := spec.BandPower(testBands[i].Min, testBands[i].Max)
		if err != nil {
			t.Fatal(err)
		}
		if fv[i] != want || reversed[len(testBands)-1-i] != want {
			t.Fatalf("band %d: got %v and %v, want %v", i, fv[i], reversed[len(testBands)-1-i], want)
		}
	}

	// The 50 Hz line dominates the 120 Hz harmonic; the 230 Hz band holds
	// only noise.
	if !(fv[0] > fv[1] && fv[1] > 100*fv[2]) {
		t.Fatalf("unexpected band powers %v", fv.BandPowers())
	}
}

func TestExtractFeaturesExcludeDC(t *testing.T) {
	spec, err := spectrum.FromPower([]float64{0, 1, 2, 3}, []float64{2, 1, 1, 0})
	if err != nil {
		t.Fatal(err)
	}

	with, err := ExtractFeatures(spec, FeatureConfig{})
	if err != nil {
		t.Fatal(err)
	}
	without, err := ExtractFeatures(spec, FeatureConfig{ExcludeDC: true})
	if err != nil {
		t.Fatal(err)
	}

	// {0.5, 0.25, 0.25} and {0.5, 0.5}.
	wantWith := 0.5*math.Log(2) + 0.5*math.Log(4)
	if math.Abs(with.Entropy()-wantWith) > 1e-12 {
		t.Fatalf("entropy with DC %v, want %v", with.Entropy(), wantWith)
	}
	if math.Abs(without.Entropy()-math.Log(2)) > 1e-12 {
		t.Fatalf("entropy without DC %v, want ln 2", without.Entropy())
	}
}

func TestExtractFeaturesErrors(t *testing.T) {
	spec, err := spectrum.FromPower([]float64{0, 1, 2}, []float64{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	bad := []Band{
		{Min: 2, Max: 1},
		{Min: 1, Max: 1},
		{Min: -1, Max: 1},
		{Min: 0, Max: math.Inf(1)},
		{Min: math.NaN(), Max: 1},
	}
	for _, b := range bad {
		if _, err := ExtractFeatures(spec, FeatureConfig{Bands: []Band{b}}); !errors.Is(err, core.ErrDomain) {
			t.Fatalf("band %+v: expected ErrDomain, got %v", b, err)
		}
	}

	if _, err := ExtractFeatures(nil, FeatureConfig{}); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("nil spectrum: %v", err)
	}

	var empty FeatureVector
	if !math.IsNaN(empty.Entropy()) || empty.BandPowers() != nil {
		t.Fatal("empty vector accessors")
	}
}
