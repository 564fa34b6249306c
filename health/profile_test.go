package health

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

var testChannels = []string{"bearing", "motor", "pump"}

func trainTestProfile(t *testing.T) *Profile {
	t.Helper()
	sets := make(map[string]TrainingSet)
	for i, name := range testChannels {
		sets[name] = TrainingSet{
			Recordings: []signal.Series{recording(t, int64(10*i+1), 0), recording(t, int64(10*i+2), 0)},
			Bands:      testBands,
		}
	}
	p, err := Train(context.Background(), DefaultConvention(), sets, 2)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func analyzeAll(t *testing.T, p *Profile, series map[string]signal.Series) map[string]*spectrum.Spectrum {
	t.Helper()
	out := make(map[string]*spectrum.Spectrum, len(series))
	for name, s := range series {
		a, err := p.Convention().Analyzer()
		if err != nil {
			t.Fatal(err)
		}
		spec, err := a.Analyze(s)
		if err != nil {
			t.Fatal(err)
		}
		out[name] = spec
	}
	return out
}

func TestTrainBuildsEveryChannel(t *testing.T) {
	p := trainTestProfile(t)

	if !reflect.DeepEqual(p.Names(), testChannels) {
		t.Fatalf("names %v", p.Names())
	}
	for _, name := range testChannels {
		ch, ok := p.Channel(name)
		if !ok {
			t.Fatalf("channel %q missing", name)
		}
		if ch.Spectrum.Len() != testSamples/2+1 {
			t.Fatalf("%q: %d reference bins", name, ch.Spectrum.Len())
		}
		if ch.Features == nil || ch.Features.Len() != len(testBands)+1 {
			t.Fatalf("%q: feature signature %+v", name, ch.Features)
		}
		sum := 0.0
		for _, v := range ch.Spectrum.Power() {
			sum += v
		}
		if d := sum - 1; d > 1e-12 || d < -1e-12 {
			t.Fatalf("%q: reference power sums to %v", name, sum)
		}
	}
	if _, ok := p.Channel("gearbox"); ok {
		t.Fatal("unexpected channel")
	}
}

func TestScoreSeparatesFaultFromHealthy(t *testing.T) {
	p := trainTestProfile(t)
	scorer := NewScorer(p)

	healthy, err := scorer.ScoreSeries(context.Background(), map[string]signal.Series{
		"motor": recording(t, 99, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	faulty, err := scorer.ScoreSeries(context.Background(), map[string]signal.Series{
		"motor": recording(t, 99, 0.5),
	})
	if err != nil {
		t.Fatal(err)
	}

	h, f := healthy.Distances["motor"], faulty.Distances["motor"]
	if !(h < 0.01) || !(f > 10*h) {
		t.Fatalf("healthy %v faulty %v", h, f)
	}

	hf, err := scorer.ScoreSeriesFeatures(context.Background(), map[string]signal.Series{"motor": recording(t, 99, 0)})
	if err != nil {
		t.Fatal(err)
	}
	ff, err := scorer.ScoreSeriesFeatures(context.Background(), map[string]signal.Series{"motor": recording(t, 99, 0.5)})
	if err != nil {
		t.Fatal(err)
	}
	if !(ff.Distances["motor"] > hf.Distances["motor"]) {
		t.Fatalf("feature distance healthy %v faulty %v", hf.Distances["motor"], ff.Distances["motor"])
	}
}

func TestScoreTrainingRecordingIsZero(t *testing.T) {
	rec := recording(t, 7, 0)
	r := hzBand(10, 300)
	p, err := Train(context.Background(), DefaultConvention(), map[string]TrainingSet{
		"motor": {Recordings: []signal.Series{rec}, Range: &r},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	ch, _ := p.Channel("motor")
	if ch.Features != nil {
		t.Fatal("feature signature without bands")
	}

	scores, err := NewScorer(p).ScoreSeries(context.Background(), map[string]signal.Series{"motor": rec})
	if err != nil {
		t.Fatal(err)
	}
	if d := scores.Distances["motor"]; d != 0 {
		t.Fatalf("training recording scored %v", d)
	}

	spec, err := p.Analyze("motor", rec)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Len() != ch.Spectrum.Len() || spec.MaxOmega() > r.Max {
		t.Fatalf("analysis not cropped: %d bins up to %v", spec.Len(), spec.MaxOmega())
	}
	if _, err := p.Analyze("gearbox", rec); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("unknown channel: %v", err)
	}
}

func TestScoreCoverageGaps(t *testing.T) {
	p := trainTestProfile(t)
	current := analyzeAll(t, p, map[string]signal.Series{
		"motor":   recording(t, 5, 0),
		"gearbox": recording(t, 6, 0),
	})

	scores, err := p.Score(current)
	if err != nil {
		t.Fatal(err)
	}

	if len(scores.Distances) != 1 {
		t.Fatalf("distances %v", scores.Distances)
	}
	if _, ok := scores.Distances["motor"]; !ok {
		t.Fatal("motor not scored")
	}
	if !reflect.DeepEqual(scores.Missing, []string{"bearing", "pump"}) {
		t.Fatalf("missing %v", scores.Missing)
	}
	if !reflect.DeepEqual(scores.Unknown, []string{"gearbox"}) {
		t.Fatalf("unknown %v", scores.Unknown)
	}
	if scores.Complete() {
		t.Fatal("scores with gaps reported complete")
	}

	empty, err := p.Score(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Distances) != 0 || len(empty.Missing) != len(testChannels) {
		t.Fatalf("empty input: %+v", empty)
	}
}

func TestScoreFeaturesGaps(t *testing.T) {
	p := trainTestProfile(t)
	current := analyzeAll(t, p, map[string]signal.Series{
		"motor": recording(t, 5, 0),
		"pump":  recording(t, 6, 0),
	})

	scores, err := p.ScoreFeatures(current, map[string][]Band{"motor": testBands})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := scores.Distances["motor"]; !ok || len(scores.Distances) != 1 {
		t.Fatalf("distances %v", scores.Distances)
	}
	if !reflect.DeepEqual(scores.Missing, []string{"bearing", "pump"}) {
		t.Fatalf("missing %v", scores.Missing)
	}

	if _, err := p.ScoreFeatures(current, map[string][]Band{"motor": testBands[:2]}); !errors.Is(err, core.ErrShapeMismatch) {
		t.Fatalf("fewer bands than trained: %v", err)
	}
}

func TestScoreGridMismatchIsError(t *testing.T) {
	p := trainTestProfile(t)
	short, err := recording(t, 5, 0).Concat(recording(t, 6, 0), 0)
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewScorer(p).ScoreSeries(context.Background(), map[string]signal.Series{"motor": short})
	if !errors.Is(err, spectrum.ErrGridMismatch) {
		t.Fatalf("expected ErrGridMismatch, got %v", err)
	}
}

func TestScorerWorkersAgree(t *testing.T) {
	p := trainTestProfile(t)
	current := map[string]signal.Series{
		"bearing": recording(t, 41, 0.2),
		"motor":   recording(t, 42, 0),
		"pump":    recording(t, 43, 0.4),
	}

	want, err := NewScorer(p, WithWorkers(1)).ScoreSeries(context.Background(), current)
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{0, 2, 8} {
		got, err := NewScorer(p, WithWorkers(workers)).ScoreSeries(context.Background(), current)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("workers=%d: %+v != %+v", workers, got, want)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScorer(p).ScoreSeries(ctx, current); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context: %v", err)
	}
}

func TestTrainCombineModes(t *testing.T) {
	a, b := recording(t, 1, 0), recording(t, 2, 0)

	p, err := Train(context.Background(), DefaultConvention(), map[string]TrainingSet{
		"avg":    {Recordings: []signal.Series{a, b}, Combine: CombineAverage},
		"concat": {Recordings: []signal.Series{a, b}, Combine: CombineConcatenate},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	avg, _ := p.Channel("avg")
	concat, _ := p.Channel("concat")
	if avg.Spectrum.Len() != testSamples/2+1 || concat.Spectrum.Len() != testSamples+1 {
		t.Fatalf("bins: average %d concatenate %d", avg.Spectrum.Len(), concat.Spectrum.Len())
	}

	for _, s := range []string{"average", "Concat", ""} {
		if _, err := ParseCombineMode(s); err != nil {
			t.Fatalf("ParseCombineMode(%q): %v", s, err)
		}
	}
	if _, err := ParseCombineMode("median"); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("unknown mode: %v", err)
	}
	if CombineConcatenate.String() != "concatenate" {
		t.Fatal(CombineConcatenate.String())
	}
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	rec := recording(t, 1, 0)

	g := signal.NewGenerator(core.WithSampleRate(2 * testRate))
	fast, err := g.Vibration([]signal.Tone{{FreqHz: 50, Amplitude: 1}}, 0, testSamples)
	if err != nil {
		t.Fatal(err)
	}
	short, err := signal.Uniform(make([]float64, 100), 0, 1/testRate)
	if err != nil {
		t.Fatal(err)
	}

	bad := Convention{Window: "gauss", Normalization: NormalizationUnitSum}
	if _, err := Train(ctx, bad, map[string]TrainingSet{"m": {Recordings: []signal.Series{rec}}}, 1); err == nil {
		t.Fatal("unknown window accepted")
	}

	tests := []struct {
		name string
		set  TrainingSet
		want error
	}{
		{"no recordings", TrainingSet{}, core.ErrDomain},
		{"average grids differ", TrainingSet{Recordings: []signal.Series{rec, short}}, spectrum.ErrGridMismatch},
		{"concat steps differ", TrainingSet{Recordings: []signal.Series{rec, fast}, Combine: CombineConcatenate}, signal.ErrNonUniformGrid},
		{"bad band", TrainingSet{Recordings: []signal.Series{rec}, Bands: []Band{{Min: 3, Max: 1}}}, core.ErrDomain},
		{"bad range", TrainingSet{Recordings: []signal.Series{rec}, Range: &Band{Min: 3, Max: 1}}, core.ErrDomain},
		{"bad mode", TrainingSet{Recordings: []signal.Series{rec}, Combine: CombineMode(7)}, core.ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Train(ctx, DefaultConvention(), map[string]TrainingSet{"m": tt.set}, 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Train(ctx, DefaultConvention(), nil, 1); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("no sets: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	p := trainTestProfile(t)

	raw, err := json.Marshal(p.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}

	if restored.Convention() != p.Convention() {
		t.Fatalf("convention %+v != %+v", restored.Convention(), p.Convention())
	}

	current := map[string]signal.Series{
		"bearing": recording(t, 51, 0.3),
		"motor":   recording(t, 52, 0),
		"pump":    recording(t, 53, 0.1),
	}
	for _, score := range []func(*Scorer) (Scores, error){
		func(s *Scorer) (Scores, error) { return s.ScoreSeries(context.Background(), current) },
		func(s *Scorer) (Scores, error) { return s.ScoreSeriesFeatures(context.Background(), current) },
	} {
		want, err := score(NewScorer(p))
		if err != nil {
			t.Fatal(err)
		}
		got, err := score(NewScorer(restored))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("restored profile scores %+v, want %+v", got, want)
		}
	}
}

func TestFromSnapshotErrors(t *testing.T) {
	snap := trainTestProfile(t).Snapshot()

	wrongVersion := snap
	wrongVersion.Version = 99
	if _, err := FromSnapshot(wrongVersion); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("version: %v", err)
	}

	dup := snap
	dup.Channels = append([]ChannelSnapshot{snap.Channels[0]}, snap.Channels...)
	if _, err := FromSnapshot(dup); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("duplicate: %v", err)
	}

	truncated := snap
	truncated.Channels = []ChannelSnapshot{snap.Channels[0]}
	truncated.Channels[0].Bands = truncated.Channels[0].Bands[:1]
	if _, err := FromSnapshot(truncated); !errors.Is(err, core.ErrShapeMismatch) {
		t.Fatalf("features without matching bands: %v", err)
	}

	empty := snap
	empty.Channels = nil
	if _, err := FromSnapshot(empty); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("no channels: %v", err)
	}
}

func TestProfileIsolation(t *testing.T) {
	p := trainTestProfile(t)

	names := p.Names()
	names[0] = "changed"
	if p.Names()[0] != "bearing" {
		t.Fatal("Names exposed internal slice")
	}

	ch, _ := p.Channel("motor")
	ch.FeatureConfig.Bands[0] = Band{Min: 1, Max: 2}
	again, _ := p.Channel("motor")
	if again.FeatureConfig.Bands[0] == ch.FeatureConfig.Bands[0] {
		t.Fatal("Channel exposed internal band slice")
	}
}

func TestConvention(t *testing.T) {
	c := DefaultConvention()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Window != "hann" || !c.Detrend || c.ExcludeDC {
		t.Fatalf("defaults %+v", c)
	}

	c.Normalization = "density"
	if err := c.Validate(); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("unknown normalisation: %v", err)
	}
}

func BenchmarkScoreSeries(b *testing.B) {
	sets := make(map[string]TrainingSet)
	current := make(map[string]signal.Series)
	for i := range 8 {
		name := string(rune('a' + i))
		sets[name] = TrainingSet{Recordings: []signal.Series{recording(b, int64(i), 0)}}
		current[name] = recording(b, int64(100+i), 0.2)
	}
	p, err := Train(context.Background(), DefaultConvention(), sets, 0)
	if err != nil {
		b.Fatal(err)
	}
	scorer := NewScorer(p)

	for b.Loop() {
		_, _ = scorer.ScoreSeries(context.Background(), current)
	}
}
