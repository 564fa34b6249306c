package health_test

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/signal"
	"github.com/cwbudde/algo-health/health"
)

func ExampleTrain() {
	g := signal.NewGenerator(core.WithSampleRate(1000))
	tones := []signal.Tone{{FreqHz: 50, Amplitude: 1}, {FreqHz: 120, Amplitude: 0.3}}

	healthy, _ := g.Vibration(tones, 0, 2048)
	faulty, _ := g.Vibration(append(tones, signal.Tone{FreqHz: 230, Amplitude: 0.5}), 0, 2048)

	profile, err := health.Train(context.Background(), health.DefaultConvention(), map[string]health.TrainingSet{
		"motor": {Recordings: []signal.Series{healthy}},
	}, 0)
	if err != nil {
		panic(err)
	}

	scorer := health.NewScorer(profile)
	for _, rec := range []signal.Series{healthy, faulty} {
		scores, err := scorer.ScoreSeries(context.Background(), map[string]signal.Series{"motor": rec})
		if err != nil {
			panic(err)
		}
		fmt.Println(scores.Distances["motor"] > 0.05)
	}
	// Output:
	// false
	// true
}
