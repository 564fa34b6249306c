package core

import (
	"math"
	"testing"
)

func TestApplySamplingOptions(t *testing.T) {
	def := DefaultSamplingConfig()

	tests := []struct {
		name string
		opts []SamplingOption
		want SamplingConfig
	}{
		{"defaults", nil, def},
		{
			"rate and tolerance",
			[]SamplingOption{WithSampleRate(2048), WithStepTolerance(1e-6)},
			SamplingConfig{SampleRate: 2048, StepTolerance: 1e-6},
		},
		{
			"last option wins",
			[]SamplingOption{WithSampleRate(500), WithSampleRate(25600)},
			SamplingConfig{SampleRate: 25600, StepTolerance: DefaultStepTolerance},
		},
		{
			"invalid values ignored",
			[]SamplingOption{
				WithSampleRate(0), WithSampleRate(math.NaN()), WithSampleRate(math.Inf(1)),
				WithStepTolerance(-1), WithStepTolerance(math.Inf(1)), nil,
			},
			def,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplySamplingOptions(tt.opts...); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
