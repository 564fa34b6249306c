package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-health/dsp/core"
)

func ExampleApplySamplingOptions() {
	cfg := core.ApplySamplingOptions(
		core.WithSampleRate(2000),
		core.WithStepTolerance(1e-6),
	)

	fmt.Printf("sampleRate=%.0f tol=%g\n", cfg.SampleRate, cfg.StepTolerance)

	// Output:
	// sampleRate=2000 tol=1e-06
}

func ExampleClone() {
	ref := []float64{1, 2}
	owned := core.Clone(ref)
	ref[0] = 9

	fmt.Println(owned)

	// Output:
	// [1 2]
}
