package frequency_test

import (
	"fmt"

	"github.com/cwbudde/algo-health/dsp/spectrum"
	"github.com/cwbudde/algo-health/stats/frequency"
)

func ExampleCalculate() {
	s, _ := spectrum.FromPower([]float64{0, 1, 2, 3, 4}, []float64{0, 1, 4, 1, 0})
	d, _ := frequency.Calculate(s)
	fmt.Printf("peak=%.0f centroid=%.1f bandwidth=%.1f\n", d.PeakOmega, d.Centroid, d.Bandwidth)

	// Output:
	// peak=2 centroid=2.0 bandwidth=1.3
}
