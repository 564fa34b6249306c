package rootfind_test

import (
	"fmt"

	"github.com/cwbudde/algo-health/dsp/rootfind"
)

func ExampleFind() {
	res, err := rootfind.Find(func(x float64) float64 { return x*x*x - 2 }, 1, rootfind.WithTolerance(1e-6))
	if err != nil {
		panic(err)
	}

	fmt.Printf("root=%.6f converged=%v iterations=%d\n", res.Root, res.Converged, res.Iterations)
	// Output:
	// root=1.259921 converged=true iterations=4
}
