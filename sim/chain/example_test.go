package chain_test

import (
	"fmt"

	"github.com/cwbudde/algo-health/sim/chain"
)

func ExampleChain_Modes() {
	c, err := chain.New(3)
	if err != nil {
		panic(err)
	}

	modes, err := c.Modes()
	if err != nil {
		panic(err)
	}

	for _, m := range modes {
		fmt.Printf("%.4f\n", m.Omega)
	}
	// Output:
	// 0.7654
	// 1.4142
	// 1.8478
}

func ExampleCalibrateStiffness() {
	k, res, err := chain.CalibrateStiffness(10, 1, 0.5)
	if err != nil {
		panic(err)
	}

	fmt.Printf("k=%.4f converged=%v\n", k, res.Converged)
	// Output: k=3.0859 converged=true
}
