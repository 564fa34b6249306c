package chain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/rootfind"
)

// Mode is a normal mode of the undamped chain.
type Mode struct {
	// Omega is the angular eigenfrequency in rad/s.
	Omega float64
	// Shape is the displacement pattern, normalised so that
	// sum(m_i Shape_i^2) = 1.
	Shape []float64
}

// Modes solves K v = omega^2 M v for the undamped chain and returns the
// modes in ascending frequency. The generalised problem is reduced to the
// symmetric matrix M^-1/2 K M^-1/2 and handed to gonum's EigenSym.
func (c *Chain) Modes() ([]Mode, error) {
	n := len(c.mass)
	invSqrtM := make([]float64, n)
	for i, m := range c.mass {
		invSqrtM[i] = 1 / math.Sqrt(m)
	}

	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, (c.spring[i]+c.spring[i+1])*invSqrtM[i]*invSqrtM[i])
		if i+1 < n {
			a.SetSym(i, i+1, -c.spring[i+1]*invSqrtM[i]*invSqrtM[i+1])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, fmt.Errorf("chain: eigen decomposition of %d-node chain failed: %w", n, core.ErrDomain)
	}

	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	modes := make([]Mode, n)
	for j := range modes {
		shape := make([]float64, n)
		for i := range shape {
			shape[i] = vecs.At(i, j) * invSqrtM[i]
		}
		modes[j] = Mode{Omega: math.Sqrt(math.Max(values[j], 0)), Shape: shape}
	}
	return modes, nil
}

// LocalDensity returns, per node, the local density of states in the
// window [omegaMin, omegaMax]: the sum of m_i Shape_i^2 over the modes whose
// frequency falls inside the window. Summed over all modes every node has
// density 1.
func (c *Chain) LocalDensity(omegaMin, omegaMax float64) ([]float64, error) {
	if math.IsNaN(omegaMin) || math.IsNaN(omegaMax) || omegaMin > omegaMax {
		return nil, fmt.Errorf("chain: frequency window [%v, %v]: %w", omegaMin, omegaMax, core.ErrDomain)
	}

	modes, err := c.Modes()
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(c.mass))
	for _, mode := range modes {
		if mode.Omega < omegaMin || mode.Omega > omegaMax {
			continue
		}
		for i, v := range mode.Shape {
			out[i] += c.mass[i] * v * v
		}
	}
	return out, nil
}

// CalibrateStiffness finds the uniform spring stiffness that puts the
// fundamental mode of an n-node chain with uniform mass at omegaTarget.
// The search runs on log(k) with the central-difference Newton solver, so
// every trial stiffness stays positive.
func CalibrateStiffness(n int, mass, omegaTarget float64, opts ...rootfind.Option) (float64, rootfind.Result, error) {
	if err := checkPositive("target frequency", omegaTarget); err != nil {
		return 0, rootfind.Result{}, err
	}
	if _, err := New(n, WithMass(mass)); err != nil {
		return 0, rootfind.Result{}, err
	}

	var evalErr error
	fundamental := func(logK float64) float64 {
		c, err := New(n, WithMass(mass), WithStiffness(math.Exp(logK)))
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		modes, err := c.Modes()
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return modes[0].Omega - omegaTarget
	}

	res, err := rootfind.Find(fundamental, 0, opts...)
	if err != nil {
		return 0, res, fmt.Errorf("chain: calibrate stiffness: %w", err)
	}
	if !res.Converged && evalErr != nil {
		return 0, res, fmt.Errorf("chain: calibrate stiffness: %w", evalErr)
	}
	return math.Exp(res.Root), res, nil
}
