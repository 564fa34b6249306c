// Package chain simulates a one-dimensional chain of point masses coupled
// by springs, with both ends attached to fixed walls, and derives spectral
// quantities from it: normal modes, local densities of states and the
// spectral-pressure differential between two regions of the chain.
//
// Node i sits between spring i (to its left) and spring i+1 (to its right);
// spring 0 and spring N tie the end nodes to the walls. State is held in
// flat per-node buffers that only Step and the explicit setters mutate.
package chain

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
)

// Default physical parameters.
const (
	DefaultMass      = 1.0
	DefaultStiffness = 1.0
)

// Chain is a damped spring-mass chain with fixed ends. It is not safe for
// concurrent use; Clone it for independent runs.
type Chain struct {
	mass    []float64 // per node
	spring  []float64 // per spring, len(mass)+1
	damping float64

	x, v, a []float64
	time    float64
}

// Option configures New.
type Option func(*config)

type config struct {
	mass      float64
	stiffness float64
	damping   float64
}

// WithMass sets the mass of every node.
func WithMass(m float64) Option {
	return func(c *config) { c.mass = m }
}

// WithStiffness sets the stiffness of every spring.
func WithStiffness(k float64) Option {
	return func(c *config) { c.stiffness = k }
}

// WithDamping sets the viscous damping coefficient applied to every node.
func WithDamping(gamma float64) Option {
	return func(c *config) { c.damping = gamma }
}

// New returns a chain of n nodes at rest.
func New(n int, opts ...Option) (*Chain, error) {
	if n < 1 {
		return nil, fmt.Errorf("chain: need at least one node, got %d: %w", n, core.ErrDomain)
	}

	cfg := config{mass: DefaultMass, stiffness: DefaultStiffness}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := checkPositive("mass", cfg.mass); err != nil {
		return nil, err
	}
	if err := checkPositive("stiffness", cfg.stiffness); err != nil {
		return nil, err
	}
	if !core.IsFinite(cfg.damping) || cfg.damping < 0 {
		return nil, fmt.Errorf("chain: damping must be finite and >= 0: %v: %w", cfg.damping, core.ErrDomain)
	}

	c := &Chain{
		mass:    make([]float64, n),
		spring:  make([]float64, n+1),
		damping: cfg.damping,
		x:       make([]float64, n),
		v:       make([]float64, n),
		a:       make([]float64, n),
	}
	for i := range c.mass {
		c.mass[i] = cfg.mass
	}
	for j := range c.spring {
		c.spring[j] = cfg.stiffness
	}
	return c, nil
}

func checkPositive(name string, v float64) error {
	if !core.IsFinite(v) || v <= 0 {
		return fmt.Errorf("chain: %s must be finite and > 0: %v: %w", name, v, core.ErrDomain)
	}
	return nil
}

// Len returns the number of nodes.
func (c *Chain) Len() int { return len(c.mass) }

// Time returns the simulated time accumulated by Step since the last Reset.
func (c *Chain) Time() float64 { return c.time }

// Mass returns the mass of node i.
func (c *Chain) Mass(i int) float64 { return c.mass[i] }

// Spring returns the stiffness of spring j (0 and Len() are the wall springs).
func (c *Chain) Spring(j int) float64 { return c.spring[j] }

// Damping returns the damping coefficient.
func (c *Chain) Damping() float64 { return c.damping }

// Positions returns a copy of the node displacements.
func (c *Chain) Positions() []float64 { return core.Clone(c.x) }

// Velocities returns a copy of the node velocities.
func (c *Chain) Velocities() []float64 { return core.Clone(c.v) }

func (c *Chain) checkNode(i int) error {
	if i < 0 || i >= len(c.mass) {
		return fmt.Errorf("chain: node %d out of range [0,%d): %w", i, len(c.mass), core.ErrDomain)
	}
	return nil
}

// SetMass changes the mass of node i.
func (c *Chain) SetMass(i int, m float64) error {
	if err := c.checkNode(i); err != nil {
		return err
	}
	if err := checkPositive("mass", m); err != nil {
		return err
	}
	c.mass[i] = m
	c.updateAcceleration()
	return nil
}

// SetSpring changes the stiffness of spring j.
func (c *Chain) SetSpring(j int, k float64) error {
	if j < 0 || j >= len(c.spring) {
		return fmt.Errorf("chain: spring %d out of range [0,%d): %w", j, len(c.spring), core.ErrDomain)
	}
	if err := checkPositive("stiffness", k); err != nil {
		return err
	}
	c.spring[j] = k
	c.updateAcceleration()
	return nil
}

// SetDamping changes the damping coefficient.
func (c *Chain) SetDamping(gamma float64) error {
	if !core.IsFinite(gamma) || gamma < 0 {
		return fmt.Errorf("chain: damping must be finite and >= 0: %v: %w", gamma, core.ErrDomain)
	}
	c.damping = gamma
	c.updateAcceleration()
	return nil
}

// Displace sets the displacement of node i.
func (c *Chain) Displace(i int, x float64) error {
	if err := c.checkNode(i); err != nil {
		return err
	}
	if !core.IsFinite(x) {
		return fmt.Errorf("chain: displacement %v: %w", x, core.ErrNonFinite)
	}
	c.x[i] = x
	c.updateAcceleration()
	return nil
}

// Push sets the velocity of node i.
func (c *Chain) Push(i int, v float64) error {
	if err := c.checkNode(i); err != nil {
		return err
	}
	if !core.IsFinite(v) {
		return fmt.Errorf("chain: velocity %v: %w", v, core.ErrNonFinite)
	}
	c.v[i] = v
	c.updateAcceleration()
	return nil
}

// Reset returns every node to rest at zero displacement and zeroes the clock.
// Masses, springs and damping are kept.
func (c *Chain) Reset() {
	core.Zero(c.x)
	core.Zero(c.v)
	core.Zero(c.a)
	c.time = 0
}

// Clone returns an independent copy of the chain including its state.
func (c *Chain) Clone() *Chain {
	return &Chain{
		mass:    core.Clone(c.mass),
		spring:  core.Clone(c.spring),
		damping: c.damping,
		x:       core.Clone(c.x),
		v:       core.Clone(c.v),
		a:       core.Clone(c.a),
		time:    c.time,
	}
}

// StabilityLimit returns 2/omegaBound, where omegaBound >= the highest
// normal-mode frequency follows from Gershgorin discs of M^-1 K. Steps at
// or above the limit are rejected by Step.
func (c *Chain) StabilityLimit() float64 {
	bound := 0.0
	for i, m := range c.mass {
		r := 2 * (c.spring[i] + c.spring[i+1]) / m
		if r > bound {
			bound = r
		}
	}
	return 2 / math.Sqrt(bound)
}

// Step advances the chain by dt with velocity Verlet: a half kick with the
// current accelerations, a full drift, new accelerations from the new
// positions (damping acts on the half-step velocities), and a second half
// kick.
func (c *Chain) Step(dt float64) error {
	if !core.IsFinite(dt) || dt <= 0 {
		return fmt.Errorf("chain: time step must be finite and > 0: %v: %w", dt, core.ErrDomain)
	}
	if limit := c.StabilityLimit(); dt >= limit {
		return fmt.Errorf("chain: time step %v exceeds stability limit %v: %w", dt, limit, core.ErrDomain)
	}

	half := dt / 2
	for i := range c.v {
		c.v[i] += half * c.a[i]
	}
	for i := range c.x {
		c.x[i] += dt * c.v[i]
	}
	c.updateAcceleration()
	for i := range c.v {
		c.v[i] += half * c.a[i]
	}
	c.time += dt
	return nil
}

// updateAcceleration recomputes a = (F(x) - gamma v) / m.
func (c *Chain) updateAcceleration() {
	n := len(c.x)
	for i := range c.x {
		left, right := 0.0, 0.0
		if i > 0 {
			left = c.x[i-1]
		}
		if i < n-1 {
			right = c.x[i+1]
		}
		f := c.spring[i]*(left-c.x[i]) + c.spring[i+1]*(right-c.x[i])
		c.a[i] = (f - c.damping*c.v[i]) / c.mass[i]
	}
}

// KineticEnergy returns sum(m v^2 / 2).
func (c *Chain) KineticEnergy() float64 {
	e := 0.0
	for i, v := range c.v {
		e += 0.5 * c.mass[i] * v * v
	}
	return e
}

// PotentialEnergy returns sum(k (x_j - x_{j-1})^2 / 2) over all springs,
// with the walls at zero displacement.
func (c *Chain) PotentialEnergy() float64 {
	n := len(c.x)
	e := 0.0
	for j, k := range c.spring {
		left, right := 0.0, 0.0
		if j > 0 {
			left = c.x[j-1]
		}
		if j < n {
			right = c.x[j]
		}
		d := right - left
		e += 0.5 * k * d * d
	}
	return e
}

// Energy returns the total mechanical energy.
func (c *Chain) Energy() float64 {
	return c.KineticEnergy() + c.PotentialEnergy()
}
