package chain

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
)

func excitedChain(t *testing.T, n int, opts ...Option) *Chain {
	t.Helper()
	c, err := New(n, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Displace(n/2, 1); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewDefaults(t *testing.T) {
	c, err := New(5)
	if err != nil {
		t.Fatal(err)
	}

	if c.Len() != 5 || c.Mass(0) != DefaultMass || c.Spring(5) != DefaultStiffness || c.Damping() != 0 {
		t.Fatalf("unexpected defaults: len=%d m=%v k=%v gamma=%v", c.Len(), c.Mass(0), c.Spring(5), c.Damping())
	}

	if c.Energy() != 0 || c.Time() != 0 {
		t.Fatalf("new chain not at rest: E=%v t=%v", c.Energy(), c.Time())
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		n    int
		opts []Option
	}{
		{"no nodes", 0, nil},
		{"zero mass", 3, []Option{WithMass(0)}},
		{"nan stiffness", 3, []Option{WithStiffness(math.NaN())}},
		{"negative damping", 3, []Option{WithDamping(-0.1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.n, tt.opts...); !errors.Is(err, core.ErrDomain) {
				t.Fatalf("expected ErrDomain, got %v", err)
			}
		})
	}
}

func TestEnergyIncludesWallSprings(t *testing.T) {
	c, err := New(3, WithStiffness(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Displace(0, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Push(2, 3); err != nil {
		t.Fatal(err)
	}

	// Wall spring and spring to node 1 both stretch by 1: 2 * (0.5*2*1).
	if got := c.PotentialEnergy(); math.Abs(got-2) > 1e-15 {
		t.Fatalf("potential=%v, want 2", got)
	}
	if got := c.KineticEnergy(); math.Abs(got-4.5) > 1e-15 {
		t.Fatalf("kinetic=%v, want 4.5", got)
	}
	if got := c.Energy(); math.Abs(got-6.5) > 1e-15 {
		t.Fatalf("energy=%v, want 6.5", got)
	}
}

func TestUndampedEnergyConserved(t *testing.T) {
	for _, dt := range []float64{0.01, 0.05} {
		c := excitedChain(t, 50)
		e0 := c.Energy()

		for range 1000 {
			if err := c.Step(dt); err != nil {
				t.Fatal(err)
			}
		}

		drift := math.Abs(c.Energy()-e0) / e0
		if drift > 0.01 {
			t.Fatalf("dt=%v: relative energy drift %v after 1000 steps", dt, drift)
		}
	}
}

func TestDampedEnergyStrictlyDecreases(t *testing.T) {
	cases := []struct {
		gamma, dt float64
	}{
		{0.01, 0.01},
		{0.05, 0.01},
		{0.1, 0.05},
		{0.5, 0.05},
	}

	for _, tc := range cases {
		c := excitedChain(t, 50, WithDamping(tc.gamma))
		prev := c.Energy()

		for step := range 1000 {
			if err := c.Step(tc.dt); err != nil {
				t.Fatal(err)
			}
			e := c.Energy()
			if !(e < prev) {
				t.Fatalf("gamma=%v dt=%v: energy rose at step %d: %v -> %v", tc.gamma, tc.dt, step, prev, e)
			}
			prev = e
		}
	}
}

func TestStepValidation(t *testing.T) {
	c := excitedChain(t, 10)

	if limit := c.StabilityLimit(); math.Abs(limit-1) > 1e-15 {
		t.Fatalf("stability limit=%v, want 1 for unit chain", limit)
	}

	for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1), 1, 2} {
		if err := c.Step(dt); !errors.Is(err, core.ErrDomain) {
			t.Fatalf("dt=%v: expected ErrDomain, got %v", dt, err)
		}
	}

	if c.Time() != 0 {
		t.Fatalf("rejected steps advanced the clock to %v", c.Time())
	}
}

func TestSettersValidate(t *testing.T) {
	c := excitedChain(t, 4)

	if err := c.SetMass(4, 1); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("SetMass out of range: %v", err)
	}
	if err := c.SetMass(0, -1); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("SetMass negative: %v", err)
	}
	if err := c.SetSpring(5, 1); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("SetSpring out of range: %v", err)
	}
	if err := c.SetSpring(4, 2); err != nil {
		t.Fatalf("SetSpring wall spring: %v", err)
	}
	if err := c.SetDamping(math.Inf(1)); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("SetDamping inf: %v", err)
	}
	if err := c.Displace(0, math.NaN()); !errors.Is(err, core.ErrNonFinite) {
		t.Fatalf("Displace NaN: %v", err)
	}
	if err := c.Push(-1, 1); !errors.Is(err, core.ErrDomain) {
		t.Fatalf("Push out of range: %v", err)
	}
}

func TestStateIsOwned(t *testing.T) {
	c := excitedChain(t, 5)

	x := c.Positions()
	x[2] = 99

	if c.Positions()[2] != 1 {
		t.Fatal("Positions exposed internal buffer")
	}

	clone := c.Clone()
	if err := clone.Step(0.1); err != nil {
		t.Fatal(err)
	}

	if c.Time() != 0 || c.Positions()[2] != 1 {
		t.Fatal("stepping a clone changed the original")
	}
}

func TestReset(t *testing.T) {
	c := excitedChain(t, 5, WithDamping(0.2))
	for range 10 {
		if err := c.Step(0.1); err != nil {
			t.Fatal(err)
		}
	}

	c.Reset()

	if c.Energy() != 0 || c.Time() != 0 || c.Damping() != 0.2 {
		t.Fatalf("reset left state behind: E=%v t=%v gamma=%v", c.Energy(), c.Time(), c.Damping())
	}

	for range 10 {
		if err := c.Step(0.1); err != nil {
			t.Fatal(err)
		}
	}
	if c.Energy() != 0 {
		t.Fatalf("chain at rest gained energy: %v", c.Energy())
	}
}

func BenchmarkStep(b *testing.B) {
	c, err := New(1000)
	if err != nil {
		b.Fatal(err)
	}
	if err := c.Displace(500, 1); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()

	for b.Loop() {
		_ = c.Step(0.01)
	}
}
