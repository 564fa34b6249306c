package rootfind

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-health/dsp/core"
)

func cubeMinusTwo(x float64) float64 { return x*x*x - 2 }

func TestFindCubeRoot(t *testing.T) {
	res, err := Find(cubeMinusTwo, 1.0, WithTolerance(1e-6))
	if err != nil {
		t.Fatal(err)
	}

	if !res.Converged || res.Stagnated {
		t.Fatalf("expected convergence: %+v", res)
	}

	if math.Abs(res.Root-math.Cbrt(2)) > 1e-6 {
		t.Fatalf("root=%v, want %v", res.Root, math.Cbrt(2))
	}

	if res.Iterations != 4 {
		t.Fatalf("iterations=%d, want 4", res.Iterations)
	}

	if len(res.History) != res.Iterations+1 {
		t.Fatalf("history has %d entries for %d iterations", len(res.History), res.Iterations)
	}

	if res.History[0] != 1 {
		t.Fatalf("history[0]=%v, want |f(1)|=1", res.History[0])
	}

	for i := 1; i < len(res.History); i++ {
		if res.History[i] >= res.History[i-1] {
			t.Fatalf("residual not decreasing at %d: %v", i, res.History)
		}
	}

	if res.Residual() >= 1e-6 {
		t.Fatalf("residual=%v", res.Residual())
	}
}

func TestFindNotConvergedWithinBudget(t *testing.T) {
	res, err := Find(cubeMinusTwo, 0.01, WithMaxIter(3))
	if err != nil {
		t.Fatalf("non-convergence must not be an error: %v", err)
	}

	if res.Converged {
		t.Fatalf("expected no convergence from a flat start: %+v", res)
	}

	if res.Iterations != 3 || len(res.History) != 4 {
		t.Fatalf("iterations=%d history=%d, want 3 and 4", res.Iterations, len(res.History))
	}
}

func TestFindTranscendental(t *testing.T) {
	res, err := Find(func(x float64) float64 { return math.Cos(x) - x }, 1)
	if err != nil {
		t.Fatal(err)
	}

	if !res.Converged {
		t.Fatalf("expected convergence: %+v", res)
	}

	if math.Abs(res.Root-0.7390851332151607) > 1e-8 {
		t.Fatalf("root=%v", res.Root)
	}
}

func TestFindLinearInOneStep(t *testing.T) {
	res, err := Find(func(x float64) float64 { return 3*x - 6 }, 0)
	if err != nil {
		t.Fatal(err)
	}

	if !res.Converged || res.Iterations != 1 {
		t.Fatalf("expected one Newton step: %+v", res)
	}
}

func TestFindStartAtRoot(t *testing.T) {
	res, err := Find(func(x float64) float64 { return x - 2 }, 2)
	if err != nil {
		t.Fatal(err)
	}

	if !res.Converged || res.Iterations != 0 || res.Root != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFindZeroIterationBudget(t *testing.T) {
	res, err := Find(cubeMinusTwo, 1, WithMaxIter(0))
	if err != nil {
		t.Fatal(err)
	}

	if res.Converged || res.Iterations != 0 || res.Root != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFindFlatFunctionStagnates(t *testing.T) {
	res, err := Find(func(float64) float64 { return 1 }, 0)
	if err != nil {
		t.Fatal(err)
	}

	if res.Converged || !res.Stagnated || res.Iterations != 0 {
		t.Fatalf("expected stagnation: %+v", res)
	}
}

func TestFindBacktrackingRescuesOvershoot(t *testing.T) {
	// Plain Newton on atan diverges for |x0| > ~1.39.
	plain, err := Find(math.Atan, 1.5, WithBacktracking(0), WithMaxIter(10))
	if err != nil {
		t.Fatal(err)
	}

	if plain.Converged {
		t.Fatalf("expected plain Newton to fail: %+v", plain)
	}

	damped, err := Find(math.Atan, 1.5, WithMaxIter(10))
	if err != nil {
		t.Fatal(err)
	}

	if !damped.Converged || math.Abs(damped.Root) > 1e-8 {
		t.Fatalf("expected backtracking to converge: %+v", damped)
	}
}

func TestFindDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		f    Func
		x0   float64
		opts []Option
	}{
		{"nil function", nil, 0, nil},
		{"nan start", cubeMinusTwo, math.NaN(), nil},
		{"inf start", cubeMinusTwo, math.Inf(1), nil},
		{"non-finite f(x0)", func(x float64) float64 { return 1 / x }, 0, nil},
		{"zero tolerance", cubeMinusTwo, 1, []Option{WithTolerance(0)}},
		{"negative step", cubeMinusTwo, 1, []Option{WithStep(-1)}},
		{"negative max iter", cubeMinusTwo, 1, []Option{WithMaxIter(-1)}},
		{"negative retries", cubeMinusTwo, 1, []Option{WithRetries(-1)}},
		{"negative backtracking", cubeMinusTwo, 1, []Option{WithBacktracking(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Find(tt.f, tt.x0, tt.opts...)
			if !errors.Is(err, core.ErrDomain) {
				t.Fatalf("expected ErrDomain, got %v", err)
			}
		})
	}

	_, err := Find(cubeMinusTwo, math.NaN())
	if !errors.Is(err, core.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite for NaN start, got %v", err)
	}
}

func TestResidualEmptyHistory(t *testing.T) {
	if !math.IsNaN((Result{}).Residual()) {
		t.Fatal("expected NaN residual without history")
	}
}

func BenchmarkFindCubeRoot(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		_, _ = Find(cubeMinusTwo, 1)
	}
}
