// Package rootfind solves scalar equations f(x) = 0 with a Newton iteration
// whose derivative is estimated by symmetric (central) differences, so f
// never has to be differentiated analytically.
//
// Non-convergence is not an error: [Find] reports it through
// [Result.Converged]. Errors are reserved for invalid input (nil function,
// non-finite start, non-finite f(x0), bad options).
package rootfind

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
)

// Default solver settings.
const (
	DefaultTolerance    = 1e-8
	DefaultMaxIter      = 50
	DefaultStep         = 1e-6
	DefaultRetries      = 8
	DefaultBacktracking = 5

	// minDerivative is the magnitude below which a derivative estimate is
	// treated as zero.
	minDerivative = 1e-12
)

// Func is a scalar function of one variable.
type Func func(x float64) float64

// Result is the outcome of a Find call.
type Result struct {
	// Root is the last accepted estimate.
	Root float64
	// Converged reports |f(Root)| < tolerance.
	Converged bool
	// Stagnated reports that no usable derivative could be estimated
	// within the retry budget, or that every step left the domain of f.
	Stagnated bool
	// Iterations is the number of Newton steps taken.
	Iterations int
	// History holds |f(x_k)| for the start and every accepted estimate.
	History []float64
}

// Residual returns the last entry of History.
func (r Result) Residual() float64 {
	if len(r.History) == 0 {
		return math.NaN()
	}
	return r.History[len(r.History)-1]
}

// Option configures Find.
type Option func(*config)

type config struct {
	tol       float64
	maxIter   int
	h0        float64
	retries   int
	backtrack int
}

func defaultConfig() config {
	return config{
		tol:       DefaultTolerance,
		maxIter:   DefaultMaxIter,
		h0:        DefaultStep,
		retries:   DefaultRetries,
		backtrack: DefaultBacktracking,
	}
}

// WithTolerance sets the residual threshold |f(x)| < tol for success.
func WithTolerance(tol float64) Option {
	return func(c *config) { c.tol = tol }
}

// WithMaxIter sets the maximum number of Newton steps.
func WithMaxIter(n int) Option {
	return func(c *config) { c.maxIter = n }
}

// WithStep sets the initial half-width h0 of the central difference.
func WithStep(h float64) Option {
	return func(c *config) { c.h0 = h }
}

// WithRetries sets how often h is halved when the derivative estimate is
// unusable before the iteration gives up.
func WithRetries(n int) Option {
	return func(c *config) { c.retries = n }
}

// WithBacktracking sets how often a Newton step is halved while it fails
// to reduce |f|. Zero disables backtracking.
func WithBacktracking(n int) Option {
	return func(c *config) { c.backtrack = n }
}

func (c config) validate() error {
	switch {
	case !core.IsFinite(c.tol) || c.tol <= 0:
		return fmt.Errorf("rootfind: tolerance must be finite and > 0: %v: %w", c.tol, core.ErrDomain)
	case !core.IsFinite(c.h0) || c.h0 <= 0:
		return fmt.Errorf("rootfind: step must be finite and > 0: %v: %w", c.h0, core.ErrDomain)
	case c.maxIter < 0:
		return fmt.Errorf("rootfind: max iterations must be >= 0: %d: %w", c.maxIter, core.ErrDomain)
	case c.retries < 0:
		return fmt.Errorf("rootfind: retries must be >= 0: %d: %w", c.retries, core.ErrDomain)
	case c.backtrack < 0:
		return fmt.Errorf("rootfind: backtracking must be >= 0: %d: %w", c.backtrack, core.ErrDomain)
	}
	return nil
}

// Find searches a root of f starting at x0.
//
// Each iteration estimates f'(x) ≈ (f(x+h) - f(x-h)) / 2h. If the estimate
// is non-finite, (near) zero, or yields a non-finite Newton target, h is
// halved and the estimate retried. The Newton step is then halved while
// the new residual is non-finite or not smaller than the current one; the
// last candidate is accepted when the budget runs out.
func Find(f Func, x0 float64, opts ...Option) (Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if f == nil {
		return Result{}, fmt.Errorf("rootfind: nil function: %w", core.ErrDomain)
	}
	if !core.IsFinite(x0) {
		return Result{}, fmt.Errorf("rootfind: start %v: %w: %w", x0, core.ErrNonFinite, core.ErrDomain)
	}

	x := x0
	fx := f(x)
	if !core.IsFinite(fx) {
		return Result{}, fmt.Errorf("rootfind: f(%v) = %v: %w: %w", x0, fx, core.ErrNonFinite, core.ErrDomain)
	}

	res := Result{Root: x, History: []float64{math.Abs(fx)}}

	for k := 0; ; k++ {
		if math.Abs(fx) < cfg.tol {
			res.Converged = true
			res.Iterations = k
			return res, nil
		}
		if k >= cfg.maxIter {
			res.Iterations = k
			return res, nil
		}

		step, ok := newtonStep(f, x, fx, cfg)
		if !ok {
			res.Stagnated = true
			res.Iterations = k
			return res, nil
		}

		xn := x - step
		fn := f(xn)
		for b := 0; b < cfg.backtrack && (!core.IsFinite(fn) || math.Abs(fn) >= math.Abs(fx)); b++ {
			step /= 2
			xn = x - step
			fn = f(xn)
		}
		if !core.IsFinite(fn) {
			res.Stagnated = true
			res.Iterations = k
			return res, nil
		}

		x, fx = xn, fn
		res.Root = x
		res.History = append(res.History, math.Abs(fx))
	}
}

// newtonStep returns f(x)/f'(x) with f' from central differences, halving
// h on unusable estimates.
func newtonStep(f Func, x, fx float64, cfg config) (float64, bool) {
	h := cfg.h0
	for try := 0; try <= cfg.retries; try++ {
		d := (f(x+h) - f(x-h)) / (2 * h)
		if core.IsFinite(d) && math.Abs(d) >= minDerivative {
			step := fx / d
			if core.IsFinite(x - step) {
				return step, true
			}
		}
		h /= 2
	}
	return 0, false
}
