package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-health/dsp/core"
)

// ErrUnknownType is returned by ParseType for names it does not recognise.
// It wraps core.ErrDomain.
var ErrUnknownType = fmt.Errorf("window: unknown type: %w", core.ErrDomain)

var (
	errEmptyCoeffs      = fmt.Errorf("window: no coefficients: %w", core.ErrDomain)
	errZeroCoherentGain = fmt.Errorf("window: coefficients sum to zero: %w", core.ErrDomain)
	errMismatchedLength = fmt.Errorf("window: sample and coefficient counts differ: %w", core.ErrShapeMismatch)
)

func unknownTypeError(name string) error {
	return fmt.Errorf("%w %q (want one of %s)", ErrUnknownType, name, typeNames())
}

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("window: size %d must be > 0: %w", size, core.ErrDomain)
	}
	return nil
}

func validateKaiser(size int, beta float64) error {
	if err := validateLength(size); err != nil {
		return err
	}
	if !(beta >= 0) || math.IsInf(beta, 1) {
		return fmt.Errorf("window: kaiser beta %v must be finite and >= 0: %w", beta, core.ErrDomain)
	}
	return nil
}

func validateTukey(size int, alpha float64) error {
	if err := validateLength(size); err != nil {
		return err
	}
	if !(alpha >= 0 && alpha <= 1) {
		return fmt.Errorf("window: tukey alpha %v must be in [0, 1]: %w", alpha, core.ErrDomain)
	}
	return nil
}

func typeNames() string {
	names := make([]string, 0, len(Types()))
	for _, t := range Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
