package spectrum

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-health/dsp/core"
)

var (
	// ErrGridMismatch reports spectra sampled on different frequency grids.
	ErrGridMismatch = fmt.Errorf("%w: frequency grids differ", core.ErrShapeMismatch)

	// ErrZeroPower reports a spectrum whose total power is zero where a
	// normalisation was requested.
	ErrZeroPower = errors.New("spectrum has zero total power")
)

// GridTolerance is the relative tolerance used when comparing two frequency
// grids for equality.
const GridTolerance = 1e-9
