package spectrum

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-health/dsp/core"
)

// Spectrum is a one-sided spectrum of a real signal: angular frequencies in
// rad/s (non-negative, strictly ascending), complex amplitudes and their
// phases. A Spectrum is immutable; it owns its arrays and every accessor
// returns a copy.
type Spectrum struct {
	omega     []float64
	amplitude []complex128
	phase     []float64
}

// New builds a spectrum from a frequency grid and complex amplitudes. Both
// slices are copied.
func New(omega []float64, amplitude []complex128) (*Spectrum, error) {
	if len(omega) != len(amplitude) {
		return nil, fmt.Errorf("spectrum: omega has %d bins, amplitude %d: %w",
			len(omega), len(amplitude), core.ErrShapeMismatch)
	}
	if err := validateOmega(omega); err != nil {
		return nil, err
	}
	for i, a := range amplitude {
		if !core.IsFinite(real(a)) || !core.IsFinite(imag(a)) {
			return nil, fmt.Errorf("spectrum: amplitude[%d] = %v: %w", i, a, core.ErrNonFinite)
		}
	}

	amp := make([]complex128, len(amplitude))
	copy(amp, amplitude)

	return &Spectrum{
		omega:     core.Clone(omega),
		amplitude: amp,
		phase:     Phase(amp),
	}, nil
}

// FromPower builds a zero-phase spectrum whose bin powers equal power.
func FromPower(omega, power []float64) (*Spectrum, error) {
	if len(omega) != len(power) {
		return nil, fmt.Errorf("spectrum: omega has %d bins, power %d: %w",
			len(omega), len(power), core.ErrShapeMismatch)
	}
	if err := core.CheckFinite("spectrum power", power); err != nil {
		return nil, err
	}

	amp := make([]complex128, len(power))
	for i, p := range power {
		if p < 0 {
			return nil, fmt.Errorf("spectrum: power[%d] = %v is negative: %w", i, p, core.ErrDomain)
		}
		amp[i] = complex(math.Sqrt(p), 0)
	}

	return New(omega, amp)
}

func validateOmega(omega []float64) error {
	if len(omega) == 0 {
		return fmt.Errorf("spectrum: empty frequency grid: %w", core.ErrDomain)
	}
	if err := core.CheckFinite("spectrum omega", omega); err != nil {
		return err
	}
	if omega[0] < 0 {
		return fmt.Errorf("spectrum: negative frequency %v: %w", omega[0], core.ErrDomain)
	}
	for i := 1; i < len(omega); i++ {
		if !(omega[i] > omega[i-1]) {
			return fmt.Errorf("spectrum: frequency grid not ascending at bin %d: %w", i, core.ErrDomain)
		}
	}
	return nil
}

// Len returns the number of bins.
func (s *Spectrum) Len() int { return len(s.omega) }

// Omega returns a copy of the angular frequency grid.
func (s *Spectrum) Omega() []float64 { return core.Clone(s.omega) }

// Amplitude returns a copy of the complex amplitudes.
func (s *Spectrum) Amplitude() []complex128 {
	out := make([]complex128, len(s.amplitude))
	copy(out, s.amplitude)
	return out
}

// Phase returns a copy of the bin phases in radians.
func (s *Spectrum) Phase() []float64 { return core.Clone(s.phase) }

// Magnitude returns |a_k| for every bin.
func (s *Spectrum) Magnitude() []float64 { return Magnitude(s.amplitude) }

// Power returns |a_k|^2 for every bin.
func (s *Spectrum) Power() []float64 { return Power(s.amplitude) }

// TotalPower returns the sum of all bin powers.
func (s *Spectrum) TotalPower() float64 {
	sum := 0.0
	for _, p := range s.Power() {
		sum += p
	}
	return sum
}

// Resolution returns the spacing of the first two bins, or 0 for a
// single-bin spectrum.
func (s *Spectrum) Resolution() float64 {
	if len(s.omega) < 2 {
		return 0
	}
	return s.omega[1] - s.omega[0]
}

// MaxOmega returns the highest frequency on the grid.
func (s *Spectrum) MaxOmega() float64 { return s.omega[len(s.omega)-1] }

// Peak returns the frequency and power of the strongest bin.
func (s *Spectrum) Peak() (omega, power float64) {
	p := s.Power()
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return s.omega[best], p[best]
}

// SameGrid reports whether other is sampled on the same frequency grid
// within GridTolerance (relative to the larger grid extent).
func (s *Spectrum) SameGrid(other *Spectrum) bool {
	if other == nil || len(s.omega) != len(other.omega) {
		return false
	}
	scale := math.Max(math.Abs(s.MaxOmega()), math.Abs(other.MaxOmega()))
	if scale == 0 {
		scale = 1
	}
	for i, w := range s.omega {
		if math.Abs(w-other.omega[i]) > GridTolerance*scale {
			return false
		}
	}
	return true
}

// BandPower integrates the power density power_k/width_k over
// [omegaMin, omegaMax] with the trapezoidal rule, treating the density as
// piecewise linear between bins. Bands that only partly overlap a bin
// interval contribute the interpolated part. A band that misses the grid
// yields 0. Infinite bounds select the corresponding grid end. A spectrum
// with a single bin reports that bin's power for any band containing it.
func (s *Spectrum) BandPower(omegaMin, omegaMax float64) (float64, error) {
	if math.IsNaN(omegaMin) || math.IsNaN(omegaMax) {
		return 0, fmt.Errorf("spectrum: band bounds must not be NaN: %w", core.ErrDomain)
	}
	if omegaMin >= omegaMax {
		return 0, fmt.Errorf("spectrum: band [%v, %v] is empty: %w", omegaMin, omegaMax, core.ErrDomain)
	}

	p := s.Power()
	n := len(s.omega)
	if n == 1 {
		if omegaMin <= s.omega[0] && s.omega[0] <= omegaMax {
			return p[0], nil
		}
		return 0, nil
	}

	a := math.Max(omegaMin, s.omega[0])
	b := math.Min(omegaMax, s.omega[n-1])
	if a >= b {
		return 0, nil
	}

	density := s.density(p)

	start := sort.SearchFloat64s(s.omega, a) - 1
	if start < 0 {
		start = 0
	}

	sum := 0.0
	for k := start; k < n-1; k++ {
		x0, x1 := s.omega[k], s.omega[k+1]
		if x0 >= b {
			break
		}
		if x1 <= a {
			continue
		}
		l := math.Max(x0, a)
		r := math.Min(x1, b)
		span := x1 - x0
		dl := density[k] + (density[k+1]-density[k])*(l-x0)/span
		dr := density[k] + (density[k+1]-density[k])*(r-x0)/span
		sum += (r - l) * (dl + dr) / 2
	}

	return sum, nil
}

// density divides each bin power by the width of its bin: half the
// distance between the neighbours inside the grid, half the one-sided
// spacing at either end. Integrated over the whole grid it yields exactly
// the sum of the bin powers.
func (s *Spectrum) density(p []float64) []float64 {
	n := len(s.omega)
	out := make([]float64, n)
	for k := range out {
		var width float64
		switch k {
		case 0:
			width = (s.omega[1] - s.omega[0]) / 2
		case n - 1:
			width = (s.omega[n-1] - s.omega[n-2]) / 2
		default:
			width = (s.omega[k+1] - s.omega[k-1]) / 2
		}
		out[k] = p[k] / width
	}
	return out
}

// Entropy returns the Shannon entropy (natural log) of the power spectrum
// normalised to unit sum. Zero-power bins contribute nothing. With
// excludeDC the bin at omega 0, if present, is left out. A spectrum without
// power has entropy 0.
func (s *Spectrum) Entropy(excludeDC bool) float64 {
	p := s.Power()
	if excludeDC && s.omega[0] == 0 {
		p = p[1:]
	}
	return entropy(p)
}

func entropy(p []float64) float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	if total <= 0 {
		return 0
	}

	h := 0.0
	for _, v := range p {
		if v <= 0 {
			continue
		}
		q := v / total
		h -= q * math.Log(q)
	}
	return h
}

// NormalizedPower returns the bin powers scaled to sum to 1.
func (s *Spectrum) NormalizedPower() ([]float64, error) {
	p := s.Power()
	total := 0.0
	for _, v := range p {
		total += v
	}
	if total <= 0 {
		return nil, ErrZeroPower
	}
	vecmath.ScaleBlock(p, p, 1/total)
	return p, nil
}

// Normalized returns a copy whose total power equals target. A zero-power
// spectrum can only be normalised to 0.
func (s *Spectrum) Normalized(target float64) (*Spectrum, error) {
	if !core.IsFinite(target) || target < 0 {
		return nil, fmt.Errorf("spectrum: normalisation target %v: %w", target, core.ErrDomain)
	}

	current := s.TotalPower()
	if current == 0 {
		if target == 0 {
			return s.Clone(), nil
		}
		return nil, ErrZeroPower
	}

	scale := math.Sqrt(target / current)
	amp := make([]complex128, len(s.amplitude))
	for i, a := range s.amplitude {
		amp[i] = a * complex(scale, 0)
	}

	return &Spectrum{omega: core.Clone(s.omega), amplitude: amp, phase: core.Clone(s.phase)}, nil
}

// Crop keeps the bins with omegaMin <= omega <= omegaMax.
func (s *Spectrum) Crop(omegaMin, omegaMax float64) (*Spectrum, error) {
	if math.IsNaN(omegaMin) || math.IsNaN(omegaMax) || omegaMin >= omegaMax {
		return nil, fmt.Errorf("spectrum: crop band [%v, %v] is empty: %w", omegaMin, omegaMax, core.ErrDomain)
	}

	lo := sort.SearchFloat64s(s.omega, omegaMin)
	hi := sort.Search(len(s.omega), func(i int) bool { return s.omega[i] > omegaMax })
	if lo >= hi {
		return nil, fmt.Errorf("spectrum: crop band [%v, %v] holds no bins: %w", omegaMin, omegaMax, core.ErrDomain)
	}

	amp := make([]complex128, hi-lo)
	copy(amp, s.amplitude[lo:hi])

	return &Spectrum{
		omega:     core.Clone(s.omega[lo:hi]),
		amplitude: amp,
		phase:     core.Clone(s.phase[lo:hi]),
	}, nil
}

// Resample interpolates bin powers linearly onto omega and returns a
// zero-phase spectrum on that grid. Bins outside the source grid get zero
// power. Bin powers are interpolated, not re-integrated, so the total power
// of the result depends on the target resolution.
func (s *Spectrum) Resample(omega []float64) (*Spectrum, error) {
	if err := validateOmega(omega); err != nil {
		return nil, err
	}

	p := s.Power()
	var power []float64
	if len(s.omega) == 1 {
		power = make([]float64, len(omega))
		for i, w := range omega {
			if w == s.omega[0] {
				power[i] = p[0]
			}
		}
	} else {
		var err error
		if power, err = interpolate(s.omega, p, omega, 0); err != nil {
			return nil, err
		}
	}

	return FromPower(omega, power)
}

// Clone returns a deep copy.
func (s *Spectrum) Clone() *Spectrum {
	amp := make([]complex128, len(s.amplitude))
	copy(amp, s.amplitude)
	return &Spectrum{omega: core.Clone(s.omega), amplitude: amp, phase: core.Clone(s.phase)}
}

// Average returns the zero-phase spectrum of the mean bin power of spectra.
// All spectra must share the same grid.
func Average(spectra ...*Spectrum) (*Spectrum, error) {
	if len(spectra) == 0 {
		return nil, fmt.Errorf("spectrum: average of no spectra: %w", core.ErrDomain)
	}
	ref := spectra[0]
	if ref == nil {
		return nil, fmt.Errorf("spectrum: average: spectrum 0 is nil: %w", core.ErrDomain)
	}

	sum := make([]float64, ref.Len())
	for i, s := range spectra {
		if !ref.SameGrid(s) {
			return nil, fmt.Errorf("spectrum: average: spectrum %d: %w", i, ErrGridMismatch)
		}
		vecmath.AddBlockInPlace(sum, s.Power())
	}
	vecmath.ScaleBlock(sum, sum, 1/float64(len(spectra)))

	return FromPower(ref.omega, sum)
}
