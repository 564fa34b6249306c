package health

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/dsp/spectrum"
)

// Signature is a stored reference that measures how far an observation of
// type T has moved away from it.
type Signature[T any] interface {
	Distance(observed T) (float64, error)
}

var (
	_ Signature[*spectrum.Spectrum] = (*SpectrumSignature)(nil)
	_ Signature[FeatureVector]      = (*FeatureSignature)(nil)
)

// SpectrumSignature is a reference power spectrum normalised to unit sum.
type SpectrumSignature struct {
	grid  *spectrum.Spectrum
	omega []float64
	power []float64
}

// NewSpectrumSignature normalises the power of ref to unit sum and stores
// it together with the frequency grid.
func NewSpectrumSignature(ref *spectrum.Spectrum) (*SpectrumSignature, error) {
	if ref == nil {
		return nil, fmt.Errorf("health: nil reference spectrum: %w", core.ErrDomain)
	}
	p, err := ref.NormalizedPower()
	if err != nil {
		return nil, fmt.Errorf("health: reference: %w", err)
	}
	return newSpectrumSignature(ref.Omega(), p)
}

// RestoreSpectrumSignature rebuilds a signature from a grid and an already
// normalised reference power, as returned by Omega and Power. The values
// are kept bit for bit so that a restored signature reproduces the
// distances of the original.
func RestoreSpectrumSignature(omega, power []float64) (*SpectrumSignature, error) {
	return newSpectrumSignature(core.Clone(omega), core.Clone(power))
}

func newSpectrumSignature(omega, power []float64) (*SpectrumSignature, error) {
	grid, err := spectrum.FromPower(omega, power)
	if err != nil {
		return nil, fmt.Errorf("health: reference: %w", err)
	}
	if grid.TotalPower() == 0 {
		return nil, fmt.Errorf("health: reference: %w", spectrum.ErrZeroPower)
	}
	return &SpectrumSignature{grid: grid, omega: omega, power: power}, nil
}

// Len returns the number of bins of the reference.
func (s *SpectrumSignature) Len() int { return len(s.omega) }

// Omega returns a copy of the reference frequency grid.
func (s *SpectrumSignature) Omega() []float64 { return core.Clone(s.omega) }

// Power returns a copy of the normalised reference power.
func (s *SpectrumSignature) Power() []float64 { return core.Clone(s.power) }

// Reference returns the reference as a zero-phase spectrum of unit total
// power.
func (s *SpectrumSignature) Reference() *spectrum.Spectrum { return s.grid.Clone() }

func (s *SpectrumSignature) observedPower(observed *spectrum.Spectrum) ([]float64, error) {
	if observed == nil {
		return nil, fmt.Errorf("health: nil observed spectrum: %w", core.ErrDomain)
	}
	if !s.grid.SameGrid(observed) {
		return nil, fmt.Errorf("health: reference has %d bins up to %v rad/s, observed %d up to %v rad/s: %w",
			s.grid.Len(), s.grid.MaxOmega(), observed.Len(), observed.MaxOmega(), spectrum.ErrGridMismatch)
	}
	p, err := observed.NormalizedPower()
	if err != nil {
		return nil, fmt.Errorf("health: observed: %w", err)
	}
	return p, nil
}

// Distance returns the Euclidean distance between the unit-sum normalised
// power of observed and the reference. The grids must match within
// spectrum.GridTolerance.
func (s *SpectrumSignature) Distance(observed *spectrum.Spectrum) (float64, error) {
	p, err := s.observedPower(observed)
	if err != nil {
		return 0, err
	}
	return euclidean(s.power, p), nil
}

// CosineDistance returns 1 - cos(angle) between the observed and the
// reference power vectors, with the cosine clipped to [0, 1]. An observed
// spectrum without power fails with spectrum.ErrZeroPower, as in Distance,
// rather than scoring 1.
func (s *SpectrumSignature) CosineDistance(observed *spectrum.Spectrum) (float64, error) {
	p, err := s.observedPower(observed)
	if err != nil {
		return 0, err
	}

	var dot, na, nb float64
	for i, a := range s.power {
		dot += a * p[i]
		na += a * a
		nb += p[i] * p[i]
	}
	cos := core.Clamp(dot/math.Sqrt(na*nb), 0, 1)
	return 1 - cos, nil
}

// FeatureSignature is a reference feature vector.
type FeatureSignature struct {
	ref FeatureVector
}

// NewFeatureSignature copies ref.
func NewFeatureSignature(ref FeatureVector) (*FeatureSignature, error) {
	if len(ref) == 0 {
		return nil, fmt.Errorf("health: empty reference feature vector: %w", core.ErrDomain)
	}
	if err := core.CheckFinite("health: reference feature", ref); err != nil {
		return nil, err
	}
	return &FeatureSignature{ref: core.Clone(ref)}, nil
}

// Len returns the length of the reference vector.
func (s *FeatureSignature) Len() int { return len(s.ref) }

// Reference returns a copy of the reference vector.
func (s *FeatureSignature) Reference() FeatureVector { return core.Clone(s.ref) }

// Distance returns the Euclidean distance between observed and the
// reference.
func (s *FeatureSignature) Distance(observed FeatureVector) (float64, error) {
	if len(observed) != len(s.ref) {
		return 0, fmt.Errorf("health: feature vector has %d elements, reference %d: %w",
			len(observed), len(s.ref), core.ErrShapeMismatch)
	}
	if err := core.CheckFinite("health: observed feature", observed); err != nil {
		return 0, err
	}
	return euclidean(s.ref, observed), nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
