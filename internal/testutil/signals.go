package testutil

import (
	"math"
	"math/rand"
	"slices"
)

// TimeGrid returns the sample times 0, dt, 2dt, ... for length samples.
func TimeGrid(length int, dt float64) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = float64(i) * dt
	}
	return out
}

// DeterministicSine returns amplitude*sin(2*pi*freqHz*t) sampled at
// sampleRate, starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := TimeGrid(length, 1/sampleRate)
	w := 2 * math.Pi * freqHz
	for i, t := range out {
		out[i] = amplitude * math.Sin(w*t)
	}
	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude) drawn
// from a generator seeded with seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, length)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// DC returns length copies of value.
func DC(value float64, length int) []float64 {
	return slices.Repeat([]float64{value}, length)
}

// MeanSquare returns mean(x^2), or 0 for an empty slice. It is the total
// power a spectrum of x must carry.
func MeanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var acc float64
	for _, v := range x {
		acc += v * v
	}
	return acc / float64(len(x))
}

// NaiveDFT evaluates bins 0..len(x)/2 of the forward DFT by direct
// summation, as a reference for FFT-backed code.
func NaiveDFT(x []float64) []complex128 {
	n := float64(len(x))
	bins := make([]complex128, len(x)/2+1)
	for k := range bins {
		var sum complex128
		for i, v := range x {
			sin, cos := math.Sincos(-2 * math.Pi * float64(k) * float64(i) / n)
			sum += complex(v*cos, v*sin)
		}
		bins[k] = sum
	}
	return bins
}
