// Package spectrum converts uniformly sampled real signals into one-sided
// spectra and answers power queries on them.
//
// A [Spectrum] holds angular frequencies (rad/s), complex amplitudes and the
// derived phases. Amplitudes are scaled so that the bin powers |a_k|^2 add
// up to the mean square of the analysed signal. [Spectrum.BandPower]
// integrates the per-bin power density over a frequency interval with the
// trapezoidal rule.
//
// Power-of-two transforms run on algo-fft plans, other lengths fall back to
// gonum's real FFT. [Magnitude], [Power] and [Phase] work on raw bin
// slices.
package spectrum
